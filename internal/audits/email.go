package audits

import (
	"fmt"
	"strings"

	"audit-backend/internal/mailer"
)

// buildReportEmail prepares the delivery email for a completed analysis.
func buildReportEmail(sender string, job AuditJob, pdf []byte) mailer.Email {
	req := job.Request
	summary := ""
	if job.Analysis != nil {
		summary = job.Analysis.Summary.PersonalizedSummary
	}

	textBody := fmt.Sprintf(`Hi %s,

Please find attached the AI Audit Report for %s.

Summary:
%s

This report includes detailed category-wise gaps and AI readiness visualizations.

Best regards,
Automated Audit & Analysis System

---
Confidential Document | For Internal Use Only
`, req.ContactName, req.SubjectName, summary)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background-color: #3498db; color: white; padding: 20px; text-align: center;">
      <h1>AI Audit Report</h1>
    </div>
    <div style="background-color: #f9f9f9; padding: 30px; border: 1px solid #dddddd;">
      <p>Dear %s,</p>
      <p>Please find attached the <strong>AI Audit Report</strong> for <strong>%s</strong>.</p>
      <div style="background-color: #ecf0f1; border-left: 4px solid #3498db; padding: 15px; margin: 20px 0;">
        <h3>Executive Summary</h3>
        <p>%s</p>
      </div>
      <p>This report includes:</p>
      <ul>
        <li>Detailed category-wise AI readiness analysis</li>
        <li>Identified gaps and limitations</li>
        <li>AI maturity visualizations and charts</li>
        <li>Overall risk assessment</li>
      </ul>
      <p>Best regards,<br><strong>Automated Audit &amp; Analysis System</strong></p>
    </div>
    <div style="background-color: #2c3e50; color: #ecf0f1; padding: 20px; text-align: center; font-size: 12px;">
      <p>Confidential Document | For Internal Use Only</p>
    </div>
  </div>
</body>
</html>`, req.ContactName, req.SubjectName, summary)

	return mailer.Email{
		From:           sender,
		To:             req.ContactAddress,
		Subject:        fmt.Sprintf("AI Audit Report - %s", req.SubjectName),
		TextBody:       textBody,
		HTMLBody:       htmlBody,
		AttachmentName: attachmentFileName(req.SubjectName),
		Attachment:     pdf,
	}
}

func attachmentFileName(subjectName string) string {
	safe := strings.ReplaceAll(strings.TrimSpace(subjectName), " ", "_")
	if len(safe) > 30 {
		safe = safe[:30]
	}
	if safe == "" {
		safe = "Subject"
	}
	return fmt.Sprintf("AI_Audit_Report_%s.pdf", safe)
}
