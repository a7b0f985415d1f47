package mailer

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
)

func TestBuildMIMEMessageStructure(t *testing.T) {
	attachment := bytes.Repeat([]byte("%PDF-1.4 test payload "), 20)
	email := Email{
		From:           "audit@reports.example",
		To:             "jordan@acme.example",
		Subject:        "AI Audit Report - Acme Manufacturing",
		TextBody:       "Your report is attached.",
		HTMLBody:       "<p>Your report is attached.</p>",
		AttachmentName: "AI_Audit_Report_Acme.pdf",
		Attachment:     attachment,
	}

	raw := string(BuildMIMEMessage(email))

	for _, want := range []string{
		"From: audit@reports.example\r\n",
		"To: jordan@acme.example\r\n",
		"MIME-Version: 1.0\r\n",
		`Content-Type: multipart/mixed; boundary="mixed-9c4d1f0a"`,
		`Content-Type: multipart/alternative; boundary="alt-2b7e83d5"`,
		"Content-Type: text/plain; charset=UTF-8",
		"Content-Type: text/html; charset=UTF-8",
		"Content-Type: application/pdf",
		"Content-Transfer-Encoding: base64",
		`Content-Disposition: attachment; filename="AI_Audit_Report_Acme.pdf"`,
		"Your report is attached.",
		"--mixed-9c4d1f0a--\r\n",
	} {
		if !strings.Contains(raw, want) {
			t.Fatalf("message missing %q", want)
		}
	}

	// The attachment body round-trips through base64 intact.
	start := strings.Index(raw, "Content-Transfer-Encoding: base64")
	if start < 0 {
		t.Fatal("missing attachment part")
	}
	body := raw[start:]
	body = body[strings.Index(body, "\r\n\r\n")+4:]
	body = body[:strings.Index(body, "\r\n--mixed-9c4d1f0a--")]
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(body, "\r\n", ""))
	if err != nil {
		t.Fatalf("decode attachment: %v", err)
	}
	if !bytes.Equal(decoded, attachment) {
		t.Fatal("attachment bytes corrupted in transit")
	}

	// Encoded lines stay within the RFC 2045 limit.
	for _, line := range strings.Split(body, "\r\n") {
		if len(line) > 76 {
			t.Fatalf("base64 line exceeds 76 chars: %d", len(line))
		}
	}
}

func TestBuildMIMEMessageWithoutAttachment(t *testing.T) {
	raw := string(BuildMIMEMessage(Email{
		From:     "audit@reports.example",
		To:       "jordan@acme.example",
		Subject:  "Status",
		TextBody: "plain only",
	}))
	if strings.Contains(raw, "Content-Disposition: attachment") {
		t.Fatal("no attachment part expected")
	}
	if strings.Contains(raw, "text/html") {
		t.Fatal("no html part expected")
	}
	if !strings.Contains(raw, "plain only") {
		t.Fatal("text body missing")
	}
}

func TestBuildMIMEMessageDefaultsAttachmentName(t *testing.T) {
	raw := string(BuildMIMEMessage(Email{
		From:       "audit@reports.example",
		To:         "jordan@acme.example",
		Subject:    "Report",
		TextBody:   "attached",
		Attachment: []byte("%PDF-1.4"),
	}))
	if !strings.Contains(raw, `filename="report.pdf"`) {
		t.Fatal("expected default attachment name")
	}
}
