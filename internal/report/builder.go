package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"audit-backend/internal/audits"
	"audit-backend/internal/shared/util"
)

// PDFBuilder renders audit analyses into paginated PDF reports.
type PDFBuilder struct {
	// Dir is the directory rendered files are written to. It is created on
	// first render if missing.
	Dir string
}

// Render produces the report file for a job and returns its artifact handle.
func (b *PDFBuilder) Render(ctx context.Context, job audits.AuditJob) (audits.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if job.Analysis == nil {
		return nil, fmt.Errorf("render: job %s has no analysis", job.ID)
	}

	dir := b.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("render: create artifact dir: %w", err)
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetAutoPageBreak(true, 18)

	writeIdentificationPage(doc, job)
	writeSummaryPage(doc, job)
	if err := writeChartsPage(doc, job); err != nil {
		return nil, err
	}
	writeSectionPages(doc, job.Analysis.Sections)

	fileName, err := util.SanitizeFileName(fmt.Sprintf("audit_report_%s.pdf", job.ID))
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	path := filepath.Join(dir, fileName)
	if err := doc.OutputFileAndClose(path); err != nil {
		return nil, fmt.Errorf("render: write pdf: %w", err)
	}
	return NewArtifact(path), nil
}

func writeIdentificationPage(doc *fpdf.Fpdf, job audits.AuditJob) {
	req := job.Request
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 24)
	doc.CellFormat(0, 14, "AI Audit Report", "", 1, "C", false, 0, "")
	doc.Ln(6)

	doc.SetFont("Helvetica", "B", 16)
	doc.CellFormat(0, 10, req.SubjectName, "", 1, "C", false, 0, "")
	doc.Ln(10)

	doc.SetFont("Helvetica", "", 11)
	rows := [][2]string{
		{"Subject", req.SubjectName},
		{"Industry", req.Industry},
		{"Size Category", req.SizeCategory},
		{"Scale Metric", req.ScaleMetric},
		{"Contact", req.ContactName},
		{"Report ID", job.ID},
		{"Generated", time.Now().UTC().Format("2006-01-02 15:04 UTC")},
	}
	for _, row := range rows {
		doc.SetFont("Helvetica", "B", 11)
		doc.CellFormat(45, 8, row[0], "", 0, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 11)
		doc.MultiCell(0, 8, row[1], "", "L", false)
	}

	doc.Ln(12)
	doc.SetFont("Helvetica", "I", 9)
	doc.MultiCell(0, 5, "Confidential document. Generated by the automated audit pipeline.", "", "C", false)
}

func writeSummaryPage(doc *fpdf.Fpdf, job audits.AuditJob) {
	analysis := job.Analysis
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 18)
	doc.CellFormat(0, 12, "Executive Summary", "", 1, "L", false, 0, "")
	doc.Ln(4)

	doc.SetFont("Helvetica", "", 11)
	doc.MultiCell(0, 6, analysis.Summary.PersonalizedSummary, "", "L", false)
	doc.Ln(8)

	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(60, 8, "Overall Risk Score", "", 0, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 12)
	doc.CellFormat(0, 8, fmt.Sprintf("%d / 100", analysis.Summary.OverallRiskScore), "", 1, "L", false, 0, "")

	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(60, 8, "AI Maturity Level", "", 0, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 12)
	doc.CellFormat(0, 8, analysis.Summary.AIMaturityLevel, "", 1, "L", false, 0, "")

	if job.FallbackUsed {
		doc.Ln(6)
		doc.SetFont("Helvetica", "I", 10)
		doc.MultiCell(0, 5, "This assessment was produced by the deterministic fallback path; a detailed model analysis was not available for this run.", "", "L", false)
	}
}

func writeChartsPage(doc *fpdf.Fpdf, job audits.AuditJob) error {
	analysis := job.Analysis
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 18)
	doc.CellFormat(0, 12, "Maturity Overview", "", 1, "L", false, 0, "")
	doc.Ln(2)

	barPNG, err := renderMaturityBarChart(analysis.Sections)
	if err != nil {
		return err
	}
	barName := "bar-" + job.ID
	doc.RegisterImageOptionsReader(barName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(barPNG))
	doc.ImageOptions(barName, 15, doc.GetY(), 180, 0, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	doc.SetY(doc.GetY() + 110)

	donutPNG, err := renderRiskDonut(analysis.Summary.OverallRiskScore)
	if err != nil {
		return err
	}
	donutName := "donut-" + job.ID
	doc.RegisterImageOptionsReader(donutName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(donutPNG))
	doc.ImageOptions(donutName, 55, doc.GetY(), 100, 0, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	return nil
}

func writeSectionPages(doc *fpdf.Fpdf, sections []audits.AnalysisSection) {
	doc.AddPage()
	doc.SetFont("Helvetica", "B", 18)
	doc.CellFormat(0, 12, "Category Findings", "", 1, "L", false, 0, "")
	doc.Ln(2)

	for _, section := range sections {
		doc.SetFont("Helvetica", "B", 13)
		doc.CellFormat(0, 9, section.SectionName, "", 1, "L", false, 0, "")

		doc.SetFont("Helvetica", "I", 10)
		doc.CellFormat(0, 6, "Maturity: "+section.Level, "", 1, "L", false, 0, "")
		doc.Ln(1)

		if len(section.Drawbacks) == 0 {
			doc.SetFont("Helvetica", "", 10)
			doc.MultiCell(0, 5, "No findings noted for this category.", "", "L", false)
		} else {
			for _, drawback := range section.Drawbacks {
				doc.SetFont("Helvetica", "B", 10)
				doc.MultiCell(0, 5, "- "+drawback.Title, "", "L", false)
				if strings.TrimSpace(drawback.Details) != "" {
					doc.SetFont("Helvetica", "", 10)
					doc.MultiCell(0, 5, "  "+drawback.Details, "", "L", false)
				}
			}
		}
		doc.Ln(5)
	}
}
