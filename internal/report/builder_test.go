package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	pdfreader "github.com/ledongthuc/pdf"

	"audit-backend/internal/audits"
)

func sampleJob() audits.AuditJob {
	now := time.Now().UTC()
	return audits.AuditJob{
		ID:    "job-report-1",
		State: audits.StateAnalyzed,
		Request: audits.AuditRequest{
			SubjectName:    "Acme Manufacturing",
			ContactName:    "Jordan Lee",
			ContactAddress: "jordan@acme.example",
			Industry:       "Manufacturing",
			SizeCategory:   "Mid-market",
			ScaleMetric:    "120 employees",
			CategoryFields: map[string]map[string]string{
				"Operations": {"automation": "manual"},
			},
		},
		Analysis: &audits.AnalysisResult{
			Summary: audits.AnalysisSummary{
				PersonalizedSummary: "Acme Manufacturing shows early signs of AI adoption.",
				OverallRiskScore:    72,
				AIMaturityLevel:     audits.MaturityLow,
			},
			Sections: []audits.AnalysisSection{
				{
					SectionName: "Operations",
					Level:       audits.MaturityLow,
					Drawbacks: []audits.Drawback{
						{Title: "Manual workflows", Details: "Scheduling is done entirely by hand."},
					},
				},
				{
					SectionName: "Finance",
					Level:       audits.MaturityMedium,
				},
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestRenderProducesReadablePDF(t *testing.T) {
	builder := &PDFBuilder{Dir: t.TempDir()}
	artifact, err := builder.Render(context.Background(), sampleJob())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	defer artifact.Release()

	data, err := os.ReadFile(artifact.Path())
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("expected PDF magic, got %q", data[:8])
	}

	reader, err := pdfreader.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("parse pdf: %v", err)
	}
	// Identification, summary, charts, and findings pages at minimum.
	if reader.NumPage() < 4 {
		t.Fatalf("expected at least 4 pages, got %d", reader.NumPage())
	}
}

// echoAnalysis derives the analysis from the request, so report content is
// traceable to its input.
func echoAnalysis(req audits.AuditRequest) *audits.AnalysisResult {
	sections := make([]audits.AnalysisSection, 0, len(req.CategoryFields))
	for group := range req.CategoryFields {
		sections = append(sections, audits.AnalysisSection{
			SectionName: group,
			Level:       audits.MaturityLow,
			Drawbacks: []audits.Drawback{
				{Title: "Gaps in " + group, Details: fmt.Sprintf("%s reported limited adoption in %s.", req.SubjectName, group)},
			},
		})
	}
	return &audits.AnalysisResult{
		Summary: audits.AnalysisSummary{
			PersonalizedSummary: fmt.Sprintf("Assessment of %s in the %s industry.", req.SubjectName, req.Industry),
			OverallRiskScore:    55,
			AIMaturityLevel:     audits.MaturityMedium,
		},
		Sections: sections,
	}
}

func extractPDFText(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	reader, err := pdfreader.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("parse pdf: %v", err)
	}
	textReader, err := reader.GetPlainText()
	if err != nil {
		t.Fatalf("extract text: %v", err)
	}
	text, err := io.ReadAll(textReader)
	if err != nil {
		t.Fatalf("read text: %v", err)
	}
	return string(text)
}

// squash drops all whitespace so phrase checks survive extraction artifacts.
func squash(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func TestRenderKeepsJobsIsolated(t *testing.T) {
	builder := &PDFBuilder{Dir: t.TempDir()}

	first := sampleJob()
	first.ID = "job-first"
	first.Request.SubjectName = "Helios Fabrication"
	first.Request.CategoryFields = map[string]map[string]string{
		"Operations": {"automation": "manual"},
	}
	first.Analysis = echoAnalysis(first.Request)

	second := sampleJob()
	second.ID = "job-second"
	second.Request.SubjectName = "Borealis Logistics"
	second.Request.Industry = "Transportation"
	second.Request.CategoryFields = map[string]map[string]string{
		"Compliance": {"audit_trail": "none"},
	}
	second.Analysis = echoAnalysis(second.Request)

	firstArtifact, err := builder.Render(context.Background(), first)
	if err != nil {
		t.Fatalf("render first: %v", err)
	}
	defer firstArtifact.Release()
	secondArtifact, err := builder.Render(context.Background(), second)
	if err != nil {
		t.Fatalf("render second: %v", err)
	}
	defer secondArtifact.Release()

	firstText := squash(extractPDFText(t, firstArtifact.Path()))
	secondText := squash(extractPDFText(t, secondArtifact.Path()))

	if firstText == secondText {
		t.Fatal("reports for different requests must not have identical text")
	}
	if !strings.Contains(firstText, squash("Helios Fabrication")) {
		t.Fatal("first report missing its own subject")
	}
	if !strings.Contains(secondText, squash("Borealis Logistics")) {
		t.Fatal("second report missing its own subject")
	}
	if strings.Contains(firstText, squash("Borealis Logistics")) {
		t.Fatal("first report leaked the second job's subject")
	}
	if strings.Contains(secondText, squash("Helios Fabrication")) {
		t.Fatal("second report leaked the first job's subject")
	}
	if !strings.Contains(firstText, "Operations") || strings.Contains(firstText, "Compliance") {
		t.Fatal("first report must carry only its own categories")
	}
	if !strings.Contains(secondText, "Compliance") || strings.Contains(secondText, "Operations") {
		t.Fatal("second report must carry only its own categories")
	}
}

func TestRenderRequiresAnalysis(t *testing.T) {
	builder := &PDFBuilder{Dir: t.TempDir()}
	job := sampleJob()
	job.Analysis = nil
	if _, err := builder.Render(context.Background(), job); err == nil {
		t.Fatal("expected error for missing analysis")
	}
}

func TestRenderHonorsCancelledContext(t *testing.T) {
	builder := &PDFBuilder{Dir: t.TempDir()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := builder.Render(ctx, sampleJob()); err == nil {
		t.Fatal("expected context error")
	}
}

func TestArtifactReleaseRemovesFileOnce(t *testing.T) {
	builder := &PDFBuilder{Dir: t.TempDir()}
	artifact, err := builder.Render(context.Background(), sampleJob())
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if err := artifact.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := os.Stat(artifact.Path()); !os.IsNotExist(err) {
		t.Fatalf("expected artifact removed, stat err: %v", err)
	}
	// Second release is a no-op rather than a failed remove.
	if err := artifact.Release(); err != nil {
		t.Fatalf("second release: %v", err)
	}
}
