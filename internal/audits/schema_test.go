package audits

import (
	"strings"
	"testing"
)

const sampleResultJSON = `{
  "summary": {
    "personalized_summary": "Acme Manufacturing shows limited AI adoption for a mid-size manufacturer.",
    "overall_risk_score": 72,
    "ai_maturity_level": "Low"
  },
  "sections": [
    {
      "section_name": "Operations",
      "level": "Low",
      "drawbacks": [
        {"title": "Manual production tracking", "details": "Production data is tracked in spreadsheets."}
      ]
    }
  ]
}`

func TestParseAnalysisResultPlainJSON(t *testing.T) {
	result, err := ParseAnalysisResult(sampleResultJSON)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if result.Summary.OverallRiskScore != 72 {
		t.Fatalf("expected risk 72, got %d", result.Summary.OverallRiskScore)
	}
	if len(result.Sections) != 1 || result.Sections[0].SectionName != "Operations" {
		t.Fatalf("unexpected sections: %+v", result.Sections)
	}
}

func TestParseAnalysisResultMarkdownFence(t *testing.T) {
	fenced := "```json\n" + sampleResultJSON + "\n```"
	result, err := ParseAnalysisResult(fenced)
	if err != nil {
		t.Fatalf("parse fenced: %v", err)
	}
	if result.Summary.AIMaturityLevel != MaturityLow {
		t.Fatalf("expected Low, got %s", result.Summary.AIMaturityLevel)
	}
}

func TestParseAnalysisResultSurroundingProse(t *testing.T) {
	noisy := "Here is the analysis you requested:\n" + sampleResultJSON + "\nLet me know if you need anything else."
	if _, err := ParseAnalysisResult(noisy); err != nil {
		t.Fatalf("parse noisy: %v", err)
	}
}

func TestParseAnalysisResultNoJSON(t *testing.T) {
	if _, err := ParseAnalysisResult("I could not produce an analysis."); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidateResultRejects(t *testing.T) {
	base, err := ParseAnalysisResult(sampleResultJSON)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*AnalysisResult)
		want   string
	}{
		{"empty summary", func(r *AnalysisResult) { r.Summary.PersonalizedSummary = " " }, "personalized_summary"},
		{"risk too high", func(r *AnalysisResult) { r.Summary.OverallRiskScore = 101 }, "out of range"},
		{"risk negative", func(r *AnalysisResult) { r.Summary.OverallRiskScore = -1 }, "out of range"},
		{"bad maturity", func(r *AnalysisResult) { r.Summary.AIMaturityLevel = "Extreme" }, "ai_maturity_level"},
		{"no sections", func(r *AnalysisResult) { r.Sections = nil }, "sections is empty"},
		{"unnamed section", func(r *AnalysisResult) { r.Sections[0].SectionName = "" }, "section_name"},
		{"bad section level", func(r *AnalysisResult) { r.Sections[0].Level = "low" }, "level"},
	}
	for _, tc := range cases {
		result := base
		result.Sections = append([]AnalysisSection(nil), base.Sections...)
		tc.mutate(&result)
		err := ValidateResult(result)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: error %q missing %q", tc.name, err.Error(), tc.want)
		}
	}
}

func TestMaturityRank(t *testing.T) {
	if MaturityRank(MaturityLow) != 1 || MaturityRank(MaturityMedium) != 2 || MaturityRank(MaturityHigh) != 3 {
		t.Fatal("unexpected maturity ranks")
	}
	if MaturityRank("unknown") != 0 {
		t.Fatal("unknown level should rank 0")
	}
}
