package audits

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	MaturityLow    = "Low"
	MaturityMedium = "Medium"
	MaturityHigh   = "High"
)

// AnalysisResult is the structured output of the analysis stage.
type AnalysisResult struct {
	Summary  AnalysisSummary   `json:"summary"`
	Sections []AnalysisSection `json:"sections"`
}

// AnalysisSummary holds the subject-level assessment.
type AnalysisSummary struct {
	PersonalizedSummary string `json:"personalized_summary"`
	OverallRiskScore    int    `json:"overall_risk_score"`
	AIMaturityLevel     string `json:"ai_maturity_level"`
}

// AnalysisSection assesses one category group.
type AnalysisSection struct {
	SectionName string     `json:"section_name"`
	Level       string     `json:"level"`
	Drawbacks   []Drawback `json:"drawbacks"`
}

// Drawback is one identified gap within a section.
type Drawback struct {
	Title   string `json:"title"`
	Details string `json:"details"`
}

// ParseAnalysisResult decodes a model response into an AnalysisResult,
// tolerating markdown code fences and surrounding prose around the JSON object.
func ParseAnalysisResult(raw string) (AnalysisResult, error) {
	cleaned := extractJSONObject(raw)
	if cleaned == "" {
		return AnalysisResult{}, fmt.Errorf("llm output parse: no JSON object found")
	}
	var result AnalysisResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return AnalysisResult{}, fmt.Errorf("llm output parse: %w", err)
	}
	return result, nil
}

// ValidateResult checks structural invariants on a parsed result.
func ValidateResult(result AnalysisResult) error {
	if strings.TrimSpace(result.Summary.PersonalizedSummary) == "" {
		return fmt.Errorf("llm output schema: summary.personalized_summary is empty")
	}
	if result.Summary.OverallRiskScore < 0 || result.Summary.OverallRiskScore > 100 {
		return fmt.Errorf("llm output schema: overall_risk_score %d out of range", result.Summary.OverallRiskScore)
	}
	if !validMaturity(result.Summary.AIMaturityLevel) {
		return fmt.Errorf("llm output schema: ai_maturity_level %q invalid", result.Summary.AIMaturityLevel)
	}
	if len(result.Sections) == 0 {
		return fmt.Errorf("llm output schema: sections is empty")
	}
	for i, section := range result.Sections {
		if strings.TrimSpace(section.SectionName) == "" {
			return fmt.Errorf("llm output schema: sections[%d].section_name is empty", i)
		}
		if !validMaturity(section.Level) {
			return fmt.Errorf("llm output schema: sections[%d].level %q invalid", i, section.Level)
		}
	}
	return nil
}

func validMaturity(level string) bool {
	switch level {
	case MaturityLow, MaturityMedium, MaturityHigh:
		return true
	}
	return false
}

// MaturityRank maps a maturity level to a numeric rank for charting.
// Unknown levels rank zero.
func MaturityRank(level string) int {
	switch level {
	case MaturityLow:
		return 1
	case MaturityMedium:
		return 2
	case MaturityHigh:
		return 3
	}
	return 0
}

func extractJSONObject(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}
