package audits

import (
	"fmt"
	"sort"
)

const (
	fallbackRiskScore = 60
	fallbackMaturity  = MaturityMedium
)

// FallbackResult builds the deterministic analysis used when every model
// attempt has been exhausted. It carries one empty section per category group
// so downstream stages see the same shape as a real analysis.
func FallbackResult(req AuditRequest) AnalysisResult {
	groups := make([]string, 0, len(req.CategoryFields))
	for group := range req.CategoryFields {
		groups = append(groups, group)
	}
	sort.Strings(groups)

	sections := make([]AnalysisSection, 0, len(groups))
	for _, group := range groups {
		sections = append(sections, AnalysisSection{
			SectionName: group,
			Level:       fallbackMaturity,
			Drawbacks:   []Drawback{},
		})
	}

	summary := fmt.Sprintf(
		"An automated assessment for %s in the %s industry could not be completed with full analysis detail. "+
			"Based on the submitted category data, %s is assigned a provisional medium maturity profile pending a detailed review. "+
			"The category breakdown below lists each submitted area without individual findings.",
		req.SubjectName, req.Industry, req.SubjectName,
	)

	return AnalysisResult{
		Summary: AnalysisSummary{
			PersonalizedSummary: summary,
			OverallRiskScore:    fallbackRiskScore,
			AIMaturityLevel:     fallbackMaturity,
		},
		Sections: sections,
	}
}
