package report

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"audit-backend/internal/audits"
)

// renderMaturityBarChart draws one bar per section at its maturity rank.
func renderMaturityBarChart(sections []audits.AnalysisSection) ([]byte, error) {
	bars := make([]chart.Value, 0, len(sections))
	for _, section := range sections {
		bars = append(bars, chart.Value{
			Label: truncateLabel(section.SectionName, 14),
			Value: float64(audits.MaturityRank(section.Level)),
		})
	}

	graph := chart.BarChart{
		Title:    "AI Maturity by Category",
		Width:    760,
		Height:   420,
		BarWidth: 48,
		Bars:     bars,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: 3},
			Ticks: []chart.Tick{
				{Value: 0, Label: ""},
				{Value: 1, Label: "Low"},
				{Value: 2, Label: "Medium"},
				{Value: 3, Label: "High"},
			},
		},
		XAxis: chart.Style{},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render bar chart: %w", err)
	}
	return buf.Bytes(), nil
}

// renderRiskDonut draws the overall risk score against the remaining margin.
func renderRiskDonut(riskScore int) ([]byte, error) {
	if riskScore < 0 {
		riskScore = 0
	}
	if riskScore > 100 {
		riskScore = 100
	}
	values := make([]chart.Value, 0, 2)
	if riskScore > 0 {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("Risk %d", riskScore),
			Value: float64(riskScore),
			Style: chart.Style{FillColor: drawing.ColorFromHex("e74c3c")},
		})
	}
	if riskScore < 100 {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("Margin %d", 100-riskScore),
			Value: float64(100 - riskScore),
			Style: chart.Style{FillColor: drawing.ColorFromHex("2ecc71")},
		})
	}
	graph := chart.DonutChart{
		Title:  fmt.Sprintf("Overall Risk Score: %d/100", riskScore),
		Width:  420,
		Height: 420,
		Values: values,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render donut chart: %w", err)
	}
	return buf.Bytes(), nil
}

func truncateLabel(label string, max int) string {
	runes := []rune(label)
	if len(runes) <= max {
		return label
	}
	return string(runes[:max-1]) + "…"
}
