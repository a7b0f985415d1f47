package audits

import (
	"fmt"
	"sort"
	"strings"
)

// BuildPrompt renders the analysis prompt for a validated request.
// Category groups and their fields are emitted in sorted order so the same
// request always produces the same prompt.
func BuildPrompt(req AuditRequest) string {
	groups := make([]string, 0, len(req.CategoryFields))
	for group := range req.CategoryFields {
		groups = append(groups, group)
	}
	sort.Strings(groups)

	var categories strings.Builder
	for _, group := range groups {
		fields := req.CategoryFields[group]
		keys := make([]string, 0, len(fields))
		for key := range fields {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		categories.WriteString("\n" + group + ":")
		for _, key := range keys {
			categories.WriteString(fmt.Sprintf("\n  - %s: %s", key, fields[key]))
		}
		categories.WriteString("\n")
	}

	return fmt.Sprintf(`You are an expert AI business auditor specializing in digital transformation and AI maturity assessment. You provide detailed, objective analysis in JSON format.

Analyze the following organization data and return ONLY valid JSON. Do not include any explanatory text, markdown formatting, or code blocks.

ORGANIZATION INFORMATION:
- Subject Name: %s
- Industry: %s
- Size Category: %s
- Scale Metric: %s

CATEGORY DATA:
%s
Your output MUST be a valid JSON object with the following structure:
{
  "summary": {
    "personalized_summary": "A concise 3-4 sentence paragraph analyzing the organization's AI maturity. Reference the subject name, industry, and size. Identify key gaps and limitations without suggesting improvements.",
    "overall_risk_score": <integer between 0-100, where higher = more risk / less AI maturity>,
    "ai_maturity_level": "<Low/Medium/High>"
  },
  "sections": [
    {
      "section_name": "<Category Group Name>",
      "level": "<Low/Medium/High>",
      "drawbacks": [
        {
          "title": "<Brief drawback title>",
          "details": "<1-2 sentence explanation of the limitation or gap>"
        }
      ]
    }
  ]
}

CRITICAL RULES:
1. Return ONLY valid JSON - no markdown formatting, no code blocks, no extra text
2. The "personalized_summary" MUST reference the subject name (%s), industry (%s), and size category
3. Focus ONLY on limitations, gaps, and drawbacks - DO NOT suggest improvements or solutions
4. Each category group should have a "level" (Low/Medium/High) indicating AI maturity
5. "overall_risk_score" should be 0-100 (0 = fully mature, 100 = no AI adoption)
6. Include at least 1-2 drawbacks per group where applicable; mature groups may have an empty drawbacks array
7. Be specific and reference actual data points from the category data
8. Keep titles concise (5-8 words) and details informative (1-2 sentences)

ASSESSMENT CRITERIA:
- Low Maturity: manual processes, no automation, no data analytics, legacy systems
- Medium Maturity: some digital tools, basic automation, limited analytics, reactive approach
- High Maturity: advanced automation, AI/ML integration, proactive analytics, modern infrastructure

Now analyze the data and return ONLY the JSON response:`,
		req.SubjectName,
		req.Industry,
		req.SizeCategory,
		req.ScaleMetric,
		categories.String(),
		req.SubjectName,
		req.Industry,
	)
}
