package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

const systemPrompt = "You are an analyst for an occupational-rehabilitation " +
	"case-management platform. You write concise narrative reports for clinic " +
	"administrators. Respond with a single JSON object and nothing else, using " +
	`the keys "summary" (string), "highlights" (array of strings), ` +
	`"concerns" (array of strings) and "recommendations" (array of strings).`

var userPrompt = template.Must(template.New("report").Parse(
	`Write a narrative report of the platform's activity from the aggregated
statistics below. Summarize overall caseload and appointment activity, call
out notable highlights and concerns, and suggest practical next steps for
clinic administrators.

Statistics (JSON):
{{.Stats}}
`))

// BuildPrompt renders the user prompt around the statistics payload. The
// payload is embedded as-is; its structure is owned by the caller.
func BuildPrompt(stats map[string]interface{}) (string, error) {
	encoded, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode stats: %w", err)
	}

	var b strings.Builder
	if err := userPrompt.Execute(&b, struct{ Stats string }{Stats: string(encoded)}); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return b.String(), nil
}
