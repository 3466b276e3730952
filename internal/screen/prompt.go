// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package screen

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/pdiddy/review-engine/pkg/types"
)

// systemPrompt frames the model as a screening assistant. Kept separate
// from the per-article prompt so backends can route it as a system message.
const systemPrompt = `You are a systematic review screening assistant. You decide whether an article should be included in a systematic review based on its title and abstract against the review's PICOS criteria. When the abstract does not give enough information to exclude with confidence, include the article so it can be judged at full text.`

// screeningPromptTmpl renders the per-article user prompt. The model must
// answer with a JSON object carrying a decision and a short reason.
var screeningPromptTmpl = template.Must(template.New("screening").Parse(`Screen the following article against the review criteria.

Review criteria:
{{- range .Criteria}}
- {{.Key}}: {{.Value}}
{{- end}}

Article:
Title: {{.Title}}
Abstract: {{.Abstract}}

Respond with a JSON object only, no other text:
{"decision": "Included" or "Excluded", "reason": "one sentence explaining the decision"}
`))

type promptData struct {
	Criteria []types.Entry
	Title    string
	Abstract string
}

// renderPrompt builds the user prompt for one article.
func renderPrompt(spec types.PICOS, rec types.ArticleRecord) (string, error) {
	var buf bytes.Buffer
	data := promptData{
		Criteria: spec.Entries(),
		Title:    rec.Title,
		Abstract: rec.Abstract,
	}
	if err := screeningPromptTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering screening prompt: %w", err)
	}
	return buf.String(), nil
}
