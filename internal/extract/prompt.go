// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"fmt"
	"text/template"
)

const picoSystemPrompt = `You are a systematic review data extraction system. You read full-text clinical study reports and extract structured study characteristics. Answer with JSON only.`

// picoPromptTmpl asks for the five PICOS elements of one study. The model
// must answer with a flat JSON object; missing elements are empty strings.
var picoPromptTmpl = template.Must(template.New("pico").Parse(`Extract the PICO elements from the following study report.

Respond with a JSON object only, no other text, using exactly these keys:
{"population": "...", "intervention": "...", "comparison": "...", "outcome": "...", "study_design": "..."}

Use an empty string for any element the text does not report. Keep each value to one or two sentences quoting the study's own terms.

Study text:
{{.Text}}
`))

const robSystemPrompt = `You are a risk of bias assessment system for systematic reviews. You apply the five RoB 2 domains to a clinical study report. Answer with JSON only.`

// robPromptTmpl asks for a judgement per bias domain. Each entry carries a
// level and a one-sentence explanation.
var robPromptTmpl = template.Must(template.New("rob").Parse(`Assess the risk of bias of the following study across these five domains:
1. Randomization process
2. Deviations from intended interventions
3. Missing outcome data
4. Measurement of the outcome
5. Selection of the reported result

Respond with a JSON object only, no other text. Use the domain names as keys; each value is an object with "level" ("Low", "High", or "Unclear") and "explanation" (one sentence):
{"randomization": {"level": "...", "explanation": "..."}, "deviations": {"level": "...", "explanation": "..."}, "missing_data": {"level": "...", "explanation": "..."}, "measurement": {"level": "...", "explanation": "..."}, "selective_reporting": {"level": "...", "explanation": "..."}}

Study text:
{{.Text}}
`))

type promptData struct {
	Text string
}

func renderPrompt(tmpl *template.Template, text string) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, promptData{Text: text}); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
