package copilot

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/zulandar/signalbox/internal/models"
)

const recommendTemplate = `You are an AI co-pilot for a railway section controller. Analyze the following real-time railway data and recommend how to resolve the alert.

## System State
### Active Trains
{{ range .Trains }}- ID: {{ .ID }} ({{ .Name }}), Track: {{ .TrackID }}, Position: {{ pct .Position }}%, Speed: {{ .Speed }}km/h, Status: {{ .Status }}, Priority: {{ .Priority }}, Destination: {{ .Destination }}
{{ end }}
### Track Layout
{{ range .Tracks }}- Track ID: {{ .ID }}, Length: {{ .Length }}km
{{ end }}
## Alert
- Title: {{ .Alert.Title }}
- Description: {{ .Alert.Description }}
- Severity: {{ .Alert.Severity }}

## Task
Generate the best action to resolve this conflict. Prioritize safety, then punctuality of high-priority trains, then overall network efficiency. Respond with a JSON object matching the provided schema and give clear, justifiable reasoning.
`

const scenarioTemplate = `You are an expert railway operations strategist. Analyze the railway state below together with a hypothetical disruption scenario.
Generate 2-3 distinct, high-level mitigation strategies. For each strategy give a title, a clear description, and lists of pros and cons.

## System State
### Active Trains
{{ range .Trains }}- ID: {{ .ID }} ({{ .Name }}), Track: {{ .TrackID }}, Position: {{ pct .Position }}%, Speed: {{ .Speed }}km/h, Status: {{ .Status }}, Priority: {{ .Priority }}
{{ end }}
### Track Layout
{{ range .Tracks }}- Track ID: {{ .ID }}, Length: {{ .Length }}km
{{ end }}
## Disruption Scenario
"{{ .Scenario }}"

Respond with a JSON object matching the provided schema, containing the list of strategies.
`

const whatIfTemplate = `You are an AI co-pilot for a railway controller. The current situation involves an alert, and you have already provided a recommendation.
The controller wants to explore an alternative. Analyze the "what-if" query and compare it with your original recommendation.

## System State
### Active Trains
{{ range .Trains }}- ID: {{ .ID }}, Track: {{ .TrackID }}, Position: {{ pct .Position }}%, Speed: {{ .Speed }}km/h, Status: {{ .Status }}, Priority: {{ .Priority }}
{{ end }}
### Track Layout
{{ range .Tracks }}- Track ID: {{ .ID }}
{{ end }}
## Alert
- Description: {{ .Alert.Description }}

## Your Original Recommendation
- Action: {{ .Recommendation.Action }}
- Reasoning: {{ .Recommendation.Reasoning }}

## What-If Query
"{{ .Query }}"

## Task
Give a concise analysis (2-3 sentences) of the query. Explain the likely consequences of the suggested action and compare its effectiveness against your original recommendation, considering safety, punctuality and network throughput.
`

var funcMap = template.FuncMap{
	"pct": func(p float64) string { return fmt.Sprintf("%.1f", p) },
}

var (
	recommendTmpl = template.Must(template.New("recommend").Funcs(funcMap).Parse(recommendTemplate))
	scenarioTmpl  = template.Must(template.New("scenario").Funcs(funcMap).Parse(scenarioTemplate))
	whatIfTmpl    = template.Must(template.New("whatif").Funcs(funcMap).Parse(whatIfTemplate))
)

// promptData is the input shared by all three prompt templates.
type promptData struct {
	Trains         []models.Train
	Tracks         []models.Track
	Alert          models.Alert
	Recommendation models.AIRecommendation
	Scenario       string
	Query          string
}

func render(tmpl *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("copilot: render %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// RecommendPrompt renders the recommendation prompt for alert.
func RecommendPrompt(trains []models.Train, tracks []models.Track, alert models.Alert) (string, error) {
	return render(recommendTmpl, promptData{Trains: trains, Tracks: tracks, Alert: alert})
}

// ScenarioPrompt renders the scenario-analysis prompt.
func ScenarioPrompt(trains []models.Train, tracks []models.Track, scenario string) (string, error) {
	return render(scenarioTmpl, promptData{Trains: trains, Tracks: tracks, Scenario: scenario})
}

// WhatIfPrompt renders the what-if prompt comparing query against rec.
func WhatIfPrompt(trains []models.Train, tracks []models.Track, alert models.Alert, rec models.AIRecommendation, query string) (string, error) {
	return render(whatIfTmpl, promptData{Trains: trains, Tracks: tracks, Alert: alert, Recommendation: rec, Query: query})
}
