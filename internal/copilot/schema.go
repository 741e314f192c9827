package copilot

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zulandar/signalbox/internal/models"
	"google.golang.org/genai"
)

// MalformedError reports a response that does not satisfy the expected
// schema. It is treated as a failed call.
type MalformedError struct {
	Kind   string // "recommendation" or "scenario"
	Reason string
	Raw    string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("copilot: malformed %s response: %s", e.Kind, e.Reason)
}

func policyNameEnum() []string {
	out := make([]string, len(models.PolicyNames))
	for i, n := range models.PolicyNames {
		out[i] = string(n)
	}
	return out
}

// recommendationSchema is the response contract for a recommendation.
func recommendationSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"action": {
				Type:        genai.TypeString,
				Description: "A concise, actionable instruction for the railway controller, e.g. 'Reroute Train T002 to Track 3 and reduce speed to 60 km/h'.",
			},
			"reasoning": {
				Type:        genai.TypeString,
				Description: "A clear explanation of why this action is optimal, mentioning trade-offs and alternatives considered.",
			},
			"policyScores": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name": {Type: genai.TypeString, Enum: policyNameEnum()},
						"score": {
							Type:        genai.TypeNumber,
							Description: "The projected score (0-100) after the action.",
							Minimum:     genai.Ptr(0.0),
							Maximum:     genai.Ptr(100.0),
						},
						"change": {Type: genai.TypeNumber, Description: "The change from the current score, e.g. +5 or -2."},
					},
					Required: []string{"name", "score", "change"},
				},
			},
		},
		Required: []string{"action", "reasoning", "policyScores"},
	}
}

// scenarioSchema is the response contract for a scenario analysis.
func scenarioSchema() *genai.Schema {
	list := &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"strategies": {
				Type:        genai.TypeArray,
				Description: "Distinct mitigation strategies for the disruption scenario.",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title":       {Type: genai.TypeString, Description: "A short, descriptive title for the strategy."},
						"description": {Type: genai.TypeString, Description: "The strategy and the actions it involves."},
						"pros":        list,
						"cons":        list,
					},
					Required: []string{"title", "description", "pros", "cons"},
				},
			},
		},
		Required: []string{"strategies"},
	}
}

// rawRecommendation mirrors the recommendation schema. Pointers distinguish
// missing fields from zero values.
type rawRecommendation struct {
	Action       *string `json:"action"`
	Reasoning    *string `json:"reasoning"`
	PolicyScores *[]struct {
		Name   *string  `json:"name"`
		Score  *float64 `json:"score"`
		Change *float64 `json:"change"`
	} `json:"policyScores"`
}

// DecodeRecommendation parses and validates a recommendation response. The
// returned value has no ID or RelatedAlertID; the caller assigns those.
func DecodeRecommendation(text string) (models.AIRecommendation, error) {
	bad := func(format string, args ...any) (models.AIRecommendation, error) {
		return models.AIRecommendation{}, &MalformedError{Kind: "recommendation", Reason: fmt.Sprintf(format, args...), Raw: text}
	}

	var raw rawRecommendation
	if err := json.Unmarshal([]byte(stripFence(text)), &raw); err != nil {
		return bad("invalid JSON: %v", err)
	}
	if raw.Action == nil || strings.TrimSpace(*raw.Action) == "" {
		return bad("missing action")
	}
	if raw.Reasoning == nil {
		return bad("missing reasoning")
	}
	if raw.PolicyScores == nil {
		return bad("missing policyScores")
	}

	rec := models.AIRecommendation{Action: *raw.Action, Reasoning: *raw.Reasoning}
	for i, ps := range *raw.PolicyScores {
		switch {
		case ps.Name == nil || ps.Score == nil || ps.Change == nil:
			return bad("policyScores[%d]: missing field", i)
		case !models.PolicyName(*ps.Name).Valid():
			return bad("policyScores[%d]: unknown policy %q", i, *ps.Name)
		case *ps.Score < 0 || *ps.Score > 100:
			return bad("policyScores[%d]: score %v out of range", i, *ps.Score)
		}
		rec.PolicyScores = append(rec.PolicyScores, models.PolicyScore{
			Name:   models.PolicyName(*ps.Name),
			Score:  *ps.Score,
			Change: *ps.Change,
		})
	}
	return rec, nil
}

type rawAnalysis struct {
	Strategies *[]struct {
		Title       *string   `json:"title"`
		Description *string   `json:"description"`
		Pros        *[]string `json:"pros"`
		Cons        *[]string `json:"cons"`
	} `json:"strategies"`
}

// DecodeScenario parses and validates a scenario-analysis response.
func DecodeScenario(text string) (models.ScenarioAnalysis, error) {
	bad := func(format string, args ...any) (models.ScenarioAnalysis, error) {
		return models.ScenarioAnalysis{}, &MalformedError{Kind: "scenario", Reason: fmt.Sprintf(format, args...), Raw: text}
	}

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(stripFence(text)), &raw); err != nil {
		return bad("invalid JSON: %v", err)
	}
	if raw.Strategies == nil {
		return bad("missing strategies")
	}

	out := models.ScenarioAnalysis{Strategies: []models.Strategy{}}
	for i, s := range *raw.Strategies {
		if s.Title == nil || s.Description == nil || s.Pros == nil || s.Cons == nil {
			return bad("strategies[%d]: missing field", i)
		}
		out.Strategies = append(out.Strategies, models.Strategy{
			Title:       *s.Title,
			Description: *s.Description,
			Pros:        *s.Pros,
			Cons:        *s.Cons,
		})
	}
	return out, nil
}

// stripFence removes a ```json ... ``` wrapper some responses carry even in
// JSON mode.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
