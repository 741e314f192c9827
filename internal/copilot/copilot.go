// Package copilot talks to the generative model that produces
// recommendations, scenario analyses and what-if comparisons.
package copilot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/zulandar/signalbox/internal/models"
	"google.golang.org/genai"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// generator is the subset of genai.Models used by Client, for mocking.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client is an advisor backed by the Gemini API.
type Client struct {
	gen   generator
	model string
	newID func() string
}

// Opts configures a Client.
type Opts struct {
	APIKey string
	Model  string    // defaults to DefaultModel
	Gen    generator // for testing; bypasses the real client
}

// New creates a Client. An API key is required unless Gen is provided.
func New(ctx context.Context, opts Opts) (*Client, error) {
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	gen := opts.Gen
	if gen == nil {
		if opts.APIKey == "" {
			return nil, errors.New("copilot: API key is required")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  opts.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("copilot: create client: %w", err)
		}
		gen = client.Models
	}
	return &Client{gen: gen, model: model, newID: recommendationID}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

func recommendationID() string {
	return "R-" + uuid.NewString()[:8]
}

func (c *Client) generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	var cfg *genai.GenerateContentConfig
	if schema != nil {
		cfg = &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   schema,
		}
	}
	resp, err := c.gen.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("copilot: generate content: %w", err)
	}
	if resp == nil {
		return "", errors.New("copilot: generate content: empty response")
	}
	return resp.Text(), nil
}

// Recommend asks for an action resolving alert.
func (c *Client) Recommend(ctx context.Context, trains []models.Train, tracks []models.Track, alert models.Alert) (models.AIRecommendation, error) {
	prompt, err := RecommendPrompt(trains, tracks, alert)
	if err != nil {
		return models.AIRecommendation{}, err
	}
	text, err := c.generate(ctx, prompt, recommendationSchema())
	if err != nil {
		return models.AIRecommendation{}, err
	}
	rec, err := DecodeRecommendation(text)
	if err != nil {
		return models.AIRecommendation{}, err
	}
	rec.ID = c.newID()
	rec.RelatedAlertID = alert.ID
	return rec, nil
}

// AnalyzeScenario asks for mitigation strategies for scenario.
func (c *Client) AnalyzeScenario(ctx context.Context, trains []models.Train, tracks []models.Track, scenario string) (models.ScenarioAnalysis, error) {
	prompt, err := ScenarioPrompt(trains, tracks, scenario)
	if err != nil {
		return models.ScenarioAnalysis{}, err
	}
	text, err := c.generate(ctx, prompt, scenarioSchema())
	if err != nil {
		return models.ScenarioAnalysis{}, err
	}
	return DecodeScenario(text)
}

// WhatIf asks for a short free-text comparison of query against rec.
func (c *Client) WhatIf(ctx context.Context, trains []models.Train, tracks []models.Track, alert models.Alert, rec models.AIRecommendation, query string) (string, error) {
	prompt, err := WhatIfPrompt(trains, tracks, alert, rec, query)
	if err != nil {
		return "", err
	}
	text, err := c.generate(ctx, prompt, nil)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("copilot: what-if: empty response")
	}
	return text, nil
}

// ErrOffline is returned by Static for every request.
var ErrOffline = errors.New("copilot: offline, no API key configured")

// Static is an advisor that never reaches a model. Every call fails, so the
// session falls back to its canned recommendation and failure messages.
type Static struct{}

func (Static) Recommend(context.Context, []models.Train, []models.Track, models.Alert) (models.AIRecommendation, error) {
	return models.AIRecommendation{}, ErrOffline
}

func (Static) AnalyzeScenario(context.Context, []models.Train, []models.Track, string) (models.ScenarioAnalysis, error) {
	return models.ScenarioAnalysis{}, ErrOffline
}

func (Static) WhatIf(context.Context, []models.Train, []models.Track, models.Alert, models.AIRecommendation, string) (string, error) {
	return "", ErrOffline
}
