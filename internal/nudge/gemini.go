package nudge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	coinmath "github.com/drakos74/impulse/internal/math"
	"github.com/drakos74/impulse/internal/model"
)

const (
	// DefaultGeminiURL is the base url of the generative language api.
	DefaultGeminiURL = "https://generativelanguage.googleapis.com/v1beta"
	// DefaultGeminiModel is the default model used for generating nudges.
	DefaultGeminiModel = "gemini-1.5-flash"
	// defaultConfidence is assigned to generated nudges without a confidence.
	defaultConfidence = 0.7
)

// ErrUnavailable is returned when the generator cannot produce nudges.
var ErrUnavailable = errors.New("nudge generator unavailable")

// Generator produces nudges from an aggregate summary.
type Generator interface {
	Generate(ctx context.Context, summary model.Summary) ([]model.Nudge, error)
}

const schema = `Return a JSON array of 3 to 5 behavioural nudges. Each nudge must have exactly:
- "title": string, short headline
- "message": string, one or two sentences
- "why_this": string, why this nudge is suggested
- "action_step": string, one concrete action
- "confidence": number between 0 and 1

Base suggestions only on the aggregated metrics and drivers provided. Do not invent data.`

var jsonArray = regexp.MustCompile(`(?s)\[.*\]`)

// Gemini generates nudges with the gemini generateContent api.
type Gemini struct {
	url    string
	apiKey string
	model  string
	client *http.Client
}

// NewGemini creates a new gemini generator.
func NewGemini(apiKey string, name string) *Gemini {
	if name == "" {
		name = DefaultGeminiModel
	}
	return &Gemini{
		url:    DefaultGeminiURL,
		apiKey: apiKey,
		model:  name,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithURL overrides the base url of the api.
func (g *Gemini) WithURL(url string) *Gemini {
	g.url = strings.TrimSuffix(url, "/")
	return g
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate asks the model for nudges based on the summary.
func (g *Gemini) Generate(ctx context.Context, summary model.Summary) ([]model.Nudge, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("%w: no api key", ErrUnavailable)
	}
	prompt, err := Prompt(summary)
	if err != nil {
		return nil, fmt.Errorf("could not create prompt: %w", err)
	}
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("could not encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.url, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not call generator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("could not decode response: %w", err)
	}

	var text strings.Builder
	for _, c := range result.Candidates {
		for _, p := range c.Content.Parts {
			text.WriteString(p.Text)
		}
	}
	return Parse(text.String())
}

// Prompt renders the instruction for the summary.
func Prompt(summary model.Summary) (string, error) {
	metrics, err := json.Marshal(summary.Metrics)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`You are a behavioural nudge assistant for spending behaviour. Do not diagnose or treat any condition.

Aggregated metrics (no raw data):
- Risk score: %d (band: %s)
- Profile: %s
- Top drivers: %s
- Metrics: %s

%s
Output only the JSON array, no other text.`,
		summary.Score, summary.Band, summary.Profile,
		strings.Join(summary.TopDrivers, ", "), metrics, schema), nil
}

type generated struct {
	Title      string   `json:"title"`
	Message    string   `json:"message"`
	WhyThis    string   `json:"why_this"`
	ActionStep string   `json:"action_step"`
	Confidence *float64 `json:"confidence"`
}

// Parse extracts the nudges from the model output.
// Entries without a title or a message are skipped.
func Parse(text string) ([]model.Nudge, error) {
	match := jsonArray.FindString(text)
	if match == "" {
		return nil, fmt.Errorf("%w: no json array in response", ErrUnavailable)
	}
	var entries []generated
	if err := json.Unmarshal([]byte(match), &entries); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrUnavailable, err)
	}
	nudges := make([]model.Nudge, 0, MaxNudges)
	for _, e := range entries {
		if len(nudges) == MaxNudges {
			break
		}
		if strings.TrimSpace(e.Title) == "" || strings.TrimSpace(e.Message) == "" {
			continue
		}
		confidence := defaultConfidence
		if e.Confidence != nil {
			confidence = coinmath.Clip(*e.Confidence)
		}
		nudges = append(nudges, model.Nudge{
			Title:      e.Title,
			Message:    e.Message,
			WhyThis:    e.WhyThis,
			ActionStep: e.ActionStep,
			Confidence: confidence,
		})
	}
	if len(nudges) == 0 {
		return nil, fmt.Errorf("%w: no usable nudges", ErrUnavailable)
	}
	return nudges, nil
}
