package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is selected.
const DefaultGeminiModel = "gemini-1.5-flash"

// Gemini wraps the Google Gemini API as a Provider. The genai client needs a
// context to construct, so it is built per call rather than at selection time.
type Gemini struct {
	apiKey  string
	model   string
	timeout time.Duration
}

// NewGemini builds the variant; an empty model falls back to the default.
func NewGemini(apiKey, model string) *Gemini {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{
		apiKey:  apiKey,
		model:   model,
		timeout: defaultCallTimeout,
	}
}

func (g *Gemini) ID() string { return ProviderGemini }

func (g *Gemini) Ready() bool { return strings.TrimSpace(g.apiKey) != "" }

func (g *Gemini) Respond(ctx context.Context, message string, history []Turn) (*Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, g.wrap(err)
	}

	var contents []*genai.Content
	for _, turn := range recentHistory(history, historyWindow) {
		var role genai.Role = genai.RoleUser
		if turn.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		MaxOutputTokens:   500,
		Temperature:       genai.Ptr[float32](0.7),
	})
	if err != nil {
		return nil, g.wrap(err)
	}

	text := resp.Text()
	if text == "" {
		return nil, &ProviderError{Provider: g.ID(), Reason: ReasonUnknown, Err: errors.New("empty generation")}
	}

	intent, confidence := ClassifyIntent(message)
	return &Reply{
		Text:       text,
		Intent:     intent,
		Confidence: confidence,
	}, nil
}

// Probe issues a one-token generation as a minimal credential check.
func (g *Gemini) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return g.wrap(err)
	}
	_, err = client.Models.GenerateContent(ctx, g.model,
		genai.Text("ping"),
		&genai.GenerateContentConfig{MaxOutputTokens: 1},
	)
	if err != nil {
		return g.wrap(err)
	}
	return nil
}

func (g *Gemini) wrap(err error) *ProviderError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{
			Provider: g.ID(),
			Reason:   classifyStatus(apiErr.Code, apiErr.Message),
			Err:      err,
		}
	}
	return &ProviderError{Provider: g.ID(), Reason: ReasonUnknown, Err: err}
}
