package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultClaudeModel is used when no model is selected.
const DefaultClaudeModel = "claude-3-haiku-20240307"

// Claude wraps the Anthropic Messages API as a Provider.
type Claude struct {
	apiKey  string
	model   string
	client  anthropic.Client
	timeout time.Duration
}

// NewClaude builds the variant; an empty model falls back to the default.
func NewClaude(apiKey, model string) *Claude {
	if model == "" {
		model = DefaultClaudeModel
	}
	return &Claude{
		apiKey:  apiKey,
		model:   model,
		client:  anthropic.NewClient(option.WithAPIKey(apiKey)),
		timeout: defaultCallTimeout,
	}
}

func (c *Claude) ID() string { return ProviderClaude }

func (c *Claude) Ready() bool { return strings.TrimSpace(c.apiKey) != "" }

func (c *Claude) Respond(ctx context.Context, message string, history []Turn) (*Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var messages []anthropic.MessageParam
	for _, turn := range recentHistory(history, historyWindow) {
		block := anthropic.NewTextBlock(turn.Content)
		if turn.Role == RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(message)))

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 500,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:  messages,
	})
	if err != nil {
		return nil, c.wrap(err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, &ProviderError{Provider: c.ID(), Reason: ReasonUnknown, Err: errors.New("empty message content")}
	}

	intent, confidence := ClassifyIntent(message)
	return &Reply{
		Text:       text.String(),
		Intent:     intent,
		Confidence: confidence,
	}, nil
}

// Probe lists models as a minimal credential check.
func (c *Claude) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if _, err := c.client.Models.List(ctx, anthropic.ModelListParams{}); err != nil {
		return c.wrap(err)
	}
	return nil
}

func (c *Claude) wrap(err error) *ProviderError {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &ProviderError{
			Provider: c.ID(),
			Reason:   classifyStatus(apiErr.StatusCode, apiErr.Error()),
			Err:      err,
		}
	}
	return &ProviderError{Provider: c.ID(), Reason: ReasonUnknown, Err: err}
}
