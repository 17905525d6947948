package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when no model is selected.
const DefaultOpenAIModel = "gpt-3.5-turbo"

// OpenAI wraps the OpenAI chat-completions API as a Provider.
type OpenAI struct {
	apiKey  string
	model   string
	client  *openai.Client
	timeout time.Duration
}

// NewOpenAI builds the variant; an empty model falls back to the default.
func NewOpenAI(apiKey, model string) *OpenAI {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{
		apiKey:  apiKey,
		model:   model,
		client:  openai.NewClient(apiKey),
		timeout: defaultCallTimeout,
	}
}

func (o *OpenAI) ID() string { return ProviderOpenAI }

func (o *OpenAI) Ready() bool { return strings.TrimSpace(o.apiKey) != "" }

func (o *OpenAI) Respond(ctx context.Context, message string, history []Turn) (*Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
	}
	for _, turn := range recentHistory(history, historyWindow) {
		role := openai.ChatMessageRoleUser
		if turn.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: message})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		MaxTokens:   500,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, o.wrap(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &ProviderError{Provider: o.ID(), Reason: ReasonUnknown, Err: errors.New("empty completion")}
	}

	intent, confidence := ClassifyIntent(message)
	return &Reply{
		Text:       resp.Choices[0].Message.Content,
		Intent:     intent,
		Confidence: confidence,
	}, nil
}

// Probe lists models as a minimal credential check.
func (o *OpenAI) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	if _, err := o.client.ListModels(ctx); err != nil {
		return o.wrap(err)
	}
	return nil
}

func (o *OpenAI) wrap(err error) *ProviderError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{
			Provider: o.ID(),
			Reason:   classifyStatus(apiErr.HTTPStatusCode, apiErr.Message),
			Err:      err,
		}
	}
	return &ProviderError{Provider: o.ID(), Reason: ReasonUnknown, Err: err}
}
