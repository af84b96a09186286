package respond

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"entropy/local-app/src/pkg/model"
)

// AnthropicResponder generates replies through the Anthropic Messages API.
type AnthropicResponder struct {
	client *anthropic.Client
	cfg    model.LLMConfig
}

// NewAnthropicResponder builds a responder for apiKey. Extra options are passed to the client.
func NewAnthropicResponder(apiKey string, cfg model.LLMConfig, opts ...option.RequestOption) *AnthropicResponder {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)
	return &AnthropicResponder{client: &client, cfg: cfg}
}

func (r *AnthropicResponder) Respond(ctx context.Context, req Request) (string, error) {
	messages := make([]anthropic.MessageParam, 0, len(req.History))
	for _, msg := range req.History {
		switch msg.Role {
		case model.RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case model.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	maxTokens := r.cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = model.DefaultMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(r.cfg.Model),
		MaxTokens:   int64(maxTokens),
		Messages:    messages,
		Temperature: anthropic.Float(r.cfg.Temperature),
	}
	if prompt := systemPrompt(req, r.cfg); prompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: prompt}}
	}

	message, err := r.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		sb.WriteString(block.Text)
	}
	if sb.Len() == 0 {
		return "", ErrEmptyReply
	}
	return sb.String(), nil
}

func systemPrompt(req Request, cfg model.LLMConfig) string {
	if req.SystemPrompt != "" {
		return req.SystemPrompt
	}
	return cfg.SystemPrompt
}
