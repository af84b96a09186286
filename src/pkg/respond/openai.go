package respond

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"entropy/local-app/src/pkg/model"
)

// OpenAIResponder generates replies through a chat completions endpoint.
// Ollama is reached the same way through its OpenAI compatible base URL.
type OpenAIResponder struct {
	client *openai.Client
	cfg    model.LLMConfig
}

// NewOpenAIResponder builds a responder for apiKey. Extra options are passed to the client.
func NewOpenAIResponder(apiKey string, cfg model.LLMConfig, opts ...option.RequestOption) *OpenAIResponder {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAIResponder{client: &client, cfg: cfg}
}

func (r *OpenAIResponder) Respond(ctx context.Context, req Request) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+1)
	if prompt := systemPrompt(req, r.cfg); prompt != "" {
		messages = append(messages, openai.SystemMessage(prompt))
	}
	for _, msg := range req.History {
		switch msg.Role {
		case model.RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case model.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(r.cfg.Model),
		Messages:    messages,
		Temperature: openai.Float(r.cfg.Temperature),
	}
	if r.cfg.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(r.cfg.MaxTokens))
	}

	completion, err := r.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", ErrEmptyReply
	}
	return completion.Choices[0].Message.Content, nil
}
