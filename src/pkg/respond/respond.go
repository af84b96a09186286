// Package respond produces assistant replies for a conversation.
package respond

import (
	"context"
	"errors"
	"strings"
	"time"

	"entropy/local-app/src/pkg/log"
	"entropy/local-app/src/pkg/model"
)

// ErrEmptyReply is returned when a backend answers with no text.
var ErrEmptyReply = errors.New("empty reply")

// Request is the input for one reply.
type Request struct {
	History      []model.Message
	SystemPrompt string
}

// LastUserMessage returns the content of the most recent user message.
func (r Request) LastUserMessage() string {
	for i := len(r.History) - 1; i >= 0; i-- {
		if r.History[i].Role == model.RoleUser {
			return r.History[i].Content
		}
	}
	return ""
}

// Responder generates the assistant reply for a conversation.
type Responder interface {
	Respond(ctx context.Context, req Request) (string, error)
}

// ResponderFunc adapts a function to the Responder interface.
type ResponderFunc func(ctx context.Context, req Request) (string, error)

func (f ResponderFunc) Respond(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Keys holds provider credentials.
type Keys struct {
	Anthropic string
	OpenAI    string
}

// New picks the responder for cfg. Providers without credentials fall back to
// the template responder so the app stays usable offline.
func New(cfg model.LLMConfig, keys Keys, delay time.Duration, logger *log.Logger) Responder {
	ctx := context.Background()
	switch cfg.Provider {
	case model.ProviderAnthropic:
		if strings.TrimSpace(keys.Anthropic) != "" {
			logger.Info(ctx, "Using Anthropic responder", log.Fields{"model": cfg.Model})
			return NewAnthropicResponder(keys.Anthropic, cfg)
		}
	case model.ProviderOpenAI:
		if strings.TrimSpace(keys.OpenAI) != "" {
			logger.Info(ctx, "Using OpenAI responder", log.Fields{"model": cfg.Model})
			return NewOpenAIResponder(keys.OpenAI, cfg)
		}
	case model.ProviderOllama:
		if cfg.BaseURL != "" {
			logger.Info(ctx, "Using Ollama responder", log.Fields{"model": cfg.Model, "base_url": cfg.BaseURL})
			return NewOpenAIResponder("ollama", cfg)
		}
	}
	logger.Warn(ctx, "No credentials for provider, using template replies", log.Fields{"provider": string(cfg.Provider)})
	return NewTemplateResponder(delay)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
