package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"call-auditor-go/internal/config"
)

// ErrTransport marks failures of the provider call itself: network, timeout,
// authentication or an unusable reply envelope.
var ErrTransport = errors.New("llm transport failure")

// Provider is a text-analysis backend: one system instruction plus one
// prompt in, one completion out.
type Provider interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	Name() string
}

func transportError(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrTransport, provider, err)
}

// New builds the configured provider. It is meant to be called once at
// startup and the result shared.
func New(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAI(cfg)
	case "gemini":
		return NewGemini(ctx, cfg)
	case "mock":
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
