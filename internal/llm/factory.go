package llm

import (
	"context"
	"fmt"

	"github.com/caseprep/qgate/internal/store"
)

// newBaseProvider constructs a bare provider for the named vendor.
func newBaseProvider(ctx context.Context, name string, cfg Config) (Provider, error) {
	switch name {
	case "anthropic":
		return NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		return NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		return NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		return NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	}
	return nil, fmt.Errorf("unknown LLM provider: %q", name)
}

// NewProvider builds the reviewer chain from configuration: the primary
// provider with optional different-vendor fallback, each wrapped with
// a per-call timeout, retry, and event logging.
//
// Middleware order per link: caller → fallback → retry → logging →
// timeout → base. Retry sits inside the fallback so the chain only
// advances once the primary's attempt budget is spent; the timeout sits
// innermost so every individual attempt is bounded and the failure is
// logged like any other.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo) (Provider, error) {
	primary, err := newBaseProvider(ctx, cfg.Provider, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}
	wrap := func(p Provider) Provider {
		return WithRetry(WithLogging(WithTimeout(p, cfg.Timeout), eventRepo), cfg.Retry)
	}
	chain := []Provider{wrap(primary)}

	if cfg.Fallback != "" {
		fb, err := newBaseProvider(ctx, cfg.Fallback, cfg)
		if err != nil {
			return nil, fmt.Errorf("initializing %s fallback provider: %w", cfg.Fallback, err)
		}
		chain = append(chain, wrap(fb))
	}

	return NewFallbackProvider(chain...)
}
