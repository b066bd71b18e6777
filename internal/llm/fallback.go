package llm

import (
	"context"
	"errors"
	"fmt"
)

// FallbackProvider tries an ordered chain of providers, moving to the
// next only after the current one has definitively failed. Providers
// are never raced in parallel: a duplicate success would double-bill.
type FallbackProvider struct {
	chain []Provider
}

// NewFallbackProvider builds a chain from the given providers, tried
// in order. At least one provider is required.
func NewFallbackProvider(providers ...Provider) (*FallbackProvider, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("fallback chain needs at least one provider")
	}
	return &FallbackProvider{chain: providers}, nil
}

func (f *FallbackProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	var errs []error
	for _, p := range f.chain {
		resp, err := p.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		// Context cancellation stops the chain: the caller gave up.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if ctx.Err() != nil {
				return nil, err
			}
			// A per-call timeout inside the provider counts as a hard
			// failure; the next provider still gets its chance.
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.ModelID(), err))
	}
	return nil, &ErrProviderUnavailable{
		Err: fmt.Errorf("all providers exhausted: %w", errors.Join(errs...)),
	}
}

// ModelID reports the primary provider's model.
func (f *FallbackProvider) ModelID() string {
	return f.chain[0].ModelID()
}
