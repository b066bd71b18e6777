package llm

import (
	"context"
	"fmt"
	"time"
)

// TimeoutProvider is a decorator that bounds each call with a
// deadline. Expiry is reported as ErrProviderUnavailable so the
// fallback chain advances instead of the batch hanging on one slow
// provider.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout wraps a Provider with a per-call deadline. A
// non-positive timeout disables the bound.
func WithTimeout(p Provider, timeout time.Duration) Provider {
	return &TimeoutProvider{inner: p, timeout: timeout}
}

func (t *TimeoutProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	if t.timeout <= 0 {
		return t.inner.Complete(ctx, req)
	}

	tctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.inner.Complete(tctx, req)
	if err != nil && tctx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		// Our deadline, not the caller's: a hard provider failure.
		return nil, &ErrProviderUnavailable{
			Err: fmt.Errorf("call exceeded %s timeout: %w", t.timeout, err),
		}
	}
	return resp, err
}

func (t *TimeoutProvider) ModelID() string {
	return t.inner.ModelID()
}
