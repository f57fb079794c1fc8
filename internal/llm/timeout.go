package llm

import (
	"context"
	"errors"
	"time"
)

// TimeoutProvider is a decorator that bounds every call with a deadline
// so a hung vendor never hangs a generation or grading request.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout wraps a Provider with a per-call timeout.
func WithTimeout(p Provider, timeout time.Duration) Provider {
	return &TimeoutProvider{inner: p, timeout: timeout}
}

func (t *TimeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if t.timeout <= 0 {
		return t.inner.Generate(ctx, req)
	}

	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.inner.Generate(callCtx, req)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		// Our deadline fired, not the caller's.
		var pe *ProviderError
		if errors.As(err, &pe) && pe.Reason == ReasonTimeout {
			return nil, err
		}
		return nil, &ProviderError{Reason: ReasonTimeout, Err: err}
	}
	return resp, err
}

func (t *TimeoutProvider) ModelID() string {
	return t.inner.ModelID()
}
