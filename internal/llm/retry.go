package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryProvider is a decorator that retries transient failures with
// exponential backoff and jitter.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
}

// WithRetry wraps a Provider with retry logic.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	return &RetryProvider{inner: p, config: cfg}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	malformedRetried := false

	for attempt := range r.config.MaxAttempts {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !r.shouldRetry(err, &malformedRetried) {
			return nil, err
		}

		// Last attempt: return the error without sleeping.
		if attempt == r.config.MaxAttempts-1 {
			break
		}

		wait := r.backoff(attempt, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	return nil, lastErr
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// shouldRetry decides whether an error is worth another attempt.
// Caller-side context errors are never retried; per-attempt timeouts
// injected by the timeout decorator arrive as ProviderError{timeout}
// and are.
func (r *RetryProvider) shouldRetry(err error, malformedRetried *bool) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		// A malformed response gets exactly one regeneration attempt.
		if pe.Reason == ReasonMalformed {
			if *malformedRetried {
				return false
			}
			*malformedRetried = true
			return true
		}
		return pe.Retryable()
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Non-provider errors (unexpected network failures) are treated as
	// transient.
	return true
}

// backoff computes the wait for the given attempt, respecting the
// vendor's Retry-After for rate limits.
func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Reason == ReasonRateLimited && pe.RetryAfter > 0 {
		return pe.RetryAfter
	}

	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	if wait > float64(r.config.MaxWait) {
		wait = float64(r.config.MaxWait)
	}

	// ±20% jitter.
	jitter := wait * 0.2 * (2*rand.Float64() - 1)
	wait += jitter

	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
