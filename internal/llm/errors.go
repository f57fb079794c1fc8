package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Reason is a stable code describing why a provider call failed.
// Callers branch on the code, never on the message text.
type Reason string

const (
	ReasonTimeout     Reason = "timeout"
	ReasonMalformed   Reason = "malformed_response"
	ReasonRateLimited Reason = "rate_limited"
	ReasonAuthFailed  Reason = "auth_failed"
	ReasonUnknown     Reason = "unknown"
)

// ProviderError wraps any network or vendor failure with a reason code.
type ProviderError struct {
	Reason Reason

	// RetryAfter is the vendor-suggested wait for rate_limited, zero
	// otherwise.
	RetryAfter time.Duration

	// Content holds the offending payload for malformed_response.
	Content json.RawMessage

	Err error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider error (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("provider error (%s)", e.Reason)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is transient. Auth failures and
// malformed responses are not; malformed responses still get a single
// regeneration attempt in the retry decorator.
func (e *ProviderError) Retryable() bool {
	switch e.Reason {
	case ReasonTimeout, ReasonRateLimited, ReasonUnknown:
		return true
	default:
		return false
	}
}

// rateLimited builds a rate_limited ProviderError.
func rateLimited(err error, retryAfter time.Duration) *ProviderError {
	return &ProviderError{Reason: ReasonRateLimited, RetryAfter: retryAfter, Err: err}
}

// authFailed builds an auth_failed ProviderError.
func authFailed(err error) *ProviderError {
	return &ProviderError{Reason: ReasonAuthFailed, Err: err}
}

// malformed builds a malformed_response ProviderError carrying the
// offending payload.
func malformed(content json.RawMessage, err error) *ProviderError {
	return &ProviderError{Reason: ReasonMalformed, Content: content, Err: err}
}

// unknown builds an unknown-reason ProviderError.
func unknown(err error) *ProviderError {
	return &ProviderError{Reason: ReasonUnknown, Err: err}
}

// wrapContextErr converts context expiry into the timeout reason so a
// hung vendor surfaces uniformly.
func wrapContextErr(err error) (*ProviderError, bool) {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Reason: ReasonTimeout, Err: err}, true
	}
	return nil, false
}

// ReasonOf extracts the reason code from any error chain. Returns
// ReasonUnknown for errors that are not ProviderErrors.
func ReasonOf(err error) Reason {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Reason
	}
	return ReasonUnknown
}
