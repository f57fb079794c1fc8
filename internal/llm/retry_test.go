package llm

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func TestRetry_TransientThenSuccess(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: rateLimited(nil, 0)},
		MockResponse{Err: &ProviderError{Reason: ReasonTimeout}},
		MockResponse{Content: json.RawMessage(`{"ok":true}`)},
	)
	p := WithRetry(mock, fastRetryConfig())

	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"ok":true}` {
		t.Errorf("unexpected content: %s", resp.Content)
	}
	if mock.CallCount() != 3 {
		t.Errorf("expected 3 attempts, got %d", mock.CallCount())
	}
}

func TestRetry_AuthFailureNotRetried(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: authFailed(nil)},
		MockResponse{Content: json.RawMessage(`{}`)},
	)
	p := WithRetry(mock, fastRetryConfig())

	_, err := p.Generate(context.Background(), Request{})
	if ReasonOf(err) != ReasonAuthFailed {
		t.Fatalf("expected auth_failed, got %v", err)
	}
	if mock.CallCount() != 1 {
		t.Errorf("auth failure retried: %d attempts", mock.CallCount())
	}
}

func TestRetry_MalformedGetsOneExtraAttempt(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: malformed(nil, nil)},
		MockResponse{Err: malformed(nil, nil)},
		MockResponse{Content: json.RawMessage(`{}`)},
	)
	p := WithRetry(mock, fastRetryConfig())

	_, err := p.Generate(context.Background(), Request{})
	if ReasonOf(err) != ReasonMalformed {
		t.Fatalf("expected malformed_response after second failure, got %v", err)
	}
	if mock.CallCount() != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", mock.CallCount())
	}
}

func TestRetry_CancelledContextStops(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: rateLimited(nil, 0)},
		MockResponse{Content: json.RawMessage(`{}`)},
	)
	p := WithRetry(mock, RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Minute,
		MaxWait:     time.Minute,
		Multiplier:  1.0,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Generate(ctx, Request{})
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if mock.CallCount() != 1 {
		t.Errorf("expected 1 attempt before cancellation, got %d", mock.CallCount())
	}
}

func TestTimeout_SurfacesAsProviderTimeout(t *testing.T) {
	slow := providerFunc(func(ctx context.Context, _ Request) (*Response, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
			return &Response{}, nil
		}
	})
	p := WithTimeout(slow, 5*time.Millisecond)

	_, err := p.Generate(context.Background(), Request{})
	if ReasonOf(err) != ReasonTimeout {
		t.Fatalf("expected timeout reason, got %v", err)
	}
}

// providerFunc adapts a function to the Provider interface for tests.
type providerFunc func(ctx context.Context, req Request) (*Response, error)

func (f providerFunc) Generate(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

func (f providerFunc) ModelID() string { return "func" }
