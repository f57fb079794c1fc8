package llm

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LoggingProvider is a decorator that emits a structured log line for
// every provider call.
type LoggingProvider struct {
	inner  Provider
	logger zerolog.Logger
}

// WithLogging wraps a Provider with request logging.
func WithLogging(p Provider, logger zerolog.Logger) Provider {
	return &LoggingProvider{inner: p, logger: logger}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	resp, err := l.inner.Generate(ctx, req)

	evt := l.logger.Info()
	if err != nil {
		evt = l.logger.Warn().Str("reason", string(ReasonOf(err))).Err(err)
	}
	evt = evt.
		Str("model", l.inner.ModelID()).
		Str("purpose", PurposeFrom(ctx)).
		Dur("latency", time.Since(start))

	if resp != nil {
		evt = evt.
			Int("input_tokens", resp.Usage.InputTokens).
			Int("output_tokens", resp.Usage.OutputTokens).
			Str("stop_reason", resp.StopReason)
	}
	if req.Schema != nil {
		evt = evt.Str("schema", req.Schema.Name)
	}

	evt.Msg("llm request")
	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}
