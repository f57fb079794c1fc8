package llm

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/examgen/examgen/internal/exam"
)

// NewProvider creates a Provider from configuration. Network providers
// come back wrapped with per-call timeout, request logging, and retry
// middleware; the local stub and the mock are returned bare since they
// never touch the network. An unknown identifier is the caller's fault
// and fails with exam.ConfigError.
func NewProvider(ctx context.Context, cfg Config, logger zerolog.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "yandex":
		base, err = NewYandexProvider(cfg.Yandex)
	case "local":
		return NewLocalProvider(), nil
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, &exam.ConfigError{Msg: "unknown LLM provider: " + cfg.Provider}
	}
	if err != nil {
		return nil, err
	}

	// Middleware order: caller -> retry -> logging -> timeout -> base,
	// so every attempt gets its own deadline and its own log line.
	timed := WithTimeout(base, cfg.Timeout)
	logged := WithLogging(timed, logger)
	return WithRetry(logged, cfg.Retry), nil
}
