package llm

import (
	"os"
	"time"

	"github.com/examgen/examgen/internal/exam"
)

// Config holds all provider configuration. It is built once at process
// start and passed into the factory; nothing here is read from ambient
// globals after that.
type Config struct {
	// Provider selects the provider implementation.
	// Values: "openai", "anthropic", "gemini", "yandex", "local", "mock".
	Provider string

	OpenAI    OpenAIConfig
	Anthropic AnthropicConfig
	Gemini    GeminiConfig
	Yandex    YandexConfig
	Retry     RetryConfig

	// Timeout bounds a single provider call. A call exceeding it
	// surfaces as ProviderError{timeout}. Default: 60s.
	Timeout time.Duration
}

// OpenAIConfig holds OpenAI-specific configuration. BaseURL makes the
// provider work against any OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string // Default: "claude-haiku"
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-flash"
}

// YandexConfig holds YandexGPT-specific configuration. FolderID is the
// cloud folder the model URI is scoped to.
type YandexConfig struct {
	APIKey   string
	FolderID string
	Model    string // Default: "yandexgpt-lite"
	BaseURL  string // Override for tests.
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "openai",
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		Yandex: YandexConfig{
			Model: "yandexgpt-lite",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 60 * time.Second,
	}
}

// ConfigFromEnv builds a Config from EXAMGEN_* environment variables,
// falling back to defaults for unset values. Standard vendor key vars
// (OPENAI_API_KEY, ...) are honored when the EXAMGEN_ variant is unset.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if p := os.Getenv("EXAMGEN_PROVIDER"); p != "" {
		cfg.Provider = p
	}

	cfg.OpenAI.APIKey = firstEnv("EXAMGEN_OPENAI_API_KEY", "OPENAI_API_KEY")
	if m := os.Getenv("EXAMGEN_OPENAI_MODEL"); m != "" {
		cfg.OpenAI.Model = m
	}
	if u := os.Getenv("EXAMGEN_OPENAI_BASE_URL"); u != "" {
		cfg.OpenAI.BaseURL = u
	}

	cfg.Anthropic.APIKey = firstEnv("EXAMGEN_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	if m := os.Getenv("EXAMGEN_ANTHROPIC_MODEL"); m != "" {
		cfg.Anthropic.Model = m
	}

	cfg.Gemini.APIKey = firstEnv("EXAMGEN_GEMINI_API_KEY", "GEMINI_API_KEY")
	if m := os.Getenv("EXAMGEN_GEMINI_MODEL"); m != "" {
		cfg.Gemini.Model = m
	}

	cfg.Yandex.APIKey = firstEnv("EXAMGEN_YANDEX_API_KEY", "YANDEX_CLOUD_API_KEY")
	cfg.Yandex.FolderID = firstEnv("EXAMGEN_YANDEX_FOLDER_ID", "YANDEX_FOLDER_ID")
	if m := os.Getenv("EXAMGEN_YANDEX_MODEL"); m != "" {
		cfg.Yandex.Model = m
	}

	if d := os.Getenv("EXAMGEN_LLM_TIMEOUT"); d != "" {
		if parsed, err := time.ParseDuration(d); err == nil && parsed > 0 {
			cfg.Timeout = parsed
		}
	}

	return cfg
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// Validate checks that the selected provider has its required
// credentials set.
func (c Config) Validate() error {
	switch c.Provider {
	case "openai":
		if c.OpenAI.APIKey == "" {
			return &exam.ConfigError{Msg: "EXAMGEN_OPENAI_API_KEY is required for the openai provider"}
		}
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return &exam.ConfigError{Msg: "EXAMGEN_ANTHROPIC_API_KEY is required for the anthropic provider"}
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return &exam.ConfigError{Msg: "EXAMGEN_GEMINI_API_KEY is required for the gemini provider"}
		}
	case "yandex":
		if c.Yandex.APIKey == "" {
			return &exam.ConfigError{Msg: "EXAMGEN_YANDEX_API_KEY is required for the yandex provider"}
		}
		if c.Yandex.FolderID == "" {
			return &exam.ConfigError{Msg: "EXAMGEN_YANDEX_FOLDER_ID is required for the yandex provider"}
		}
	case "local", "mock":
		// No credentials needed.
	default:
		return &exam.ConfigError{Msg: "unknown LLM provider: " + c.Provider}
	}
	return nil
}
