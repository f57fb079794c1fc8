package cmd

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/examgen/examgen/internal/llm"
	"github.com/examgen/examgen/internal/logger"
	"github.com/examgen/examgen/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "examgen",
	Short: "Generate and grade exams from Markdown sources",
	Long: "Examgen turns Markdown study material into exams via an LLM provider,\n" +
		"grades submitted answers with partial credit, and benchmarks models\n" +
		"against persisted exams.",
	SilenceUsage: true,
}

func Execute() error {
	// .env is optional; real env vars win over it.
	_ = godotenv.Load()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("data-dir", "", "Data directory for exams, grades and results (default ./data)")
	rootCmd.PersistentFlags().String("provider", "", "LLM provider: openai, anthropic, gemini, yandex, local (overrides EXAMGEN_PROVIDER)")
	rootCmd.PersistentFlags().String("model", "", "Model name for the selected provider")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "pretty", "Log format: pretty or json")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(gradeCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(versionCmd)
}

func setupLogger(cmd *cobra.Command) zerolog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	return logger.Setup(level, format)
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg := store.DefaultConfig()
	if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
		cfg.DataDir = dir
	}
	return store.Open(cfg)
}

// llmConfig builds the provider configuration from the environment with
// the --provider and --model flags layered on top.
func llmConfig(cmd *cobra.Command) (llm.Config, error) {
	cfg := llm.ConfigFromEnv()
	if p, _ := cmd.Flags().GetString("provider"); p != "" {
		cfg.Provider = p
	}
	if m, _ := cmd.Flags().GetString("model"); m != "" {
		switch cfg.Provider {
		case "openai":
			cfg.OpenAI.Model = m
		case "anthropic":
			cfg.Anthropic.Model = m
		case "gemini":
			cfg.Gemini.Model = m
		case "yandex":
			cfg.Yandex.Model = m
		}
	}
	if err := cfg.Validate(); err != nil {
		return llm.Config{}, err
	}
	return cfg, nil
}
