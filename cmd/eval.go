package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/examgen/examgen/internal/eval"
	"github.com/examgen/examgen/internal/grader"
	"github.com/examgen/examgen/internal/llm"
)

var evalCmd = &cobra.Command{
	Use:   "eval <exam-id>",
	Short: "Benchmark models against a stored exam",
	Long: "Each --target (provider or provider:model) answers every question of\n" +
		"the exam; answers are graded and a per-model report is written to the\n" +
		"results directory. Open-ended answers are judged by the provider\n" +
		"selected with --provider.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := setupLogger(cmd)

		targetSpecs, _ := cmd.Flags().GetStringSlice("target")
		if len(targetSpecs) == 0 {
			return fmt.Errorf("at least one --target is required")
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		e, err := s.LoadExam(args[0])
		if err != nil {
			return err
		}

		judgeCfg, err := llmConfig(cmd)
		if err != nil {
			return err
		}
		judgeProvider, err := llm.NewProvider(cmd.Context(), judgeCfg, log)
		if err != nil {
			return err
		}
		judge := grader.New(judgeProvider, grader.DefaultConfig(), log)

		var targets []eval.Target
		for _, spec := range targetSpecs {
			cfg, providerID, err := targetConfig(spec)
			if err != nil {
				return err
			}
			candidate, err := llm.NewProvider(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			targets = append(targets, eval.Target{
				ProviderID: providerID,
				Evaluator:  eval.New(candidate, providerID, judge, eval.DefaultConfig(), log),
			})
		}

		reports := eval.Compare(cmd.Context(), e, targets, log)
		if len(reports) == 0 {
			return fmt.Errorf("every evaluation target failed")
		}

		stamp := time.Now().UTC().Format("20060102-150405")
		for _, report := range reports {
			name := fmt.Sprintf("eval-%s-%s-%s", report.Provider, sanitizeModel(report.Model), stamp)
			path, err := s.SaveResult(name, report)
			if err != nil {
				return err
			}
			log.Info().
				Str("provider", report.Provider).
				Str("model", report.Model).
				Float64("accuracy", report.Accuracy).
				Str("path", path).
				Msg("evaluation report written")
			fmt.Printf("%s/%s\taccuracy %.2f\t(%d/%d)\n",
				report.Provider, report.Model, report.Accuracy, report.Correct, report.Total)
		}
		return nil
	},
}

func init() {
	evalCmd.Flags().StringSlice("target", nil, "Provider or provider:model to benchmark (repeatable)")
}

// targetConfig builds a provider config for one "provider[:model]"
// target spec.
func targetConfig(spec string) (llm.Config, string, error) {
	providerID, model, _ := strings.Cut(spec, ":")
	if providerID == "" {
		return llm.Config{}, "", fmt.Errorf("invalid target %q", spec)
	}

	cfg := llm.ConfigFromEnv()
	cfg.Provider = providerID
	if model != "" {
		switch providerID {
		case "openai":
			cfg.OpenAI.Model = model
		case "anthropic":
			cfg.Anthropic.Model = model
		case "gemini":
			cfg.Gemini.Model = model
		case "yandex":
			cfg.Yandex.Model = model
		}
	}
	if err := cfg.Validate(); err != nil {
		return llm.Config{}, "", err
	}
	return cfg, providerID, nil
}

func sanitizeModel(model string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '-'
		}
		return r
	}, model)
}
