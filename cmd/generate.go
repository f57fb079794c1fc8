package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/examgen/examgen/internal/exam"
	"github.com/examgen/examgen/internal/llm"
	"github.com/examgen/examgen/internal/questiongen"
)

var generateCmd = &cobra.Command{
	Use:   "generate <markdown-file>",
	Short: "Generate an exam from a Markdown file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := setupLogger(cmd)

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read source file: %w", err)
		}
		fileID := filepath.Base(args[0])

		examCfg, err := examConfigFromFlags(cmd)
		if err != nil {
			return err
		}

		llmCfg, err := llmConfig(cmd)
		if err != nil {
			return err
		}
		examCfg.Provider = llmCfg.Provider

		provider, err := llm.NewProvider(cmd.Context(), llmCfg, log)
		if err != nil {
			return err
		}

		genCfg := questiongen.DefaultConfig()
		if strict, _ := cmd.Flags().GetBool("strict-grounding"); strict {
			genCfg.Grounding = questiongen.GroundingStrict
		}

		gen := questiongen.New(provider, genCfg, log)
		e, err := gen.Generate(cmd.Context(), string(raw), fileID, examCfg)
		if err != nil {
			return err
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		id, err := s.SaveExam(e)
		if err != nil {
			return err
		}

		log.Info().
			Str("exam_id", id).
			Int("questions", len(e.Questions)).
			Int("requested", e.ConfigUsed.TotalQuestions).
			Msg("exam generated")
		fmt.Println(id)
		return nil
	},
}

func init() {
	generateCmd.Flags().Int("total", 20, "Total number of questions to generate")
	generateCmd.Flags().Int("single", -1, "Explicit count of single-choice questions")
	generateCmd.Flags().Int("multiple", -1, "Explicit count of multiple-choice questions")
	generateCmd.Flags().Int("open", -1, "Explicit count of open-ended questions")
	generateCmd.Flags().String("difficulty", "mixed", "Difficulty policy: easy, medium, hard, mixed")
	generateCmd.Flags().String("language", "en", "Question language, e.g. en or ru")
	generateCmd.Flags().Int64("seed", 0, "Seed for reproducible generation")
	generateCmd.Flags().Bool("strict-grounding", false, "Reject weakly grounded candidates instead of logging them")
}

func examConfigFromFlags(cmd *cobra.Command) (exam.Config, error) {
	cfg := exam.DefaultConfig()
	cfg.TotalQuestions, _ = cmd.Flags().GetInt("total")

	difficulty, _ := cmd.Flags().GetString("difficulty")
	cfg.Difficulty = exam.Difficulty(difficulty)
	cfg.Language, _ = cmd.Flags().GetString("language")
	cfg.ModelName, _ = cmd.Flags().GetString("model")

	counts := map[exam.QuestionType]int{}
	for flag, qType := range map[string]exam.QuestionType{
		"single":   exam.SingleChoice,
		"multiple": exam.MultipleChoice,
		"open":     exam.OpenEnded,
	} {
		if n, _ := cmd.Flags().GetInt(flag); n >= 0 {
			counts[qType] = n
		}
	}
	if len(counts) > 0 {
		cfg.Counts = counts
	}

	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetInt64("seed")
		cfg.Seed = &seed
	}
	return cfg, nil
}
