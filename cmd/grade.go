package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/examgen/examgen/internal/exam"
	"github.com/examgen/examgen/internal/grader"
	"github.com/examgen/examgen/internal/llm"
)

var gradeCmd = &cobra.Command{
	Use:   "grade <exam-id>",
	Short: "Grade submitted answers against a stored exam",
	Long: "Reads a JSON array of answers ({question_id, choice | text_answer})\n" +
		"from --answers, scores it against the stored exam, persists the grade,\n" +
		"and prints the grade artifact to stdout.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := setupLogger(cmd)

		answersPath, _ := cmd.Flags().GetString("answers")
		raw, err := os.ReadFile(answersPath)
		if err != nil {
			return fmt.Errorf("read answers file: %w", err)
		}
		var answers []exam.StudentAnswer
		if err := json.Unmarshal(raw, &answers); err != nil {
			return fmt.Errorf("parse answers file: %w", err)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		e, err := s.LoadExam(args[0])
		if err != nil {
			return err
		}

		llmCfg, err := llmConfig(cmd)
		if err != nil {
			return err
		}
		provider, err := llm.NewProvider(cmd.Context(), llmCfg, log)
		if err != nil {
			return err
		}

		gradeCfg := grader.DefaultConfig()
		if off, _ := cmd.Flags().GetBool("no-partial-credit"); off {
			gradeCfg.PartialCredit = false
		}

		g := grader.New(provider, gradeCfg, log)
		resp, err := g.Grade(cmd.Context(), e, answers)
		if err != nil {
			return err
		}

		id, err := s.SaveGrade(resp)
		if err != nil {
			return err
		}

		log.Info().
			Str("grade_id", id).
			Str("exam_id", e.ExamID).
			Int("total", resp.Summary.Total).
			Int("correct", resp.Summary.Correct).
			Float64("score_percent", resp.Summary.ScorePercent).
			Msg("grading complete")

		out, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	gradeCmd.Flags().String("answers", "", "Path to the JSON answers file (required)")
	gradeCmd.Flags().Bool("no-partial-credit", false, "Score multiple-choice questions all or nothing")
	_ = gradeCmd.MarkFlagRequired("answers")
}
