// Package eval benchmarks models against persisted exams: a candidate
// model answers every question, the answers are graded, and the outcome
// is collected into a ModelReport. Running several targets over the
// same exam gives a like-for-like quality comparison.
package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/examgen/examgen/internal/exam"
	"github.com/examgen/examgen/internal/grader"
	"github.com/examgen/examgen/internal/llm"
)

// AnswerSchema is the JSON schema every model-answer response must
// conform to. Choice questions populate choice, open-ended ones
// text_answer.
var AnswerSchema = &llm.Schema{
	Name:        "model-answer",
	Description: "A model's answer to one exam question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"choice": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "integer"},
				"description": "Zero-based indices of the selected options. Empty for open-ended questions.",
			},
			"text_answer": map[string]any{
				"type":        "string",
				"description": "Free-text answer for open-ended questions. Empty string for choice questions.",
			},
		},
		"required":             []any{"choice", "text_answer"},
		"additionalProperties": false,
	},
}

const answerSystemPrompt = `You are a student taking an exam.
Answer the question using only the information in the question itself.
For choice questions return the zero-based indices of the options you select.
For open-ended questions return a concise text answer.`

// Config controls answer collection.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the standard evaluation configuration.
func DefaultConfig() Config {
	return Config{MaxTokens: 512, Temperature: 0}
}

// QuestionOutcome is one row of a ModelReport.
type QuestionOutcome struct {
	QuestionID    string            `json:"question_id"`
	Type          exam.QuestionType `json:"type"`
	Given         []int             `json:"given,omitempty"`
	GivenText     string            `json:"given_text,omitempty"`
	IsCorrect     bool              `json:"is_correct"`
	PartialCredit float64           `json:"partial_credit"`
	Err           string            `json:"error,omitempty"`
}

// ModelReport is the persisted result of evaluating one model against
// one exam.
type ModelReport struct {
	Provider    string            `json:"provider"`
	Model       string            `json:"model"`
	ExamID      string            `json:"exam_id"`
	Total       int               `json:"total"`
	Correct     int               `json:"correct"`
	Accuracy    float64           `json:"accuracy"`
	PerQuestion []QuestionOutcome `json:"per_question"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// Evaluator runs one candidate model over exams. The grader may use a
// different provider than the candidate, so a strong model can judge a
// weak one's open-ended answers.
type Evaluator struct {
	candidate  llm.Provider
	providerID string
	grader     *grader.Grader
	config     Config
	logger     zerolog.Logger
}

// New creates an Evaluator for one candidate model. providerID is the
// factory identifier the candidate was built from, recorded in reports.
func New(candidate llm.Provider, providerID string, g *grader.Grader, cfg Config, logger zerolog.Logger) *Evaluator {
	return &Evaluator{
		candidate:  candidate,
		providerID: providerID,
		grader:     g,
		config:     cfg,
		logger:     logger,
	}
}

// Run has the candidate answer every question of e, grades the
// collected answers, and returns the report. A provider failure on one
// question marks that row and the run continues; Run fails only when
// the candidate answered nothing at all.
func (ev *Evaluator) Run(ctx context.Context, e *exam.Exam) (*ModelReport, error) {
	report := &ModelReport{
		Provider:    ev.providerID,
		Model:       ev.candidate.ModelID(),
		ExamID:      e.ExamID,
		GeneratedAt: time.Now().UTC(),
	}

	var answers []exam.StudentAnswer
	failed := map[string]string{}
	for _, q := range e.Questions {
		ans, err := ev.answerOne(ctx, &q)
		if err != nil {
			ev.logger.Warn().Err(err).
				Str("question_id", q.ID).
				Str("model", report.Model).
				Msg("candidate failed to answer")
			failed[q.ID] = string(llm.ReasonOf(err))
			continue
		}
		answers = append(answers, ans)
	}

	graded := map[string]exam.QuestionResult{}
	if len(answers) > 0 {
		resp, err := ev.grader.Grade(ctx, e, answers)
		if err != nil {
			return nil, fmt.Errorf("grade candidate answers: %w", err)
		}
		for _, r := range resp.PerQuestion {
			graded[r.QuestionID] = r
		}
	} else {
		return nil, fmt.Errorf("model %s answered no questions of exam %s", report.Model, e.ExamID)
	}

	for _, q := range e.Questions {
		row := QuestionOutcome{QuestionID: q.ID, Type: q.Type}
		if reason, ok := failed[q.ID]; ok {
			row.Err = reason
		} else if r, ok := graded[q.ID]; ok {
			row.Given = r.Given
			row.GivenText = r.GivenText
			row.IsCorrect = r.IsCorrect
			row.PartialCredit = r.PartialCredit
			row.Err = r.Err
			report.Total++
			if r.IsCorrect {
				report.Correct++
			}
		}
		report.PerQuestion = append(report.PerQuestion, row)
	}

	if report.Total > 0 {
		report.Accuracy = float64(report.Correct) / float64(report.Total)
	}
	return report, nil
}

type answerOutput struct {
	Choice     []int  `json:"choice"`
	TextAnswer string `json:"text_answer"`
}

func (ev *Evaluator) answerOne(ctx context.Context, q *exam.Question) (exam.StudentAnswer, error) {
	ctx = llm.WithPurpose(ctx, "model-answer")
	resp, err := ev.candidate.Generate(ctx, llm.Request{
		System: answerSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildAnswerMessage(q)},
		},
		Schema:      AnswerSchema,
		MaxTokens:   ev.config.MaxTokens,
		Temperature: ev.config.Temperature,
	})
	if err != nil {
		return exam.StudentAnswer{}, err
	}

	var out answerOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return exam.StudentAnswer{}, fmt.Errorf("parse model answer: %w", err)
	}

	ans := exam.StudentAnswer{QuestionID: q.ID}
	if q.IsChoice() {
		ans.Choice = out.Choice
	} else {
		ans.TextAnswer = out.TextAnswer
	}
	return ans, nil
}

func buildAnswerMessage(q *exam.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question:\n%s\n", q.Stem)
	if q.IsChoice() {
		b.WriteString("\nOptions:\n")
		for i, opt := range q.Options {
			fmt.Fprintf(&b, "%d. %s\n", i, opt)
		}
		if q.Type == exam.MultipleChoice {
			b.WriteString("\nSelect every option that applies.\n")
		} else {
			b.WriteString("\nSelect exactly one option.\n")
		}
	}
	return b.String()
}

// Target names one provider/model pair for a comparative run.
type Target struct {
	ProviderID string
	Evaluator  *Evaluator
}

// Compare runs every target over e. A failing target is logged and
// skipped; the surviving reports are returned in target order.
func Compare(ctx context.Context, e *exam.Exam, targets []Target, logger zerolog.Logger) []*ModelReport {
	var reports []*ModelReport
	for _, tgt := range targets {
		report, err := tgt.Evaluator.Run(ctx, e)
		if err != nil {
			logger.Error().Err(err).
				Str("provider", tgt.ProviderID).
				Msg("evaluation target failed")
			continue
		}
		reports = append(reports, report)
	}
	return reports
}
