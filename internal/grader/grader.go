// Package grader scores submitted answers against a persisted exam.
// Choice questions are scored locally; open-ended ones are delegated to
// the LLM provider with the question's reference answer and rubric.
package grader

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/examgen/examgen/internal/exam"
	"github.com/examgen/examgen/internal/llm"
)

// Config controls a grading run.
type Config struct {
	// PartialCredit awards fractional credit for partially correct
	// multiple-choice answers. When off, multiple choice is all or
	// nothing.
	PartialCredit bool

	// PassThreshold is the open-ended score at or above which an answer
	// counts as correct.
	PassThreshold float64

	// MaxTokens is the token budget for open-ended scoring responses.
	MaxTokens int

	// Temperature for open-ended scoring calls. Kept at zero so rubric
	// scores are as stable as the provider allows.
	Temperature float64
}

// DefaultConfig returns the standard grading configuration.
func DefaultConfig() Config {
	return Config{
		PartialCredit: true,
		PassThreshold: 0.7,
		MaxTokens:     512,
		Temperature:   0,
	}
}

// Grader scores answer submissions. It never mutates the exam, so
// concurrent grading runs over the same exam are safe.
type Grader struct {
	provider llm.Provider
	config   Config
	logger   zerolog.Logger
}

// New creates a Grader using the given provider and config.
func New(provider llm.Provider, cfg Config, logger zerolog.Logger) *Grader {
	return &Grader{provider: provider, config: cfg, logger: logger}
}

// Grade scores the submitted answers against e. Questions the student
// did not answer are excluded from the per-question list and the
// summary. A provider failure while scoring one open-ended answer marks
// that result with an error reason code; the rest of the run still
// completes.
//
// Grade returns a ValidationError when answers is empty, references a
// question id not in the exam, or supplies the wrong answer field for a
// question's type.
func (g *Grader) Grade(ctx context.Context, e *exam.Exam, answers []exam.StudentAnswer) (*exam.GradeResponse, error) {
	if len(answers) == 0 {
		return nil, &exam.ValidationError{Reason: exam.ReasonEmptyAnswers, Msg: "no answers submitted"}
	}

	results := make([]exam.QuestionResult, 0, len(answers))
	creditSum := 0.0
	correct := 0

	for _, ans := range answers {
		q := e.QuestionByID(ans.QuestionID)
		if q == nil {
			return nil, &exam.ValidationError{
				Reason: exam.ReasonUnknownQuestion,
				Msg:    fmt.Sprintf("question %q is not part of exam %s", ans.QuestionID, e.ExamID),
			}
		}
		if err := checkAnswerKind(q, ans); err != nil {
			return nil, err
		}

		var res exam.QuestionResult
		if q.IsChoice() {
			res = g.gradeChoice(q, ans)
		} else {
			res = g.gradeOpenEnded(ctx, q, ans)
		}
		res.PartialCredit = round4(res.PartialCredit)

		results = append(results, res)
		creditSum += res.PartialCredit
		if res.IsCorrect {
			correct++
		}
	}

	percent := round2(creditSum / float64(len(results)) * 100)
	return &exam.GradeResponse{
		ExamID: e.ExamID,
		Summary: exam.GradeSummary{
			Total:        len(results),
			Correct:      correct,
			ScorePercent: percent,
		},
		PerQuestion: results,
	}, nil
}

// checkAnswerKind verifies the populated answer field matches the
// question's type. An empty choice set is a valid (wrong) answer for
// choice questions, so only a stray text answer is rejected there.
func checkAnswerKind(q *exam.Question, ans exam.StudentAnswer) error {
	if q.IsChoice() {
		if ans.TextAnswer != "" {
			return &exam.ValidationError{
				Reason: exam.ReasonWrongAnswerKind,
				Msg:    fmt.Sprintf("question %s expects choice indices, got a text answer", q.ID),
			}
		}
		return nil
	}
	if len(ans.Choice) > 0 {
		return &exam.ValidationError{
			Reason: exam.ReasonWrongAnswerKind,
			Msg:    fmt.Sprintf("question %s is open ended, got choice indices", q.ID),
		}
	}
	return nil
}

func (g *Grader) gradeChoice(q *exam.Question, ans exam.StudentAnswer) exam.QuestionResult {
	exact := sameIndexSet(q.Correct, ans.Choice)

	credit := 0.0
	switch {
	case exact:
		credit = 1.0
	case q.Type == exam.MultipleChoice && g.config.PartialCredit:
		credit = partialCredit(q.Correct, ans.Choice)
	}

	return exam.QuestionResult{
		QuestionID:    q.ID,
		IsCorrect:     exact,
		Expected:      q.Correct,
		Given:         ans.Choice,
		PartialCredit: credit,
	}
}

// partialCredit rewards recall and penalizes over-selection:
// max(0, hits - extras) / len(correct), clamped to [0,1].
func partialCredit(correct, given []int) float64 {
	want := make(map[int]bool, len(correct))
	for _, idx := range correct {
		want[idx] = true
	}

	hits, extras := 0, 0
	seen := make(map[int]bool, len(given))
	for _, idx := range given {
		if seen[idx] {
			continue
		}
		seen[idx] = true
		if want[idx] {
			hits++
		} else {
			extras++
		}
	}

	credit := float64(hits-extras) / float64(len(correct))
	return math.Min(1, math.Max(0, credit))
}

func sameIndexSet(a, b []int) bool {
	if len(b) == 0 {
		return len(a) == 0
	}
	setA := make(map[int]bool, len(a))
	for _, idx := range a {
		setA[idx] = true
	}
	setB := make(map[int]bool, len(b))
	for _, idx := range b {
		setB[idx] = true
	}
	if len(setA) != len(setB) {
		return false
	}
	for idx := range setA {
		if !setB[idx] {
			return false
		}
	}
	return true
}

func round4(v float64) float64 { return math.Round(v*1e4) / 1e4 }
func round2(v float64) float64 { return math.Round(v*1e2) / 1e2 }
