package questiongen

import (
	"fmt"

	"github.com/examgen/examgen/internal/exam"
)

const (
	minOptions = 2
	maxOptions = 8
)

// StructuralValidator checks the per-type schema invariants: required
// fields, option count, correct-index arity and range.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *exam.Question, _ *Context) *RejectError {
	if q.Stem == "" {
		return v.reject(RejectMissingField, "stem is empty")
	}
	switch q.Meta.Difficulty {
	case exam.Easy, exam.Medium, exam.Hard:
	default:
		return v.reject(RejectMissingField, fmt.Sprintf("difficulty %q is not easy/medium/hard", q.Meta.Difficulty))
	}

	switch q.Type {
	case exam.SingleChoice, exam.MultipleChoice:
		return v.validateChoice(q)
	case exam.OpenEnded:
		return v.validateOpenEnded(q)
	default:
		return v.reject(RejectMissingField, fmt.Sprintf("unknown question type %q", q.Type))
	}
}

func (v *StructuralValidator) validateChoice(q *exam.Question) *RejectError {
	if len(q.Options) < minOptions || len(q.Options) > maxOptions {
		return v.reject(RejectBadOptionCount, fmt.Sprintf("%d options, want %d-%d", len(q.Options), minOptions, maxOptions))
	}
	for i, opt := range q.Options {
		if opt == "" {
			return v.reject(RejectMissingField, fmt.Sprintf("option %d is empty", i))
		}
	}
	if len(q.Correct) == 0 {
		return v.reject(RejectMissingField, "correct indices are empty")
	}
	if q.Type == exam.SingleChoice && len(q.Correct) != 1 {
		return v.reject(RejectCorrectOutOfRange, fmt.Sprintf("single_choice has %d correct indices", len(q.Correct)))
	}
	seen := make(map[int]bool, len(q.Correct))
	for _, idx := range q.Correct {
		if idx < 0 || idx >= len(q.Options) {
			return v.reject(RejectCorrectOutOfRange, fmt.Sprintf("index %d outside options [0,%d)", idx, len(q.Options)))
		}
		if seen[idx] {
			return v.reject(RejectCorrectOutOfRange, fmt.Sprintf("index %d repeated", idx))
		}
		seen[idx] = true
	}
	return nil
}

func (v *StructuralValidator) validateOpenEnded(q *exam.Question) *RejectError {
	if len(q.Options) > 0 || len(q.Correct) > 0 {
		return v.reject(RejectBadOptionCount, "open_ended must not carry options or correct indices")
	}
	if q.ReferenceAnswer == "" {
		return v.reject(RejectMissingField, "reference_answer is empty")
	}
	return nil
}

func (v *StructuralValidator) reject(reason RejectReason, msg string) *RejectError {
	return &RejectError{Validator: v.Name(), Reason: reason, Msg: msg}
}
