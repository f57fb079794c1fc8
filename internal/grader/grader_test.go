package grader

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/examgen/examgen/internal/exam"
	"github.com/examgen/examgen/internal/llm"
)

func singleChoice(id string, correct int) exam.Question {
	return exam.Question{
		ID:      id,
		Type:    exam.SingleChoice,
		Stem:    "Stem for " + id,
		Options: []string{"A", "B", "C", "D"},
		Correct: []int{correct},
		Meta:    exam.QuestionMeta{Difficulty: exam.Easy},
	}
}

func threeSingleChoiceExam() *exam.Exam {
	return &exam.Exam{
		ExamID: "exam-test",
		Questions: []exam.Question{
			singleChoice("q-001", 0),
			singleChoice("q-002", 1),
			singleChoice("q-003", 2),
		},
	}
}

func newTestGrader(p llm.Provider) *Grader {
	return New(p, DefaultConfig(), zerolog.Nop())
}

func TestGrade_AllCorrect(t *testing.T) {
	g := newTestGrader(llm.NewMockProvider())
	resp, err := g.Grade(context.Background(), threeSingleChoiceExam(), []exam.StudentAnswer{
		{QuestionID: "q-001", Choice: []int{0}},
		{QuestionID: "q-002", Choice: []int{1}},
		{QuestionID: "q-003", Choice: []int{2}},
	})
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if resp.Summary.ScorePercent != 100.0 {
		t.Errorf("score_percent = %g, want 100", resp.Summary.ScorePercent)
	}
	if resp.Summary.Total != 3 || resp.Summary.Correct != 3 {
		t.Errorf("summary = %+v, want total 3 correct 3", resp.Summary)
	}
	for _, r := range resp.PerQuestion {
		if !r.IsCorrect || r.PartialCredit != 1.0 {
			t.Errorf("%s: is_correct=%v credit=%g, want true/1", r.QuestionID, r.IsCorrect, r.PartialCredit)
		}
	}
}

func TestGrade_TwoOfThree(t *testing.T) {
	g := newTestGrader(llm.NewMockProvider())
	resp, err := g.Grade(context.Background(), threeSingleChoiceExam(), []exam.StudentAnswer{
		{QuestionID: "q-001", Choice: []int{0}},
		{QuestionID: "q-002", Choice: []int{1}},
		{QuestionID: "q-003", Choice: []int{3}},
	})
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if resp.Summary.ScorePercent != 66.67 {
		t.Errorf("score_percent = %g, want 66.67", resp.Summary.ScorePercent)
	}
	if resp.Summary.Correct != 2 {
		t.Errorf("correct = %d, want 2", resp.Summary.Correct)
	}
}

func TestGrade_MultipleChoicePartialCredit(t *testing.T) {
	e := &exam.Exam{
		ExamID: "exam-test",
		Questions: []exam.Question{{
			ID:      "q-001",
			Type:    exam.MultipleChoice,
			Stem:    "Pick all that apply",
			Options: []string{"A", "B", "C", "D"},
			Correct: []int{0, 2},
			Meta:    exam.QuestionMeta{Difficulty: exam.Medium},
		}},
	}

	cases := []struct {
		name      string
		given     []int
		credit    float64
		isCorrect bool
	}{
		{"exact match", []int{0, 2}, 1.0, true},
		{"exact match reordered", []int{2, 0}, 1.0, true},
		{"half recall", []int{0}, 0.5, false},
		{"full recall plus extra", []int{0, 2, 1}, 0.5, false},
		{"half recall plus extra", []int{0, 1}, 0.0, false},
		{"only wrong", []int{1, 3}, 0.0, false},
		{"empty set", nil, 0.0, false},
	}
	g := newTestGrader(llm.NewMockProvider())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := g.Grade(context.Background(), e, []exam.StudentAnswer{
				{QuestionID: "q-001", Choice: tc.given},
			})
			if err != nil {
				t.Fatalf("Grade: %v", err)
			}
			r := resp.PerQuestion[0]
			if r.PartialCredit != tc.credit {
				t.Errorf("credit = %g, want %g", r.PartialCredit, tc.credit)
			}
			if r.IsCorrect != tc.isCorrect {
				t.Errorf("is_correct = %v, want %v", r.IsCorrect, tc.isCorrect)
			}
		})
	}
}

// Adding correct indices never lowers credit; adding wrong ones never
// raises it.
func TestPartialCredit_Monotonicity(t *testing.T) {
	correct := []int{0, 2, 4}

	prev := partialCredit(correct, nil)
	if prev != 0 {
		t.Fatalf("empty set credit = %g, want 0", prev)
	}
	given := []int{}
	for _, idx := range correct {
		given = append(given, idx)
		credit := partialCredit(correct, given)
		if credit < prev {
			t.Errorf("credit dropped from %g to %g after adding correct index %d", prev, credit, idx)
		}
		prev = credit
	}
	if prev != 1.0 {
		t.Fatalf("full correct set credit = %g, want 1", prev)
	}

	for _, extra := range []int{1, 3, 5} {
		given = append(given, extra)
		credit := partialCredit(correct, given)
		if credit > prev {
			t.Errorf("credit rose from %g to %g after adding wrong index %d", prev, credit, extra)
		}
		prev = credit
	}
}

func TestGrade_PartialCreditDisabled(t *testing.T) {
	e := &exam.Exam{
		ExamID: "exam-test",
		Questions: []exam.Question{{
			ID:      "q-001",
			Type:    exam.MultipleChoice,
			Stem:    "Pick all that apply",
			Options: []string{"A", "B", "C"},
			Correct: []int{0, 2},
			Meta:    exam.QuestionMeta{Difficulty: exam.Medium},
		}},
	}

	cfg := DefaultConfig()
	cfg.PartialCredit = false
	g := New(llm.NewMockProvider(), cfg, zerolog.Nop())

	resp, err := g.Grade(context.Background(), e, []exam.StudentAnswer{
		{QuestionID: "q-001", Choice: []int{0}},
	})
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if resp.PerQuestion[0].PartialCredit != 0 {
		t.Errorf("credit = %g, want 0 with partial credit disabled", resp.PerQuestion[0].PartialCredit)
	}
}

func TestGrade_PartialSubmission(t *testing.T) {
	g := newTestGrader(llm.NewMockProvider())
	resp, err := g.Grade(context.Background(), threeSingleChoiceExam(), []exam.StudentAnswer{
		{QuestionID: "q-001", Choice: []int{0}},
	})
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if len(resp.PerQuestion) != 1 {
		t.Errorf("per_question length = %d, want 1", len(resp.PerQuestion))
	}
	if resp.Summary.Total != 1 {
		t.Errorf("total = %d, want 1", resp.Summary.Total)
	}
	if resp.Summary.ScorePercent != 100.0 {
		t.Errorf("score_percent = %g, want 100", resp.Summary.ScorePercent)
	}
}

func openEndedExam() *exam.Exam {
	return &exam.Exam{
		ExamID: "exam-test",
		Questions: []exam.Question{{
			ID:              "q-001",
			Type:            exam.OpenEnded,
			Stem:            "Explain why the sky appears blue.",
			ReferenceAnswer: "Shorter wavelengths scatter more in the atmosphere.",
			Rubric:          "Full credit requires mentioning scattering.",
			Meta:            exam.QuestionMeta{Difficulty: exam.Hard},
		}},
	}
}

func gradedMock(score float64, rationale string) *llm.MockProvider {
	raw, _ := json.Marshal(map[string]any{"score": score, "rationale": rationale})
	return llm.NewMockProvider(llm.MockResponse{Content: raw})
}

func TestGrade_OpenEnded(t *testing.T) {
	mock := gradedMock(0.8, "Covers scattering clearly.")
	g := newTestGrader(mock)

	resp, err := g.Grade(context.Background(), openEndedExam(), []exam.StudentAnswer{
		{QuestionID: "q-001", TextAnswer: "Blue light scatters more than red light."},
	})
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	r := resp.PerQuestion[0]
	if !r.IsCorrect {
		t.Error("score 0.8 should pass the 0.7 threshold")
	}
	if r.PartialCredit != 0.8 {
		t.Errorf("credit = %g, want 0.8", r.PartialCredit)
	}
	if r.Feedback != "Covers scattering clearly." {
		t.Errorf("feedback = %q", r.Feedback)
	}
	if r.GivenText == "" {
		t.Error("given_text not recorded")
	}

	if mock.CallCount() != 1 {
		t.Fatalf("provider called %d times, want 1", mock.CallCount())
	}
	prompt := mock.Calls[0].Messages[0].Content
	for _, marker := range []string{"Reference answer:\n", "Student answer:\n", "Rubric:\n"} {
		if !strings.Contains(prompt, marker) {
			t.Errorf("grading prompt missing %q", marker)
		}
	}
}

func TestGrade_OpenEndedBelowThreshold(t *testing.T) {
	g := newTestGrader(gradedMock(0.4, "Key point missing."))
	resp, err := g.Grade(context.Background(), openEndedExam(), []exam.StudentAnswer{
		{QuestionID: "q-001", TextAnswer: "Because of the ocean."},
	})
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	r := resp.PerQuestion[0]
	if r.IsCorrect {
		t.Error("score 0.4 must not pass")
	}
	if r.PartialCredit != 0.4 {
		t.Errorf("credit = %g, want 0.4", r.PartialCredit)
	}
	if resp.Summary.ScorePercent != 40.0 {
		t.Errorf("score_percent = %g, want 40", resp.Summary.ScorePercent)
	}
}

func TestGrade_ProviderErrorMarksQuestionOnly(t *testing.T) {
	e := &exam.Exam{
		ExamID: "exam-test",
		Questions: []exam.Question{
			singleChoice("q-001", 0),
			openEndedExam().Questions[0],
		},
	}
	e.Questions[1].ID = "q-002"

	mock := llm.NewMockProvider(llm.MockResponse{
		Err: &llm.ProviderError{Reason: llm.ReasonTimeout},
	})
	g := newTestGrader(mock)

	resp, err := g.Grade(context.Background(), e, []exam.StudentAnswer{
		{QuestionID: "q-001", Choice: []int{0}},
		{QuestionID: "q-002", TextAnswer: "An attempt."},
	})
	if err != nil {
		t.Fatalf("Grade must not fail on a per-question provider error: %v", err)
	}
	if resp.Summary.Total != 2 {
		t.Errorf("total = %d, want 2", resp.Summary.Total)
	}
	if resp.Summary.Correct != 1 {
		t.Errorf("correct = %d, want 1", resp.Summary.Correct)
	}

	failed := resp.PerQuestion[1]
	if failed.Err != "timeout" {
		t.Errorf("error marker = %q, want timeout", failed.Err)
	}
	if failed.IsCorrect || failed.PartialCredit != 0 {
		t.Errorf("failed question scored: %+v", failed)
	}
}

func TestGrade_ValidationErrors(t *testing.T) {
	g := newTestGrader(llm.NewMockProvider())
	e := threeSingleChoiceExam()

	cases := []struct {
		name    string
		answers []exam.StudentAnswer
		reason  exam.ValidationReason
	}{
		{"empty answers", nil, exam.ReasonEmptyAnswers},
		{"unknown question", []exam.StudentAnswer{{QuestionID: "q-999", Choice: []int{0}}}, exam.ReasonUnknownQuestion},
		{"text answer for choice", []exam.StudentAnswer{{QuestionID: "q-001", TextAnswer: "A"}}, exam.ReasonWrongAnswerKind},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := g.Grade(context.Background(), e, tc.answers)
			var vErr *exam.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error %v, want ValidationError", err)
			}
			if vErr.Reason != tc.reason {
				t.Errorf("reason = %s, want %s", vErr.Reason, tc.reason)
			}
		})
	}

	_, err := g.Grade(context.Background(), openEndedExam(), []exam.StudentAnswer{
		{QuestionID: "q-001", Choice: []int{1}},
	})
	var vErr *exam.ValidationError
	if !errors.As(err, &vErr) || vErr.Reason != exam.ReasonWrongAnswerKind {
		t.Errorf("choice answer for open ended: %v, want wrong_answer_kind", err)
	}
}

func TestGrade_LocalProviderRoundTrip(t *testing.T) {
	g := newTestGrader(llm.NewLocalProvider())
	resp, err := g.Grade(context.Background(), openEndedExam(), []exam.StudentAnswer{
		{QuestionID: "q-001", TextAnswer: "Shorter wavelengths scatter more in the atmosphere."},
	})
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	r := resp.PerQuestion[0]
	if r.PartialCredit != 1.0 || !r.IsCorrect {
		t.Errorf("verbatim reference answer scored %g, want 1", r.PartialCredit)
	}
}

