package grader

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/examgen/examgen/internal/exam"
	"github.com/examgen/examgen/internal/llm"
)

// GradeSchema is the JSON schema every open-ended scoring response must
// conform to.
var GradeSchema = &llm.Schema{
	Name:        "open-ended-grade",
	Description: "A rubric score for a student's open-ended answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{
				"type":        "number",
				"minimum":     0,
				"maximum":     1,
				"description": "How well the student answer matches the reference answer, 0 to 1",
			},
			"rationale": map[string]any{
				"type":        "string",
				"description": "One or two sentences explaining the score",
			},
		},
		"required":             []any{"score", "rationale"},
		"additionalProperties": false,
	},
}

const gradeSystemPrompt = `You are a strict but fair exam grader.
Score the student's answer against the reference answer on a 0 to 1 scale:
- 1.0: covers every essential point of the reference answer.
- 0.7: covers the essential points with minor gaps or imprecision.
- 0.4: partially correct, a key point missing or wrong.
- 0.0: incorrect or unrelated.
Follow the rubric when one is given. Judge content, not style or length.`

type gradeOutput struct {
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
}

// gradeOpenEnded scores one open-ended answer via the provider. A
// provider failure does not abort the grading run; the result carries
// the error reason code and zero credit instead.
func (g *Grader) gradeOpenEnded(ctx context.Context, q *exam.Question, ans exam.StudentAnswer) exam.QuestionResult {
	res := exam.QuestionResult{
		QuestionID: q.ID,
		GivenText:  ans.TextAnswer,
	}

	ctx = llm.WithPurpose(ctx, "open-grade")
	resp, err := g.provider.Generate(ctx, llm.Request{
		System: gradeSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildGradeMessage(q, ans.TextAnswer)},
		},
		Schema:      GradeSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		g.logger.Warn().Err(err).
			Str("question_id", q.ID).
			Msg("open-ended scoring failed; marking result instead of aborting the run")
		res.Err = string(llm.ReasonOf(err))
		return res
	}

	var out gradeOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		res.Err = string(llm.ReasonMalformed)
		return res
	}

	score := math.Min(1, math.Max(0, out.Score))
	res.PartialCredit = score
	res.IsCorrect = score >= g.config.PassThreshold
	res.Feedback = out.Rationale
	return res
}

func buildGradeMessage(q *exam.Question, studentText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question:\n%s\n\n", q.Stem)
	fmt.Fprintf(&b, "Reference answer:\n%s\n\n", q.ReferenceAnswer)
	if q.Rubric != "" {
		fmt.Fprintf(&b, "Rubric:\n%s\n\n", q.Rubric)
	}
	fmt.Fprintf(&b, "Student answer:\n%s\n", studentText)
	return b.String()
}
