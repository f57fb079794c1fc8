package exam

// QuestionType identifies how a question is answered and scored.
type QuestionType string

const (
	SingleChoice   QuestionType = "single_choice"
	MultipleChoice QuestionType = "multiple_choice"
	OpenEnded      QuestionType = "open_ended"
)

// Types lists all question types in canonical order. Config resolution
// and generation iterate in this order so output is reproducible.
var Types = []QuestionType{SingleChoice, MultipleChoice, OpenEnded}

// Difficulty is the difficulty label attached to a generated question.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"

	// Mixed is a config-level policy, never assigned to a question:
	// it distributes questions across easy/medium/hard.
	Mixed Difficulty = "mixed"
)

// SourceRef points into a span of the source document a question was
// generated from. Refs are derived from parsed sections during
// generation, never created independently.
type SourceRef struct {
	FileID      string `json:"file_id"`
	Heading     string `json:"heading"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
}

// QuestionMeta carries generation metadata.
type QuestionMeta struct {
	Difficulty Difficulty `json:"difficulty"`
	Tags       []string   `json:"tags,omitempty"`
}

// Question is a single exam question.
//
// For choice types, Options holds the ordered answer options and Correct
// the zero-based indices of the right ones (exactly one for
// single_choice). For open_ended, Options and Correct are absent and
// ReferenceAnswer holds the model answer, with Rubric as optional
// grading guidance.
type Question struct {
	ID              string       `json:"id"`
	Type            QuestionType `json:"type"`
	Stem            string       `json:"stem"`
	Options         []string     `json:"options,omitempty"`
	Correct         []int        `json:"correct,omitempty"`
	ReferenceAnswer string       `json:"reference_answer,omitempty"`
	Rubric          string       `json:"rubric,omitempty"`
	SourceRefs      []SourceRef  `json:"source_refs"`
	Meta            QuestionMeta `json:"meta"`
}

// IsChoice reports whether the question is answered by selecting options.
func (q *Question) IsChoice() bool {
	return q.Type == SingleChoice || q.Type == MultipleChoice
}

// Exam is a persisted ordered set of questions plus the fully resolved
// configuration that produced them. Immutable once saved; grading never
// mutates it.
type Exam struct {
	ExamID     string     `json:"exam_id"`
	Questions  []Question `json:"questions"`
	ConfigUsed Config     `json:"config_used"`
}

// QuestionByID returns the question with the given id, or nil.
func (e *Exam) QuestionByID(id string) *Question {
	for i := range e.Questions {
		if e.Questions[i].ID == id {
			return &e.Questions[i]
		}
	}
	return nil
}

// StudentAnswer is one submitted answer. Exactly one of Choice or
// TextAnswer is populated, matching the referenced question's type.
type StudentAnswer struct {
	QuestionID string `json:"question_id"`
	Choice     []int  `json:"choice,omitempty"`
	TextAnswer string `json:"text_answer,omitempty"`
}

// QuestionResult is the graded outcome for a single answered question.
//
// PartialCredit is always set: 1.0/0.0 for exact scoring, fractional for
// multiple-choice partial credit, the raw rubric score for open_ended.
// Expected and Given are index sets for choice questions; GivenText
// carries the submitted text for open_ended. Err holds a provider error
// reason code when open-ended scoring failed for this question only.
type QuestionResult struct {
	QuestionID    string  `json:"question_id"`
	IsCorrect     bool    `json:"is_correct"`
	Expected      []int   `json:"expected,omitempty"`
	Given         []int   `json:"given,omitempty"`
	GivenText     string  `json:"given_text,omitempty"`
	PartialCredit float64 `json:"partial_credit"`
	Feedback      string  `json:"feedback,omitempty"`
	Err           string  `json:"error,omitempty"`
}

// GradeSummary aggregates a grading run over the answered questions.
type GradeSummary struct {
	Total        int     `json:"total"`
	Correct      int     `json:"correct"`
	ScorePercent float64 `json:"score_percent"`
}

// GradeResponse is the artifact produced by one grading run. Multiple
// runs may coexist for one exam, each with its own GradeID.
type GradeResponse struct {
	GradeID     string           `json:"grade_id,omitempty"`
	ExamID      string           `json:"exam_id"`
	Summary     GradeSummary     `json:"summary"`
	PerQuestion []QuestionResult `json:"per_question"`
}
