package questiongen

import "github.com/examgen/examgen/internal/llm"

// QuestionSchema is the JSON schema every question-generation response
// must conform to. All fields are required so strict structured-output
// modes accept it; fields that do not apply to the requested type are
// empty and the validators enforce the per-type rules afterwards.
var QuestionSchema = &llm.Schema{
	Name:        "exam-question",
	Description: "A single exam question grounded in the provided source passage",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"stem": map[string]any{
				"type":        "string",
				"description": "The question text shown to the student",
			},
			"options": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Ordered answer options for choice types. Empty array for open_ended.",
			},
			"correct": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "integer"},
				"description": "Zero-based indices of the correct options. Exactly one for single_choice, two or more for multiple_choice, empty for open_ended.",
			},
			"reference_answer": map[string]any{
				"type":        "string",
				"description": "Model answer for open_ended questions. Empty string for choice types.",
			},
			"rubric": map[string]any{
				"type":        "string",
				"description": "Optional grading guidance for open_ended questions",
			},
			"difficulty": map[string]any{
				"type":        "string",
				"enum":        []any{"easy", "medium", "hard"},
				"description": "Difficulty of the generated question",
			},
			"tags": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Short topic tags, may be empty",
			},
		},
		"required":             []any{"stem", "options", "correct", "reference_answer", "rubric", "difficulty", "tags"},
		"additionalProperties": false,
	},
}
