package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func questionTestSchema() *Schema {
	return &Schema{
		Name: "exam-question",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"stem":             map[string]any{"type": "string"},
				"options":          map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"correct":          map[string]any{"type": "array", "items": map[string]any{"type": "integer"}},
				"reference_answer": map[string]any{"type": "string"},
				"rubric":           map[string]any{"type": "string"},
				"difficulty":       map[string]any{"type": "string", "enum": []any{"easy", "medium", "hard"}},
				"tags":             map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
			"required": []any{"stem", "options", "correct", "reference_answer", "rubric", "difficulty", "tags"},
		},
	}
}

func localQuestionRequest(qType string) Request {
	return Request{
		System: "You create exam questions.",
		Messages: []Message{{Role: RoleUser, Content: "Type: " + qType + "\n" +
			"Difficulty: medium\n\n" +
			"Passage:\nThe heart has four chambers that pump blood through the body.\n\n" +
			"Already used stems:\nNone\n"}},
		Schema: questionTestSchema(),
	}
}

func TestLocalProvider_Deterministic(t *testing.T) {
	p := NewLocalProvider()
	req := localQuestionRequest("single_choice")

	a, err := p.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := p.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(a.Content, b.Content) {
		t.Errorf("identical requests produced different output:\n%s\n%s", a.Content, b.Content)
	}
}

func TestLocalProvider_SingleChoiceShape(t *testing.T) {
	p := NewLocalProvider()
	resp, err := p.Generate(context.Background(), localQuestionRequest("single_choice"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out struct {
		Stem    string   `json:"stem"`
		Options []string `json:"options"`
		Correct []int    `json:"correct"`
	}
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		t.Fatalf("content not JSON: %v", err)
	}
	if len(out.Options) != 4 {
		t.Fatalf("expected 4 options, got %d", len(out.Options))
	}
	if len(out.Correct) != 1 {
		t.Fatalf("expected one correct index, got %v", out.Correct)
	}
	if out.Correct[0] < 0 || out.Correct[0] >= len(out.Options) {
		t.Errorf("correct index %d out of range", out.Correct[0])
	}
	// The stem must overlap the passage for grounding checks to pass.
	if !strings.Contains(out.Stem, "heart") && !strings.Contains(out.Stem, "chambers") && !strings.Contains(out.Stem, "blood") {
		t.Errorf("stem has no lexical overlap with passage: %q", out.Stem)
	}
}

func TestLocalProvider_MultipleChoiceShape(t *testing.T) {
	p := NewLocalProvider()
	resp, err := p.Generate(context.Background(), localQuestionRequest("multiple_choice"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out struct {
		Options []string `json:"options"`
		Correct []int    `json:"correct"`
	}
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		t.Fatalf("content not JSON: %v", err)
	}
	if len(out.Correct) < 1 {
		t.Fatal("multiple choice needs at least one correct index")
	}
	seen := map[int]bool{}
	for _, idx := range out.Correct {
		if idx < 0 || idx >= len(out.Options) {
			t.Errorf("correct index %d out of range", idx)
		}
		if seen[idx] {
			t.Errorf("duplicate correct index %d", idx)
		}
		seen[idx] = true
	}
}

func TestLocalProvider_OpenEndedShape(t *testing.T) {
	p := NewLocalProvider()
	resp, err := p.Generate(context.Background(), localQuestionRequest("open_ended"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out struct {
		Options         []string `json:"options"`
		Correct         []int    `json:"correct"`
		ReferenceAnswer string   `json:"reference_answer"`
	}
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		t.Fatalf("content not JSON: %v", err)
	}
	if len(out.Options) != 0 || len(out.Correct) != 0 {
		t.Errorf("open ended must not carry options/correct: %s", resp.Content)
	}
	if out.ReferenceAnswer == "" {
		t.Error("open ended must carry a reference answer")
	}
}

func TestLocalProvider_GradeOverlap(t *testing.T) {
	p := NewLocalProvider()
	schema := &Schema{
		Name: "open-ended-grade",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"score":     map[string]any{"type": "number", "minimum": 0, "maximum": 1},
				"rationale": map[string]any{"type": "string"},
			},
			"required": []any{"score", "rationale"},
		},
	}

	grade := func(student string) float64 {
		resp, err := p.Generate(context.Background(), Request{
			Messages: []Message{{Role: RoleUser, Content: "Reference answer:\nThe heart pumps blood\n\nStudent answer:\n" + student + "\n"}},
			Schema:   schema,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var out struct {
			Score float64 `json:"score"`
		}
		if err := json.Unmarshal(resp.Content, &out); err != nil {
			t.Fatalf("content not JSON: %v", err)
		}
		return out.Score
	}

	full := grade("The heart pumps blood")
	none := grade("completely unrelated text")
	if full != 1.0 {
		t.Errorf("verbatim answer scored %g, want 1.0", full)
	}
	if none >= full {
		t.Errorf("unrelated answer (%g) should score below verbatim (%g)", none, full)
	}
}
