package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
)

// LocalProvider is a deterministic offline Provider. It never touches
// the network: output is derived from an FNV hash of the request text,
// so identical requests always yield byte-identical responses. It backs
// the "local" factory identifier for offline operation and reproducible
// pipelines.
//
// The request's schema name selects the capability: "exam-question",
// "open-ended-grade" or "model-answer". The stub reads the marker lines
// the pipeline prompts always contain (Type:, Passage:, Reference
// answer:, ...) to shape its output.
type LocalProvider struct{}

// NewLocalProvider creates the deterministic local stub.
func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (p *LocalProvider) Generate(_ context.Context, req Request) (*Response, error) {
	if req.Schema == nil {
		return nil, malformed(nil, fmt.Errorf("local provider requires a schema-typed request"))
	}

	userMsg := lastUserMessage(req)
	h := requestHash(req)

	var content json.RawMessage
	switch req.Schema.Name {
	case "exam-question":
		content = localQuestion(userMsg, h)
	case "open-ended-grade":
		content = localGrade(userMsg)
	case "model-answer":
		content = localAnswer(userMsg, h)
	default:
		return nil, malformed(nil, fmt.Errorf("local provider: unsupported schema %q", req.Schema.Name))
	}

	if err := validateResponse(req.Schema, content); err != nil {
		return nil, err
	}

	return &Response{
		Content: content,
		Usage: Usage{
			InputTokens:  len(userMsg) / 4,
			OutputTokens: len(content) / 4,
			TotalTokens:  (len(userMsg) + len(content)) / 4,
		},
		Model:      "local",
		StopReason: "end",
	}, nil
}

// ModelID returns "local".
func (p *LocalProvider) ModelID() string {
	return "local"
}

func requestHash(req Request) uint64 {
	h := fnv.New64a()
	h.Write([]byte(req.System))
	for _, m := range req.Messages {
		h.Write([]byte(m.Content))
	}
	h.Write([]byte(req.Schema.Name))
	return h.Sum64()
}

func lastUserMessage(req Request) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == RoleUser {
			return req.Messages[i].Content
		}
	}
	return ""
}

type localQuestionOut struct {
	Stem            string   `json:"stem"`
	Options         []string `json:"options"`
	Correct         []int    `json:"correct"`
	ReferenceAnswer string   `json:"reference_answer"`
	Rubric          string   `json:"rubric"`
	Difficulty      string   `json:"difficulty"`
	Tags            []string `json:"tags"`
}

func localQuestion(msg string, h uint64) json.RawMessage {
	qType := "single_choice"
	if strings.Contains(msg, "open_ended") {
		qType = "open_ended"
	} else if strings.Contains(msg, "multiple_choice") {
		qType = "multiple_choice"
	}

	passage := markedValue(msg, "Passage:")
	window := wordWindow(passage, h, 8)
	if window == "" {
		window = "the source material"
	}

	out := localQuestionOut{
		Difficulty: localDifficulty(msg, h),
		Tags:       []string{},
		Options:    []string{},
		Correct:    []int{},
	}

	switch qType {
	case "open_ended":
		out.Stem = fmt.Sprintf("Explain the following point from the source: %s.", window)
		out.ReferenceAnswer = window
		out.Rubric = "Full credit for covering: " + window
	default:
		out.Stem = fmt.Sprintf("Which statement about %q is supported by the source?", window)
		correct := int(h % 4)
		distractors := []string{
			"This claim is contradicted by the source",
			"The source does not address " + firstWords(window, 3),
			"None of the listed statements apply",
		}
		d := 0
		for i := range 4 {
			if i == correct {
				out.Options = append(out.Options, "The source states: "+window)
			} else {
				out.Options = append(out.Options, distractors[d])
				d++
			}
		}
		out.Correct = []int{correct}
		if qType == "multiple_choice" {
			second := (correct + 1 + int(h%3)) % 4
			if second < correct {
				out.Correct = []int{second, correct}
			} else {
				out.Correct = []int{correct, second}
			}
		}
	}

	raw, _ := json.Marshal(out)
	return raw
}

func localGrade(msg string) json.RawMessage {
	reference := markedValue(msg, "Reference answer:")
	student := markedValue(msg, "Student answer:")

	score := tokenOverlap(reference, student)
	out := map[string]any{
		"score":     score,
		"rationale": fmt.Sprintf("Lexical overlap with the reference answer: %.2f.", score),
	}
	raw, _ := json.Marshal(out)
	return raw
}

func localAnswer(msg string, h uint64) json.RawMessage {
	options := 0
	for _, line := range strings.Split(msg, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) > 1 && trimmed[0] >= '0' && trimmed[0] <= '9' && trimmed[1] == '.' {
			options++
		}
	}

	out := map[string]any{
		"choice":      []int{},
		"text_answer": "",
	}
	if options > 0 {
		out["choice"] = []int{int(h % uint64(options))}
	} else {
		out["text_answer"] = firstWords(markedValue(msg, "Question:"), 12)
	}
	raw, _ := json.Marshal(out)
	return raw
}

// markedValue returns the text following a "Marker:" line up to the next
// blank line, whitespace-collapsed.
func markedValue(msg, marker string) string {
	idx := strings.Index(msg, marker)
	if idx < 0 {
		return ""
	}
	rest := msg[idx+len(marker):]
	if end := strings.Index(rest, "\n\n"); end >= 0 {
		rest = rest[:end]
	}
	return strings.Join(strings.Fields(rest), " ")
}

// wordWindow picks a hash-positioned window of n words so repeated
// requests over the same passage still produce distinct stems.
func wordWindow(text string, h uint64, n int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	start := int(h % uint64(len(words)-n+1))
	return strings.Join(words[start:start+n], " ")
}

func firstWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

func localDifficulty(msg string, h uint64) string {
	for _, d := range []string{"easy", "medium", "hard"} {
		if strings.Contains(msg, "Difficulty: "+d) {
			return d
		}
	}
	return []string{"easy", "medium", "hard"}[h%3]
}

// tokenOverlap is the fraction of reference tokens present in the
// student text, in [0,1].
func tokenOverlap(reference, student string) float64 {
	ref := strings.Fields(strings.ToLower(reference))
	if len(ref) == 0 {
		return 0
	}
	given := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(student)) {
		given[strings.Trim(w, ".,;:!?")] = true
	}
	hit := 0
	for _, w := range ref {
		if given[strings.Trim(w, ".,;:!?")] {
			hit++
		}
	}
	return float64(hit) / float64(len(ref))
}
