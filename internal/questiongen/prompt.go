package questiongen

import (
	"fmt"
	"strings"

	"github.com/examgen/examgen/internal/exam"
	"github.com/examgen/examgen/internal/markdown"
)

const systemPrompt = `You are an expert educator creating exam questions from source material.

Rules:
- Generate a single question of the requested type, answerable from the passage alone.
- The question must be supported by the passage: do not invent facts, numbers, or terminology that the passage does not contain.
- For single_choice: provide 4-5 plausible options with EXACTLY ONE correct index.
- For multiple_choice: provide 4-6 options with 2-3 correct indices.
- For open_ended: leave options and correct empty; provide a concise reference_answer and a short grading rubric.
- Indices are zero-based: the first option is index 0.
- Options must be plausible but clearly distinguishable.
- Use clear, unambiguous language at the requested difficulty.
- Do not repeat or trivially rephrase any stem from the "Already used stems" list.`

// buildUserMessage assembles the per-slot request. The marker lines
// (Type:, Difficulty:, Passage:) are part of the provider contract: the
// local stub keys off them.
func buildUserMessage(section markdown.Section, qType exam.QuestionType, difficulty exam.Difficulty, language string, priorStems []string, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Type: %s\n", qType)
	fmt.Fprintf(&b, "Difficulty: %s\n", difficulty)
	fmt.Fprintf(&b, "Language: %s\n", language)
	if language == "ru" {
		b.WriteString("Write the question, options and answers in Russian.\n")
	}
	if section.Heading != "" {
		fmt.Fprintf(&b, "Section: %s\n", section.Heading)
	}

	b.WriteString("\nPassage:\n")
	b.WriteString(clipText(section.Text, cfg.MaxPassageChars))
	b.WriteString("\n\nAlready used stems:\n")
	b.WriteString(buildPriorStems(priorStems, cfg.MaxPriorStems))
	b.WriteString("\n")

	return b.String()
}

// buildPriorStems formats already-accepted stems for deduplication,
// keeping only the most recent entries. Returns "None" when empty.
func buildPriorStems(stems []string, max int) string {
	if len(stems) == 0 {
		return "None"
	}

	if max > 0 && len(stems) > max {
		stems = stems[len(stems)-max:]
	}

	var b strings.Builder
	for i, s := range stems {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return strings.TrimRight(b.String(), "\n")
}

func clipText(text string, max int) string {
	text = strings.TrimSpace(text)
	if max <= 0 || len(text) <= max {
		return text
	}
	return text[:max]
}
