// Package questiongen turns Markdown source material into a validated
// Exam by orchestrating section selection, prompt construction, provider
// calls, and candidate validation.
package questiongen

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/examgen/examgen/internal/exam"
	"github.com/examgen/examgen/internal/llm"
	"github.com/examgen/examgen/internal/markdown"
)

// Generator assembles exams from Markdown source text. All randomness
// (section order, mixed-difficulty spread) derives from the request
// seed, so with a deterministic provider the produced Exam is
// byte-identical across runs.
type Generator struct {
	provider llm.Provider
	config   Config
	logger   zerolog.Logger
}

// New creates a Generator using the given provider and config.
func New(provider llm.Provider, cfg Config, logger zerolog.Logger) *Generator {
	return &Generator{provider: provider, config: cfg, logger: logger}
}

// candidateOutput is the raw provider response before validation.
type candidateOutput struct {
	Stem            string   `json:"stem"`
	Options         []string `json:"options"`
	Correct         []int    `json:"correct"`
	ReferenceAnswer string   `json:"reference_answer"`
	Rubric          string   `json:"rubric"`
	Difficulty      string   `json:"difficulty"`
	Tags            []string `json:"tags"`
}

// Generate builds an Exam from markdownText according to cfg. Slots
// whose candidates keep failing validation are skipped, so the exam may
// come out short of the requested total; only a fully empty result is an
// error (GenerationError).
func (g *Generator) Generate(ctx context.Context, markdownText, fileID string, cfg exam.Config) (*exam.Exam, error) {
	resolved, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}

	sections := markdown.Parse(markdownText, fileID)
	eligible := g.eligibleSections(sections)
	if len(eligible) == 0 {
		return nil, &GenerationError{Msg: "source document has no sections with enough text"}
	}

	seed := uint64(*resolved.Seed)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	order := rng.Perm(len(eligible))

	vctx := &Context{
		Sections:  sections,
		Grounding: g.config.Grounding,
		Logger:    g.logger,
	}

	var accepted []exam.Question
	cursor := 0
	slot := 0
	attempts := 0

	for _, qType := range exam.Types {
		for i := 0; i < resolved.Counts[qType]; i++ {
			difficulty := slotDifficulty(resolved.Difficulty, slot)
			slot++

			filled := false
			for attempt := 0; attempt <= g.config.MaxExtraAttempts; attempt++ {
				section := eligible[order[cursor%len(order)]]
				cursor++
				attempts++

				q, rejErr, genErr := g.generateOne(ctx, section, qType, difficulty, resolved.Language, vctx)
				if genErr != nil {
					g.logger.Warn().Err(genErr).
						Str("type", string(qType)).
						Int("attempt", attempt+1).
						Msg("provider call failed for slot")
					continue
				}
				if rejErr != nil {
					g.logger.Info().
						Str("validator", rejErr.Validator).
						Str("reason", string(rejErr.Reason)).
						Int("attempt", attempt+1).
						Msg("candidate rejected")
					continue
				}

				accepted = append(accepted, *q)
				vctx.AcceptedStems = append(vctx.AcceptedStems, q.Stem)
				filled = true
				break
			}

			if !filled {
				g.logger.Warn().
					Str("type", string(qType)).
					Int("slot", slot).
					Msg("slot skipped after exhausting retries; exam will be short")
			}
		}
	}

	if len(accepted) == 0 {
		return nil, &GenerationError{Msg: "no valid questions could be assembled", Attempts: attempts}
	}

	for i := range accepted {
		accepted[i].ID = fmt.Sprintf("q-%03d", i+1)
	}

	return &exam.Exam{
		ExamID:     examID(fileID, markdownText, seed),
		Questions:  accepted,
		ConfigUsed: resolved,
	}, nil
}

// generateOne produces and validates a single candidate. The three
// return values are mutually exclusive: a validated question, a
// validation rejection, or a provider/parse error.
func (g *Generator) generateOne(ctx context.Context, section markdown.Section, qType exam.QuestionType, difficulty exam.Difficulty, language string, vctx *Context) (*exam.Question, *RejectError, error) {
	ctx = llm.WithPurpose(ctx, "question-gen")

	req := llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(section, qType, difficulty, language, vctx.AcceptedStems, g.config)},
		},
		Schema:      QuestionSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	var raw candidateOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, nil, fmt.Errorf("parse candidate: %w", err)
	}

	start, end := section.Span()
	q := &exam.Question{
		Type:            qType,
		Stem:            raw.Stem,
		Options:         raw.Options,
		Correct:         raw.Correct,
		ReferenceAnswer: raw.ReferenceAnswer,
		Rubric:          raw.Rubric,
		SourceRefs: []exam.SourceRef{{
			FileID:      section.FileID,
			Heading:     section.Heading,
			StartOffset: start,
			EndOffset:   end,
		}},
		Meta: exam.QuestionMeta{
			Difficulty: exam.Difficulty(raw.Difficulty),
			Tags:       raw.Tags,
		},
	}
	if len(q.Options) == 0 {
		q.Options = nil
	}
	if len(q.Correct) == 0 {
		q.Correct = nil
	}
	if len(q.Meta.Tags) == 0 {
		q.Meta.Tags = nil
	}

	for _, v := range g.config.Validators {
		if rejErr := v.Validate(q, vctx); rejErr != nil {
			return nil, rejErr, nil
		}
	}
	return q, nil, nil
}

func (g *Generator) eligibleSections(sections []markdown.Section) []markdown.Section {
	var out []markdown.Section
	for _, s := range sections {
		if len(s.Text) >= g.config.MinSectionChars {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		// Thin documents still get a chance: use any section with text.
		for _, s := range sections {
			if s.Text != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// slotDifficulty spreads mixed difficulty across slots in a fixed
// rotation so the spread is reproducible.
func slotDifficulty(policy exam.Difficulty, slot int) exam.Difficulty {
	if policy != exam.Mixed {
		return policy
	}
	rotation := []exam.Difficulty{exam.Easy, exam.Medium, exam.Hard}
	return rotation[slot%len(rotation)]
}

// examID derives a stable exam identifier from the source and seed, so
// reproducible runs produce identical exams end to end.
func examID(fileID, markdownText string, seed uint64) string {
	h := fnv.New64a()
	h.Write([]byte(fileID))
	h.Write([]byte(markdownText))
	fmt.Fprintf(h, "%d", seed)
	return fmt.Sprintf("exam-%016x", h.Sum64())
}
