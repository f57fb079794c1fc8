package questiongen

import (
	"strings"

	"github.com/examgen/examgen/internal/exam"
	"github.com/examgen/examgen/internal/markdown"
)

// overlapThreshold is the minimum fraction of significant stem words
// that must appear in the referenced section for the soft heuristic.
const overlapThreshold = 0.3

// GroundingValidator checks that a candidate is traceable to the source
// material: it must carry at least one source ref whose span lies inside
// a known section. A lexical-overlap heuristic between the stem/options
// and the referenced text runs on top; under the soft policy a miss is
// logged, under strict it rejects.
type GroundingValidator struct{}

func (v *GroundingValidator) Name() string { return "grounding" }

func (v *GroundingValidator) Validate(q *exam.Question, vctx *Context) *RejectError {
	if len(q.SourceRefs) == 0 {
		return &RejectError{Validator: v.Name(), Reason: RejectNoSourceRef, Msg: "candidate declares no source refs"}
	}

	var referenced []markdown.Section
	for _, ref := range q.SourceRefs {
		sec, ok := sectionForRef(ref, vctx.Sections)
		if !ok {
			return &RejectError{
				Validator: v.Name(),
				Reason:    RejectNoSourceRef,
				Msg:       "source ref span does not fall inside any known section",
			}
		}
		referenced = append(referenced, sec)
	}

	if !v.lexicalOverlap(q, referenced) {
		if vctx.Grounding == GroundingStrict {
			return &RejectError{
				Validator: v.Name(),
				Reason:    RejectNoSourceRef,
				Msg:       "stem has insufficient lexical overlap with the referenced section",
			}
		}
		vctx.Logger.Warn().
			Str("stem", q.Stem).
			Msg("candidate has weak lexical overlap with its source section")
	}

	return nil
}

func sectionForRef(ref exam.SourceRef, sections []markdown.Section) (markdown.Section, bool) {
	for _, sec := range sections {
		if sec.FileID != ref.FileID {
			continue
		}
		start, end := sec.Span()
		if ref.StartOffset >= start && ref.EndOffset <= end && ref.StartOffset < ref.EndOffset {
			return sec, true
		}
	}
	return markdown.Section{}, false
}

// lexicalOverlap reports whether enough of the candidate's significant
// words appear in any referenced section.
func (v *GroundingValidator) lexicalOverlap(q *exam.Question, sections []markdown.Section) bool {
	words := significantWords(q.Stem)
	for _, opt := range q.Options {
		words = append(words, significantWords(opt)...)
	}
	if len(words) == 0 {
		return true
	}

	for _, sec := range sections {
		text := strings.ToLower(sec.Heading + " " + sec.Text)
		hits := 0
		for _, w := range words {
			if strings.Contains(text, w) {
				hits++
			}
		}
		if float64(hits)/float64(len(words)) >= overlapThreshold {
			return true
		}
	}
	return false
}

// significantWords lowercases and keeps words of 4+ characters, which
// filters articles and copulas without a stopword list.
func significantWords(text string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:!?()\"'")
		if len(w) >= 4 {
			out = append(out, w)
		}
	}
	return out
}
