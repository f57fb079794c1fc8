package questiongen

import (
	"strings"

	"github.com/examgen/examgen/internal/exam"
)

// stemSimilarityThreshold is the token-set Jaccard similarity above
// which two stems count as near-duplicates.
const stemSimilarityThreshold = 0.85

// DuplicateValidator rejects a candidate whose stem is a near-duplicate
// of one already accepted into the exam: equal after case/whitespace
// normalization, or above the similarity threshold.
type DuplicateValidator struct{}

func (v *DuplicateValidator) Name() string { return "duplicate" }

func (v *DuplicateValidator) Validate(q *exam.Question, vctx *Context) *RejectError {
	candidate := normalizeStem(q.Stem)
	for _, accepted := range vctx.AcceptedStems {
		prior := normalizeStem(accepted)
		if candidate == prior || stemSimilarity(candidate, prior) >= stemSimilarityThreshold {
			return &RejectError{
				Validator: v.Name(),
				Reason:    RejectDuplicateStem,
				Msg:       "stem duplicates an already accepted question",
			}
		}
	}
	return nil
}

func normalizeStem(stem string) string {
	return strings.Join(strings.Fields(strings.ToLower(stem)), " ")
}

// stemSimilarity is the Jaccard similarity of the two stems' token
// sets.
func stemSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if setB[w] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, w := range strings.Fields(s) {
		set[strings.Trim(w, ".,;:!?()\"'")] = true
	}
	return set
}
