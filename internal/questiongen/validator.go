package questiongen

import (
	"github.com/rs/zerolog"

	"github.com/examgen/examgen/internal/exam"
	"github.com/examgen/examgen/internal/markdown"
)

// GroundingPolicy controls how the lexical-overlap heuristic is
// enforced. The hard span check (a source ref must fall inside a known
// section) always rejects; only the overlap heuristic is policy-gated.
type GroundingPolicy string

const (
	// GroundingSoft logs a warning when the overlap heuristic fails.
	GroundingSoft GroundingPolicy = "soft"
	// GroundingStrict rejects the candidate instead.
	GroundingStrict GroundingPolicy = "strict"
)

// Context carries everything validators need to judge one candidate
// against the exam being assembled.
type Context struct {
	// Sections are the parsed source sections for the file being
	// processed.
	Sections []markdown.Section

	// AcceptedStems are the stems already accepted into this exam.
	AcceptedStems []string

	// Grounding selects soft or strict enforcement of the overlap
	// heuristic.
	Grounding GroundingPolicy

	Logger zerolog.Logger
}

// Validator checks a candidate question. Implementations are stateless
// and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier for logging, e.g. "structural".
	Name() string

	// Validate returns nil if the candidate passes, or a RejectError
	// explaining the failure.
	Validate(q *exam.Question, vctx *Context) *RejectError
}
