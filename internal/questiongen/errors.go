package questiongen

import "fmt"

// RejectReason is a stable code for why a candidate question was
// rejected. Rejections are recovered inside the generator (skip and
// retry); they never surface to callers individually.
type RejectReason string

const (
	RejectMissingField       RejectReason = "missing_field"
	RejectBadOptionCount     RejectReason = "bad_option_count"
	RejectCorrectOutOfRange  RejectReason = "correct_index_out_of_range"
	RejectNoSourceRef        RejectReason = "no_source_ref"
	RejectDuplicateStem      RejectReason = "duplicate_stem"
)

// RejectError describes why a candidate failed validation.
type RejectError struct {
	Validator string
	Reason    RejectReason
	Msg       string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("validator %q rejected candidate (%s): %s", e.Validator, e.Reason, e.Msg)
}

// GenerationError indicates the pipeline could not assemble a single
// valid question. Treated as a service failure even when the root cause
// is an unreliable provider.
type GenerationError struct {
	Msg      string
	Attempts int
}

func (e *GenerationError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("generation failed after %d attempts: %s", e.Attempts, e.Msg)
	}
	return "generation failed: " + e.Msg
}
