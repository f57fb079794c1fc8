package exam

import "fmt"

// ConfigError indicates a bad or unresolvable generation request.
// Caller's fault; never retried.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return "config: " + e.Msg
}

// ValidationReason is a stable code for request validation failures.
type ValidationReason string

const (
	ReasonEmptyAnswers    ValidationReason = "empty_answers"
	ReasonUnknownQuestion ValidationReason = "unknown_question"
	ReasonWrongAnswerKind ValidationReason = "wrong_answer_kind"
)

// ValidationError indicates a malformed request at the pipeline
// boundary, e.g. an answer referencing a question id absent from the
// exam. Callers branch on Reason, not on the message.
type ValidationError struct {
	Reason ValidationReason
	Msg    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request (%s): %s", e.Reason, e.Msg)
}
