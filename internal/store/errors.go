package store

import (
	"errors"
	"fmt"
)

// ErrNotFound lets callers match any missing-artifact error with
// errors.Is without caring which kind of artifact it was.
var ErrNotFound = errors.New("not found")

// NotFoundError reports a referenced artifact that does not exist in
// the store.
type NotFoundError struct {
	Kind string // "exam", "grade"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
