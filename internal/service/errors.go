package service

import (
	"errors"
	"fmt"
)

// --- Error Definitions ---

// ErrNotFound is the root of every not-found condition. Missing records,
// records owned by someone else and records in the wrong state all wrap it
// so callers cannot tell them apart.
var ErrNotFound = errors.New("not found")

var (
	ErrKidNotFound        = fmt.Errorf("kid %w", ErrNotFound)
	ErrRoutineNotFound    = fmt.Errorf("routine %w", ErrNotFound)
	ErrAssignmentNotFound = fmt.Errorf("assignment %w", ErrNotFound)
	ErrSessionNotFound    = fmt.Errorf("training session %w", ErrNotFound)
	ErrExerciseNotFound   = fmt.Errorf("exercise %w", ErrNotFound)
	ErrMediaNotFound      = fmt.Errorf("media %w", ErrNotFound)
)

var (
	// ErrCascadeConflict means session completion kept colliding with a
	// concurrent write. Nothing was applied; the whole call may be retried.
	ErrCascadeConflict = errors.New("training session completion conflicted with a concurrent update, retry")
	ErrAccessDenied    = errors.New("access denied to modify or delete this resource")
)

// ValidationError reports an input field outside its declared bounds.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
