// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// Specific validation errors wrap this sentinel.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidState is returned when a persisted task state does not
	// match one of the known TaskState values.
	ErrInvalidState = fmt.Errorf("%w: invalid task state", ErrValidation)

	// ErrInvalidAssignmentType is returned when an assignment type is not
	// one of any/one/some.
	ErrInvalidAssignmentType = fmt.Errorf("%w: invalid assignment type", ErrValidation)

	// ErrAlreadyArchived is returned when archiving a task that is already
	// archived. It is deliberately distinct from StateError so callers can
	// report the condition separately.
	ErrAlreadyArchived = errors.New("task is already archived")
)

// StateError reports an illegal lifecycle transition. It names the
// attempted operation, the task's current state, and the states from
// which the operation is legal.
type StateError struct {
	Op      string
	Current TaskState
	Allowed []TaskState
}

// Error implements the error interface.
func (e *StateError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	return fmt.Sprintf(
		"cannot %s task in state %q: requires state %s",
		e.Op,
		e.Current,
		strings.Join(allowed, " or "),
	)
}

// IsStateError reports whether err is a lifecycle StateError or the
// already-archived special case.
func IsStateError(err error) bool {
	var se *StateError
	return errors.As(err, &se) || errors.Is(err, ErrAlreadyArchived)
}
