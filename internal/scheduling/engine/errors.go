package engine

import (
	"errors"
	"fmt"
)

// InvalidInputError reports a malformed caller input: a non-canonical
// WeekSchedule, a negative duration, or a duration outside the studio's
// own policy. It is surfaced immediately; the solver never attempts a
// partial solution against invalid input.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input %q: %s", e.Field, e.Reason)
}

func NewInvalidInputError(field, reason string) *InvalidInputError {
	return &InvalidInputError{Field: field, Reason: reason}
}

// UnschedulableError is returned in strict mode when one or more students
// have an empty domain before search, or when the search finishes without
// placing them. It names every such student so the caller doesn't have to
// re-derive the set.
type UnschedulableError struct {
	StudentIDs []string
}

func (e *UnschedulableError) Error() string {
	return fmt.Sprintf("unschedulable students: %v", e.StudentIDs)
}

func NewUnschedulableError(studentIDs []string) *UnschedulableError {
	return &UnschedulableError{StudentIDs: studentIDs}
}

// InternalError indicates a broken invariant caught by a defensive check.
// Its presence in a returned error always indicates a bug in the engine,
// never a property of the caller's input.
type InternalError struct {
	Invariant string
	Err       error
}

func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("internal error: invariant %q broken: %v", e.Invariant, e.Err)
	}
	return fmt.Sprintf("internal error: invariant %q broken", e.Invariant)
}

func (e *InternalError) Unwrap() error { return e.Err }

func NewInternalError(invariant string, err error) *InternalError {
	return &InternalError{Invariant: invariant, Err: err}
}

// ResourceExhaustedCause names which budget the search hit first.
type ResourceExhaustedCause string

const (
	ResourceExhaustedTime       ResourceExhaustedCause = "time"
	ResourceExhaustedBacktracks ResourceExhaustedCause = "backtracks"
	ResourceExhaustedCancelled  ResourceExhaustedCause = "cancelled"
)

// ResourceExhaustedError documents that a solve hit its time or backtrack
// budget, or was cancelled, before exhausting the search space. It is informational, not
// fatal — callers receive it alongside a still-valid best-effort solution
// via Solve's return value, never in place of one.
type ResourceExhaustedError struct {
	Cause  ResourceExhaustedCause
	Budget int64
}

func (e *ResourceExhaustedError) Error() string {
	return fmt.Sprintf("resource exhausted: %s budget %d reached", e.Cause, e.Budget)
}

func NewResourceExhaustedError(cause ResourceExhaustedCause, budget int64) *ResourceExhaustedError {
	return &ResourceExhaustedError{Cause: cause, Budget: budget}
}

// IsInvalidInput reports whether err is (or wraps) an InvalidInputError.
func IsInvalidInput(err error) bool {
	var target *InvalidInputError
	return errors.As(err, &target)
}

// IsUnschedulable reports whether err is (or wraps) an UnschedulableError.
func IsUnschedulable(err error) bool {
	var target *UnschedulableError
	return errors.As(err, &target)
}

// IsInternal reports whether err is (or wraps) an InternalError.
func IsInternal(err error) bool {
	var target *InternalError
	return errors.As(err, &target)
}

// IsResourceExhausted reports whether err is (or wraps) a ResourceExhaustedError.
func IsResourceExhausted(err error) bool {
	var target *ResourceExhaustedError
	return errors.As(err, &target)
}
