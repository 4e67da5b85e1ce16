package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Sentinel errors for errors.Is() checking.
var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrInvalidReorder   = errors.New("invalid reorder")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrVersionConflict  = errors.New("version conflict")
	ErrBusy             = errors.New("board busy")
	ErrDuplicateID      = errors.New("duplicate id")
	ErrValidation       = errors.New("validation error")
	ErrUnavailable      = errors.New("unavailable")
)

// MsgRequired is the validation message for mandatory fields.
const MsgRequired = "is required"

// ValidationError provides programmatic access to field-level validation failures.
// Use errors.Is(err, ErrValidation) for simple checks, or errors.As(err, &verr) to
// access verr.Fields for per-field error details.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	slices.Sort(parts)
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ReorderError reports why a proposed ordering is not a permutation of the
// current one. Missing holds ids present now but absent from the proposal;
// Unexpected holds ids in the proposal that are unknown or repeated.
type ReorderError struct {
	Missing    []string
	Unexpected []string
}

func (e *ReorderError) Error() string {
	return fmt.Sprintf("%s: missing [%s], unexpected [%s]",
		ErrInvalidReorder.Error(),
		strings.Join(e.Missing, ", "),
		strings.Join(e.Unexpected, ", "),
	)
}

func (e *ReorderError) Unwrap() error {
	return ErrInvalidReorder
}

// ConcealedError is returned when a board is either missing or not visible to
// the caller. It matches both ErrNotFound and ErrUnauthorized so internal code
// can still tell them apart, while its message is identical in both cases.
type ConcealedError struct {
	BoardID string
}

// Concealed builds the error returned for boards the caller may not see.
func Concealed(boardID string) *ConcealedError {
	return &ConcealedError{BoardID: boardID}
}

func (e *ConcealedError) Error() string {
	return "board not found"
}

// Is reports whether target is ErrNotFound or ErrUnauthorized.
func (e *ConcealedError) Is(target error) bool {
	return target == ErrNotFound || target == ErrUnauthorized
}

// InvalidOperation wraps ErrInvalidOperation with a reason.
func InvalidOperation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperation, fmt.Sprintf(format, args...))
}

// Retryable reports whether a caller may retry the failed operation as-is.
func Retryable(err error) bool {
	return errors.Is(err, ErrVersionConflict) ||
		errors.Is(err, ErrBusy) ||
		errors.Is(err, ErrUnavailable)
}
