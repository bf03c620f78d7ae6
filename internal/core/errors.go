package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidKind      = errors.New("invalid kind")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidMonthKey  = errors.New("invalid month key")
	ErrFieldTooLong     = errors.New("field too long")
	ErrEmptyOwner       = errors.New("empty owner id")
	ErrEmptyID          = errors.New("empty record id")
	ErrVersionClosed    = errors.New("version already closed")
	ErrRangeBeforeStart = errors.New("selected month precedes version start")

	ErrNotFound             = errors.New("record not found")
	ErrConfirmationRequired = errors.New("destructive operation requires confirmation")
	ErrSignedOut            = errors.New("session signed out")
)

// ValidationError reports invalid user input. It is raised before any store call.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// PersistenceError wraps a failure reported by the record store.
type PersistenceError struct {
	Op         string
	Collection string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// PartialBatchFailure reports a chunked bulk operation that committed some
// chunks before failing. The data is in a mixed state until the operation
// is re-run.
type PartialBatchFailure struct {
	Op        string
	Committed int
	Total     int
	Err       error
}

func (e *PartialBatchFailure) Error() string {
	return fmt.Sprintf("%s: %d of %d chunks committed: %v", e.Op, e.Committed, e.Total, e.Err)
}

func (e *PartialBatchFailure) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPartial reports whether err is (or wraps) a PartialBatchFailure.
func IsPartial(err error) bool {
	var pe *PartialBatchFailure
	return errors.As(err, &pe)
}

// Invalid wraps err as a ValidationError on field.
func Invalid(field string, err error) error {
	return invalid(field, err)
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}
