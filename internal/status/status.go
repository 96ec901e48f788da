package status

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyLabel          = errors.New("builder: label must not be empty")
	ErrInvalidCapacity     = errors.New("builder: capacity must be a number greater than zero")
	ErrInvalidAmount       = errors.New("builder: amount is negative or out of range")
	ErrInvalidState        = errors.New("builder: unknown phase state")
	ErrInvalidAmountType   = errors.New("builder: unknown amount type")
	ErrDuplicateIdentifier = errors.New("builder: duplicate identifier")
	ErrLastEntry           = errors.New("builder: must keep at least one entry")
	ErrNotFound            = errors.New("builder: entry not found")

	ErrValidation = errors.New("draft: validation failed")

	ErrDraftNotFound         = errors.New("draft: draft not found")
	ErrDraftBusy             = errors.New("draft: draft is being changed by another request")
	ErrSubmissionInProgress  = errors.New("submission: submission already in progress")
	ErrSubmissionFailed      = errors.New("submission: submission failed")
	ErrCircuitOpen           = errors.New("submission: circuit breaker is open")
	ErrTooManyHalfOpenProbes = errors.New("submission: too many requests while circuit breaker is half open")
)

// FieldError is a recoverable, field-local error raised by a builder
// mutation. The mutation that produced it left the draft unchanged.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Message) }

func (e *FieldError) Unwrap() error { return e.Err }

func NewFieldError(field string, err error, message string) *FieldError {
	return &FieldError{Field: field, Message: message, Err: err}
}
