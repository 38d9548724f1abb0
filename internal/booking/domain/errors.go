package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound is returned when a job id resolves to nothing.
	ErrJobNotFound = errors.New("booking: job not found")

	// ErrUserNotFound is returned when a user id or email resolves to nothing.
	ErrUserNotFound = errors.New("booking: user not found")

	// ErrAlreadyAccepted is returned when an accept lost the race against
	// another translator.
	ErrAlreadyAccepted = errors.New("booking: job already accepted by another translator")

	// ErrTranslatorBusy is returned when the accepting translator already has
	// an active booking at the same due time.
	ErrTranslatorBusy = errors.New("booking: translator already booked at this time")

	// ErrUnknownJobType signals a job_type outside the closed paid/rws/unpaid
	// set. This is a programming error, never a user-facing failure.
	ErrUnknownJobType = errors.New("booking: unmapped job type")
)

// ValidationError tags a rejected input with the offending field so the form
// can highlight it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError builds a field-tagged validation failure.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// PolicyRefusal is a domain-rule rejection with a user-facing explanation,
// such as a translator canceling inside the 24 hour window. It is not a
// system fault.
type PolicyRefusal struct {
	Message string
}

func (e *PolicyRefusal) Error() string { return e.Message }
