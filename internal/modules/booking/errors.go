package booking

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("booking not found")
	ErrCarNotFound       = errors.New("car not found")
	ErrConflict          = errors.New("car is already booked for the selected dates")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrPaymentFailed     = errors.New("payment failed")

	// ErrCarQuarantined is returned once the defensive overlap check has
	// found the no-overlap invariant broken for a car; further writes on
	// that car are rejected instead of compounding the corruption.
	ErrCarQuarantined = errors.New("car is quarantined after an invariant violation")
)

// ValidationError reports a malformed or missing input with field detail.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
