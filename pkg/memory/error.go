package memory

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when a client payload is missing a required
	// field or carries an invalid value. It maps to a client error.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidModality is returned when a modality name is not recognized.
	// It wraps ErrInvalidInput.
	ErrInvalidModality = fmt.Errorf("%w: unknown memory type", ErrInvalidInput)
)

// InputError carries a client-facing reason for rejecting a payload.
// It matches ErrInvalidInput under errors.Is.
type InputError struct {
	Reason string
}

// NewInputError returns an InputError with the given reason.
func NewInputError(reason string) error {
	return &InputError{Reason: reason}
}

func (e *InputError) Error() string {
	return e.Reason
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}
