package detector

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is the base error for inputs the engine refuses to score.
	ErrValidation = errors.New("validation failed")
	// ErrBatchTooLarge rejects a whole batch before any item is analysed.
	ErrBatchTooLarge = fmt.Errorf("%w: batch exceeds %d reviews", ErrValidation, MaxBatchSize)
	// ErrMalformed marks a review that could not be decoded.
	ErrMalformed = errors.New("malformed review")
)

// ValidationError names the offending field of a rejected review.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
