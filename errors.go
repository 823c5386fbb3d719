package tracing

import (
	"errors"
	"fmt"
)

var (
	// ErrSpanNotFound classifies operations that reference an unknown span ID.
	// Use errors.Is(err, ErrSpanNotFound) instead of string matching.
	ErrSpanNotFound = errors.New("span not found")

	// ErrSpanFinished classifies operations on a span that already ended
	// and is still retained. Spans that were drained or never sampled are
	// no longer distinguishable and surface ErrSpanNotFound instead.
	ErrSpanFinished = errors.New("span already finished")

	// ErrInvalidConfig classifies configuration validation failures.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ValidationError reports a rejected field with the reason for rejection.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %q: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ValidationError against ErrInvalidConfig.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func spanNotFoundErr(spanID string) error {
	return fmt.Errorf("%w: %s", ErrSpanNotFound, spanID)
}

func spanFinishedErr(spanID string) error {
	return fmt.Errorf("%w: %s", ErrSpanFinished, spanID)
}
