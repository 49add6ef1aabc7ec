package service

import (
	"errors"
	"fmt"

	"notebook-ai/internal/indexer"
	"notebook-ai/internal/llm"
	"notebook-ai/internal/search"
	"notebook-ai/internal/storage"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrRateLimited is returned when an upstream model provider throttles requests.
	ErrRateLimited = errors.New("rate limited")
	// ErrExternalService is returned when an external service call fails.
	ErrExternalService = errors.New("external service error")
	// ErrInternal is returned for faults that indicate a bug or corrupted state.
	ErrInternal = errors.New("internal error")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Is makes every ValidationError match ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// translateError maps lower-layer errors onto the service taxonomy. Errors that match
// nothing known are tagged with fallback. The original error stays in the chain.
func translateError(err error, msg string, fallback error) error {
	if err == nil {
		return nil
	}

	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		return WrapError(err, msg)
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%s: %w: %w", msg, ErrNotFound, err)
	case errors.Is(err, llm.ErrRateLimited):
		return fmt.Errorf("%s: %w: %w", msg, ErrRateLimited, err)
	case errors.Is(err, search.ErrDataInconsistency):
		return fmt.Errorf("%s: %w: %w", msg, ErrInternal, err)
	case errors.Is(err, indexer.ErrNotPublished):
		return fmt.Errorf("%s: %w: %w", msg, ErrInvalidInput, err)
	case fallback != nil:
		return fmt.Errorf("%s: %w: %w", msg, fallback, err)
	default:
		return WrapError(err, msg)
	}
}
