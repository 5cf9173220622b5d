package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrTemporary        = errors.New("temporary failure")
	ErrExtraction       = errors.New("extraction failed")
	ErrInsufficientText = errors.New("insufficient text")
	ErrPersistence      = errors.New("model persistence failed")
	ErrModelUnavailable = errors.New("model unavailable")
	ErrCorruptArtifact  = errors.New("corrupt model artifact")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// ErrorKind returns a stable machine-readable name for the semantic kind of err.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsKind(err, ErrExtraction):
		return "extraction_error"
	case IsKind(err, ErrInsufficientText):
		return "insufficient_text"
	case IsKind(err, ErrModelUnavailable):
		return "model_unavailable"
	case IsKind(err, ErrPersistence):
		return "persistence_error"
	case IsKind(err, ErrUnauthorized):
		return "unauthorized"
	case IsKind(err, ErrInvalidInput):
		return "invalid_input"
	case IsKind(err, ErrTemporary):
		return "temporary"
	default:
		return "internal"
	}
}
