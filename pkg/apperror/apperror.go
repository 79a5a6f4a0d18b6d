// Package apperror holds the error kinds shared by services and handlers.
// Services wrap a kind with context; handlers map kinds to HTTP status with
// errors.Is.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrConflict         = errors.New("invalid state")
	ErrGateway          = errors.New("payment gateway error")
	ErrSignature        = errors.New("invalid signature")
)

// ValidationError carries per-field messages
type ValidationError struct {
	Fields map[string]string
	msg    string
}

func (e *ValidationError) Error() string {
	if e.msg != "" {
		return e.msg
	}
	return ErrValidation.Error()
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Validation builds a ValidationError from a field map
func Validation(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}

// Invalid builds a single-field ValidationError
func Invalid(field, message string) error {
	return &ValidationError{
		Fields: map[string]string{field: message},
		msg:    fmt.Sprintf("%s: %s", field, message),
	}
}

// GatewayError wraps a failed remote call and keeps the detail for the caller
type GatewayError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *GatewayError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
	default:
		return e.Op
	}
}

func (e *GatewayError) Is(target error) bool { return target == ErrGateway }

func (e *GatewayError) Unwrap() error { return e.Err }

// Wrap attaches a kind to a message so errors.Is matches the kind
func Wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), kind)
}
