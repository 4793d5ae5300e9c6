// Package apperr defines the error classes shared by all domain services.
// Every error returned to a handler wraps exactly one of the sentinel
// classes so handlers can map it to an HTTP status with errors.Is.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation marks malformed input: a value that does not parse for a
	// row's kind, or malformed schedule parameters. Raised before any store
	// round trip.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a mutation or lookup against a missing row or entry.
	ErrNotFound = errors.New("not found")

	// ErrOutOfRange marks a mutation targeting an hour before admission.
	ErrOutOfRange = errors.New("out of range")

	// ErrTimeout marks an external call that exceeded its bound. This is the
	// only retryable class; retry policy belongs to the caller.
	ErrTimeout = errors.New("timeout")
)

func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrNotFound}, args...)...)
}

func OutOfRangef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrOutOfRange}, args...)...)
}

// FromStore classifies an error returned by a repository call. Context
// deadline errors become ErrTimeout; everything else passes through.
func FromStore(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

// HTTPStatus maps an error class to the status code handlers respond with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrOutOfRange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
