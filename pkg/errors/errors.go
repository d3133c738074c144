package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates a resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrExternal indicates an upstream API failure
	ErrExternal = errors.New("external service error")
)

// Usage-accounting errors

var (
	// ErrTokenLimitExceeded indicates the user has spent their token budget
	ErrTokenLimitExceeded = errors.New("token limit exceeded")

	// ErrRateLimitExceeded indicates too many requests inside the current window
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// Catalog-sync errors

var (
	// ErrSyncInProgress indicates a catalog sync is already running
	ErrSyncInProgress = errors.New("catalog sync already in progress")

	// ErrMigrationFailed indicates a schema migration could not be applied
	ErrMigrationFailed = errors.New("migration failed")
)

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
