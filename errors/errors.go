package errors

import (
	"errors"
	"fmt"
)

// Common error types for categorization and handling

var (
	// ErrInvalidInput indicates invalid user input, such as a blank question
	ErrInvalidInput = errors.New("invalid input")

	// ErrServiceUnavailable indicates a required service is unavailable
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrDatabaseOperation indicates a knowledge store read or write failed
	ErrDatabaseOperation = errors.New("database operation failed")

	// ErrOracleUnavailable indicates the fallback model produced no answer.
	// Disabled providers, transport failures, bad statuses and malformed
	// bodies all wrap this error.
	ErrOracleUnavailable = errors.New("fallback oracle unavailable")
)

// WrapError wraps an error with context message
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with formatted context message
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Categorize joins a sentinel category with the underlying cause so that
// both remain visible to errors.Is.
func Categorize(category, err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", category, message, err)
}

// IsInvalidInput checks if error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsDatabaseOperation checks if error came from the knowledge store
func IsDatabaseOperation(err error) bool {
	return errors.Is(err, ErrDatabaseOperation)
}

// IsOracleUnavailable checks if error means no fallback answer was obtained
func IsOracleUnavailable(err error) bool {
	return errors.Is(err, ErrOracleUnavailable)
}
