package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common error types for categorization and handling

var (
	// ErrNotFound indicates a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid user input
	ErrInvalidInput = errors.New("invalid input")

	// ErrMethodNotAllowed indicates an unsupported HTTP verb
	ErrMethodNotAllowed = errors.New("method not allowed")

	// ErrConfiguration indicates a required credential or setting is missing
	ErrConfiguration = errors.New("server configuration error")

	// ErrServiceUnavailable indicates a required service is unavailable
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrUpstream indicates the assistant service did not complete the run
	ErrUpstream = errors.New("assistant run failed")

	// ErrAnalytics indicates an analytics storage operation failed
	ErrAnalytics = errors.New("analytics operation failed")

	// ErrDatabaseOperation indicates a database operation failed
	ErrDatabaseOperation = errors.New("database operation failed")
)

// WrapError wraps an error with context message and stack
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

// WrapCause tags a lower-level failure with a sentinel category, keeping both
// in the chain: "message: cause: sentinel".
func WrapCause(sentinel, cause error, message string) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", message, cause, sentinel)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// IsNotFound checks if error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput checks if error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConfiguration checks if error is a configuration error
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsUpstream checks if error came from a failed assistant run
func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstream)
}

// IsAnalytics checks if error came from recording or reading question analytics
func IsAnalytics(err error) bool {
	return errors.Is(err, ErrAnalytics)
}

// IsDatabaseOperation checks if error is a database operation error
func IsDatabaseOperation(err error) bool {
	return errors.Is(err, ErrDatabaseOperation)
}

// IsServiceUnavailable checks if error is a service unavailable error
func IsServiceUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

var sentinels = []error{
	ErrNotFound, ErrInvalidInput, ErrMethodNotAllowed, ErrConfiguration,
	ErrServiceUnavailable, ErrUpstream, ErrAnalytics, ErrDatabaseOperation,
}

// Detail returns the error's context message without the trailing sentinel
// text added by WrapError, for showing to API clients.
func Detail(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, s := range sentinels {
		if errors.Is(err, s) {
			if trimmed := strings.TrimSuffix(msg, ": "+s.Error()); trimmed != msg {
				return trimmed
			}
		}
	}
	return msg
}

// HTTPStatus maps an error to the status code returned to clients.
// Anything outside the client-error taxonomy is a 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
