// Package apperr provides structured errors for munin.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: configuration errors
//   - 2XX: snapshot and index errors
//   - 3XX: backend (embedding/chat service) errors
//   - 4XX: input validation errors
package apperr

import "fmt"

// Error codes organized by category.
const (
	// Config errors (100-199)
	CodeConfigInvalid = "ERR_101_CONFIG_INVALID"

	// Snapshot/index errors (200-299)
	CodeSnapshotCorrupt = "ERR_201_SNAPSHOT_CORRUPT"
	CodeSnapshotVersion = "ERR_202_SNAPSHOT_VERSION"
	CodeSnapshotIO      = "ERR_203_SNAPSHOT_IO"

	// Backend errors (300-399)
	CodeBackendUnavailable = "ERR_301_BACKEND_UNAVAILABLE"
	CodeBackendBadResponse = "ERR_302_BACKEND_BAD_RESPONSE"

	// Validation errors (400-499)
	CodeInvalidInput = "ERR_401_INVALID_INPUT"
	CodeNoteNotFound = "ERR_402_NOTE_NOT_FOUND"
)

// Error is the structured error type for munin.
type Error struct {
	// Code is the unique error code (e.g., "ERR_301_BACKEND_UNAVAILABLE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Cause is the underlying error, if any.
	Cause error

	// Retryable indicates the operation may succeed if retried.
	Retryable bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code so errors.Is works across wrapped chains.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates an Error with the given code and message.
func New(code, message string, cause error) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: code == CodeBackendUnavailable,
	}
}

// BackendUnavailable reports that the embedding/chat service could not be reached.
func BackendUnavailable(message string, cause error) *Error {
	return New(CodeBackendUnavailable, message, cause)
}

// BackendBadResponse reports a non-success or malformed backend response.
func BackendBadResponse(message string, cause error) *Error {
	return New(CodeBackendBadResponse, message, cause)
}

// NoteNotFound reports a lookup for a note that is not in the index.
func NoteNotFound(title string) *Error {
	return New(CodeNoteNotFound, fmt.Sprintf("note %q is not indexed", title), nil)
}

// InvalidInput reports a caller-supplied value that fails validation.
func InvalidInput(message string) *Error {
	return New(CodeInvalidInput, message, nil)
}

// GetCode extracts the error code, or "" if err is not an *Error.
func GetCode(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// IsRetryable reports whether err is an *Error marked retryable.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}
