package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents an acrobot error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"    // 400
	ErrNotFound          ErrorCode = "NOT_FOUND"          // 404
	ErrFileNotFound      ErrorCode = "FILE_NOT_FOUND"     // 404
	ErrKeyAlreadyExists  ErrorCode = "KEY_ALREADY_EXISTS" // 409
	ErrConfiguration     ErrorCode = "CONFIGURATION"      // 422
	ErrCancelled         ErrorCode = "CANCELLED"          // 499
	ErrInternal          ErrorCode = "INTERNAL"           // 500
	ErrSourceUnavailable ErrorCode = "SOURCE_UNAVAILABLE" // 502
)

// AcroError represents a structured error with code, status, and details.
type AcroError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	cause   error
}

// Error implements the error interface.
func (e *AcroError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *AcroError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *AcroError {
	return &AcroError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when an acronym cannot be found.
func NewNotFound(id int64) *AcroError {
	return &AcroError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("acronym not found: %d", id),
		Details: map[string]any{"id": id},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *AcroError {
	return &AcroError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewKeyAlreadyExists creates a 409 error when an imported key collides with an existing acronym.
func NewKeyAlreadyExists(key string) *AcroError {
	return &AcroError{
		Code:    ErrKeyAlreadyExists,
		Status:  409,
		Message: fmt.Sprintf("acronym with key %q already exists", key),
		Details: map[string]any{"key": key},
	}
}

// NewEmptyVocabulary creates a configuration error for a scan with no acronyms to match.
func NewEmptyVocabulary() *AcroError {
	return &AcroError{
		Code:    ErrConfiguration,
		Status:  422,
		Message: "vocabulary is empty; add an acronym first",
	}
}

// NewBadPattern creates a configuration error naming the pattern that failed to compile.
// acronymID is zero when the pattern is not yet attached to a stored acronym.
func NewBadPattern(position int, pattern string, acronymID int64, cause error) *AcroError {
	details := map[string]any{"position": position, "pattern": pattern}
	if acronymID != 0 {
		details["acronym_id"] = acronymID
	}
	return &AcroError{
		Code:    ErrConfiguration,
		Status:  422,
		Message: fmt.Sprintf("pattern %q does not compile: %v", pattern, cause),
		Details: details,
		cause:   cause,
	}
}

// NewConfiguration creates a generic configuration error.
func NewConfiguration(msg string) *AcroError {
	return &AcroError{
		Code:    ErrConfiguration,
		Status:  422,
		Message: msg,
	}
}

// NewSourceUnavailable creates a 502 error when the message stream fails mid-batch.
// scanned is the number of messages consumed before the failure.
func NewSourceUnavailable(scanned int, cause error) *AcroError {
	msg := "message source unavailable"
	if cause != nil {
		msg = fmt.Sprintf("message source unavailable: %v", cause)
	}
	return &AcroError{
		Code:    ErrSourceUnavailable,
		Status:  502,
		Message: msg,
		Details: map[string]any{"scanned": scanned},
		cause:   cause,
	}
}

// NewCancelled creates an error for an operation stopped by context cancellation.
func NewCancelled(op string) *AcroError {
	return &AcroError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message stays generic; the original error is kept in Details for logging.
func NewInternal(err error) *AcroError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &AcroError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
		cause:   err,
	}
}

// Is checks if an error is (or wraps) an AcroError with the given code.
func Is(err error, code ErrorCode) bool {
	var aErr *AcroError
	if stderrors.As(err, &aErr) {
		return aErr.Code == code
	}
	return false
}
