package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Structural errors - raised at scan time, abort the run before any write
	ErrNestedFilteredDir ErrorCode = "NESTED_FILTERED_DIR"
	ErrDirBaseMarker     ErrorCode = "DIR_BASE_MARKER"
	ErrOutputConflict    ErrorCode = "OUTPUT_CONFLICT"
	ErrAmbiguousOverlay  ErrorCode = "AMBIGUOUS_OVERLAY"

	// Operational errors - raised per operation, siblings keep running
	ErrFormatParse ErrorCode = "FORMAT_PARSE"
	ErrArrayMerge  ErrorCode = "ARRAY_MERGE"
	ErrFileRead    ErrorCode = "FILE_READ"
	ErrFileWrite   ErrorCode = "FILE_WRITE"
	ErrRename      ErrorCode = "RENAME"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// Manifest errors
	ErrManifestLoad ErrorCode = "MANIFEST_LOAD"
	ErrManifestSave ErrorCode = "MANIFEST_SAVE"
	ErrLockHeld     ErrorCode = "LOCK_HELD"
)

// structuralCodes are the codes that abort a whole run at scan time.
var structuralCodes = map[ErrorCode]bool{
	ErrNestedFilteredDir: true,
	ErrDirBaseMarker:     true,
	ErrOutputConflict:    true,
	ErrAmbiguousOverlay:  true,
}

// SmithError represents a structured error with code and details
type SmithError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *SmithError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *SmithError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *SmithError) Is(target error) bool {
	var targetErr *SmithError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new SmithError with the given code and message
func New(code ErrorCode, message string) *SmithError {
	return &SmithError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new SmithError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *SmithError {
	return &SmithError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a SmithError
func Wrap(err error, code ErrorCode, message string) *SmithError {
	if err == nil {
		return nil
	}
	return &SmithError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *SmithError {
	if err == nil {
		return nil
	}
	return &SmithError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *SmithError) WithDetail(key string, value interface{}) *SmithError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var smithErr *SmithError
	if errors.As(err, &smithErr) {
		return smithErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a SmithError
func GetErrorCode(err error) ErrorCode {
	var smithErr *SmithError
	if errors.As(err, &smithErr) {
		return smithErr.Code
	}
	return ErrUnknown
}

// IsStructural reports whether err carries one of the scan-time codes
// that must abort the whole run before any execution side effect.
func IsStructural(err error) bool {
	var smithErr *SmithError
	if errors.As(err, &smithErr) {
		return structuralCodes[smithErr.Code]
	}
	return false
}
