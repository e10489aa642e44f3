package errors

import (
	stderrors "errors"
	"fmt"
)

// CranError is the structured error type for cranir.
// It carries enough context to decide whether a run aborts, degrades or
// skips one item, and how the failure is shown to the user.
type CranError struct {
	// Code is the unique error code (e.g., "ERR_201_FILE_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Query, Usage, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *CranError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *CranError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
func (e *CranError) Is(target error) bool {
	if t, ok := target.(*CranError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *CranError) WithDetail(key, value string) *CranError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *CranError) WithSuggestion(suggestion string) *CranError {
	e.Suggestion = suggestion
	return e
}

// New creates a new CranError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *CranError {
	return &CranError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a CranError from an existing error.
// The error's message becomes the CranError message.
func Wrap(code string, err error) *CranError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// UsageError reports a malformed command line.
func UsageError(message string) *CranError {
	return New(ErrCodeUsage, message, nil)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *CranError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates an I/O-related error.
func IOError(message string, cause error) *CranError {
	return New(ErrCodeFileNotFound, message, cause)
}

// QueryError reports a single query that could not be parsed or executed.
func QueryError(message string, cause error) *CranError {
	return New(ErrCodeInvalidQuery, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *CranError {
	return New(ErrCodeInternal, message, cause)
}

// As returns the first CranError in err's chain.
func As(err error) (*CranError, bool) {
	var ce *CranError
	if stderrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsRecoverable reports whether processing can continue after err.
func IsRecoverable(err error) bool {
	ce, ok := As(err)
	if !ok {
		return false
	}
	return isRecoverableCode(ce.Code)
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	ce, ok := As(err)
	return ok && ce.Severity == SeverityFatal
}

// IsUsage reports whether err is a usage error.
func IsUsage(err error) bool {
	ce, ok := As(err)
	return ok && ce.Category == CategoryUsage
}

// GetCode extracts the error code from a CranError.
// Returns empty string if err carries none.
func GetCode(err error) string {
	if ce, ok := As(err); ok {
		return ce.Code
	}
	return ""
}

// GetCategory extracts the category from a CranError.
// Returns empty string if err carries none.
func GetCategory(err error) Category {
	if ce, ok := As(err); ok {
		return ce.Category
	}
	return ""
}

// ExitCode maps an error to the process exit status.
// Usage errors exit with 2, any other failure with 1.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case IsUsage(err):
		return 2
	default:
		return 1
	}
}
