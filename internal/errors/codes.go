// Package errors provides structured error handling for cranir.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors (recoverable, a default applies)
//   - 2XX: IO errors (file, disk, index directory)
//   - 3XX: Query errors (one query is skipped, the batch continues)
//   - 4XX: Usage errors (bad or missing arguments)
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file, disk and index directory errors.
	CategoryIO Category = "IO"
	// CategoryQuery indicates a single query could not be parsed or run.
	CategoryQuery Category = "QUERY"
	// CategoryUsage indicates the command line was wrong.
	CategoryUsage Category = "USAGE"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"
	ErrCodeUnknownModel   = "ERR_103_UNKNOWN_MODEL"
	ErrCodeModelFallback  = "ERR_104_MODEL_UNAVAILABLE"

	// IO errors (200-299)
	ErrCodeFileNotFound   = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission = "ERR_202_FILE_PERMISSION"
	ErrCodeDiskFull       = "ERR_203_DISK_FULL"
	ErrCodeIndexNotFound  = "ERR_204_INDEX_NOT_FOUND"
	ErrCodeCorruptIndex   = "ERR_205_CORRUPT_INDEX"
	ErrCodeIndexLocked    = "ERR_206_INDEX_LOCKED"
	ErrCodeWriteFailed    = "ERR_207_WRITE_FAILED"
	ErrCodeInvalidRunFile = "ERR_208_INVALID_RUN_FILE"

	// Query errors (300-399)
	ErrCodeInvalidQuery = "ERR_301_INVALID_QUERY"
	ErrCodeQueryEmpty   = "ERR_302_QUERY_EMPTY"
	ErrCodeQueryFailed  = "ERR_303_QUERY_FAILED"

	// Usage errors (400-499)
	ErrCodeUsage        = "ERR_401_USAGE"
	ErrCodeInvalidInput = "ERR_402_INVALID_INPUT"

	// Internal errors (500-599)
	ErrCodeInternal     = "ERR_501_INTERNAL"
	ErrCodeIndexFailed  = "ERR_502_INDEX_FAILED"
	ErrCodeSearchFailed = "ERR_503_SEARCH_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Numeric portion, e.g. "101" from "ERR_101_CONFIG_NOT_FOUND"
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryQuery
	case '4':
		return CategoryUsage
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCorruptIndex, ErrCodeDiskFull:
		return SeverityFatal
	}

	if isRecoverableCode(code) {
		return SeverityWarning
	}
	return SeverityError
}

// isRecoverableCode reports whether processing continues after an error with
// this code. Config errors fall back to a default, query errors skip a query.
func isRecoverableCode(code string) bool {
	switch categoryFromCode(code) {
	case CategoryConfig, CategoryQuery:
		return true
	default:
		return false
	}
}
