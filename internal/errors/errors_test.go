package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCranError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("original error")

	// When: wrapping with CranError
	cranErr := New(ErrCodeFileNotFound, "file not found: cran.all.1400", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, cranErr)
	assert.Equal(t, originalErr, errors.Unwrap(cranErr))
	assert.True(t, errors.Is(cranErr, originalErr))
}

func TestCranError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "config error",
			code:     ErrCodeConfigNotFound,
			message:  "config file not found",
			expected: "[ERR_101_CONFIG_NOT_FOUND] config file not found",
		},
		{
			name:     "file error",
			code:     ErrCodeFileNotFound,
			message:  "cran.qry not found",
			expected: "[ERR_201_FILE_NOT_FOUND] cran.qry not found",
		},
		{
			name:     "query error",
			code:     ErrCodeInvalidQuery,
			message:  "cannot parse query 7",
			expected: "[ERR_301_INVALID_QUERY] cannot parse query 7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestCranError_Is_MatchesByCode(t *testing.T) {
	// Given: two errors with same code
	err1 := New(ErrCodeIndexNotFound, "index A missing", nil)
	err2 := New(ErrCodeIndexNotFound, "index B missing", nil)

	// Then: they match by code, but not across codes
	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, New(ErrCodeConfigNotFound, "x", nil)))
}

func TestCranError_WithDetailAndSuggestion(t *testing.T) {
	// Given: a base error
	err := New(ErrCodeFileNotFound, "file not found", nil)

	// When: adding details and a suggestion
	err = err.WithDetail("path", "/data/cran.qry").WithSuggestion("Check the --queries path")

	// Then: both are available
	assert.Equal(t, "/data/cran.qry", err.Details["path"])
	assert.Equal(t, "Check the --queries path", err.Suggestion)
}

func TestCranError_CategoryFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantCategory Category
	}{
		{ErrCodeConfigInvalid, CategoryConfig},
		{ErrCodeUnknownModel, CategoryConfig},
		{ErrCodeFileNotFound, CategoryIO},
		{ErrCodeIndexLocked, CategoryIO},
		{ErrCodeInvalidQuery, CategoryQuery},
		{ErrCodeQueryEmpty, CategoryQuery},
		{ErrCodeUsage, CategoryUsage},
		{ErrCodeInvalidInput, CategoryUsage},
		{ErrCodeInternal, CategoryInternal},
		{"bogus", CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantCategory, err.Category)
		})
	}
}

func TestCranError_SeverityFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantSeverity Severity
	}{
		{ErrCodeCorruptIndex, SeverityFatal},
		{ErrCodeDiskFull, SeverityFatal},
		{ErrCodeFileNotFound, SeverityError},
		{ErrCodeUsage, SeverityError},
		{ErrCodeUnknownModel, SeverityWarning},
		{ErrCodeInvalidQuery, SeverityWarning},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantSeverity, err.Severity)
		})
	}
}

func TestWrap_CreatesCranErrorFromError(t *testing.T) {
	// Given: a standard error
	originalErr := errors.New("something went wrong")

	// When: wrapping with a code
	cranErr := Wrap(ErrCodeInternal, originalErr)

	// Then: creates proper CranError
	require.NotNil(t, cranErr)
	assert.Equal(t, ErrCodeInternal, cranErr.Code)
	assert.Equal(t, "something went wrong", cranErr.Message)
	assert.Equal(t, originalErr, cranErr.Cause)
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestConstructors_AssignCategories(t *testing.T) {
	assert.Equal(t, CategoryUsage, UsageError("missing argument").Category)
	assert.Equal(t, CategoryConfig, ConfigError("bad yaml", nil).Category)
	assert.Equal(t, CategoryIO, IOError("cannot read", nil).Category)
	assert.Equal(t, CategoryQuery, QueryError("cannot parse", nil).Category)
	assert.Equal(t, CategoryInternal, InternalError("boom", nil).Category)
}

func TestIsRecoverable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"config error", ConfigError("unknown model", nil), true},
		{"query error", QueryError("bad query", nil), true},
		{"io error", IOError("missing index", nil), false},
		{"usage error", UsageError("missing args"), false},
		{"wrapped query error", fmt.Errorf("query 3: %w", QueryError("bad", nil)), true},
		{"standard error", errors.New("standard"), false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRecoverable(tt.err))
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, 0},
		{"usage", UsageError("missing args"), 2},
		{"wrapped usage", fmt.Errorf("search: %w", UsageError("missing args")), 2},
		{"io", IOError("cannot open", nil), 1},
		{"plain", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExitCode(tt.err))
		})
	}
}

func TestIsFatal_ChecksFatalSeverity(t *testing.T) {
	assert.True(t, IsFatal(New(ErrCodeCorruptIndex, "index corrupt", nil)))
	assert.True(t, IsFatal(fmt.Errorf("open: %w", New(ErrCodeDiskFull, "no space left", nil))))
	assert.False(t, IsFatal(New(ErrCodeFileNotFound, "not found", nil)))
	assert.False(t, IsFatal(errors.New("standard error")))
}

func TestGetCodeAndCategory(t *testing.T) {
	err := fmt.Errorf("context: %w", New(ErrCodeIndexLocked, "index in use", nil))

	assert.Equal(t, ErrCodeIndexLocked, GetCode(err))
	assert.Equal(t, CategoryIO, GetCategory(err))
	assert.Empty(t, GetCode(errors.New("plain")))
	assert.Empty(t, GetCategory(nil))
}
