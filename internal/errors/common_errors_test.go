package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_Constants(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		expected string
	}{
		{name: "element not found", errType: ErrTypeElementNotFound, expected: "ELEMENT_NOT_FOUND"},
		{name: "network", errType: ErrTypeNetwork, expected: "NETWORK"},
		{name: "missing column", errType: ErrTypeMissingColumn, expected: "MISSING_COLUMN"},
		{name: "type mismatch", errType: ErrTypeTypeMismatch, expected: "TYPE_MISMATCH"},
		{name: "parsing", errType: ErrTypeParsing, expected: "PARSING"},
		{name: "storage", errType: ErrTypeStorage, expected: "STORAGE"},
		{name: "validation", errType: ErrTypeValidation, expected: "VALIDATION"},
		{name: "config", errType: ErrTypeConfig, expected: "CONFIG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without cause",
			err:  NewAppError(ErrTypeStorage, "database locked", nil),
			want: "[STORAGE] database locked",
		},
		{
			name: "with cause",
			err:  NewNetworkError("download failed", fmt.Errorf("connection reset")),
			want: "[NETWORK] download failed: connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError("commit failed", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, cause, err.Unwrap())
}

func TestAppError_WithContext(t *testing.T) {
	err := &AppError{Type: ErrTypeConfig, Message: "bad value"}
	err.WithContext("field", "fetch.page_url").WithContext("attempt", 1)

	require.NotNil(t, err.Context)
	assert.Equal(t, "fetch.page_url", err.Context["field"])
	assert.Equal(t, 1, err.Context["attempt"])
}

func TestConstructors(t *testing.T) {
	t.Run("element not found", func(t *testing.T) {
		err := NewElementNotFoundError(".download", "http://example.test/page")
		assert.Equal(t, ErrTypeElementNotFound, err.Type)
		assert.Contains(t, err.Error(), ".download")
		assert.Equal(t, "http://example.test/page", err.Context["page_url"])
	})

	t.Run("missing column", func(t *testing.T) {
		err := NewMissingColumnError("Spend")
		assert.Equal(t, ErrTypeMissingColumn, err.Type)
		assert.Equal(t, "Spend", err.Context["column"])
	})

	t.Run("type mismatch", func(t *testing.T) {
		err := NewTypeMismatchError("Visits", 7, "n/a", nil)
		assert.Equal(t, ErrTypeTypeMismatch, err.Type)
		assert.Equal(t, 7, err.Context["row"])
		assert.Contains(t, err.Error(), `"n/a"`)
	})
}

func TestIsType(t *testing.T) {
	wrapped := fmt.Errorf("stage persist: %w", NewStorageError("open failed", nil))

	assert.True(t, IsType(wrapped, ErrTypeStorage))
	assert.False(t, IsType(wrapped, ErrTypeNetwork))
	assert.False(t, IsType(errors.New("plain"), ErrTypeStorage))
	assert.Equal(t, ErrorType(""), TypeOf(nil))
}
