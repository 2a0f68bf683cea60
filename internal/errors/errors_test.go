package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		expected string
	}{
		{
			name: "error with wrapped error",
			appError: &AppError{
				Type:    ErrorTypeValidation,
				Message: "cannot rename key",
				Err:     ErrDuplicateKey,
			},
			expected: "validation: cannot rename key: a sibling with this key already exists",
		},
		{
			name: "error without wrapped error",
			appError: &AppError{
				Type:    ErrorTypeParsing,
				Message: "invalid JSON syntax",
			},
			expected: "parsing: invalid JSON syntax",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	appErr := NewMutationError("cannot delete", ErrPathNotFound)

	assert.Equal(t, ErrPathNotFound, appErr.Unwrap())
	assert.True(t, errors.Is(appErr, ErrPathNotFound))
}

func TestAppError_Is(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		target   error
		expected bool
	}{
		{
			name:     "same type",
			appError: NewIOError("clipboard write denied", nil),
			target:   &AppError{Type: ErrorTypeIO, Message: "other"},
			expected: true,
		},
		{
			name:     "different type",
			appError: NewIOError("clipboard write denied", nil),
			target:   &AppError{Type: ErrorTypeStorage},
			expected: false,
		},
		{
			name:     "not an AppError",
			appError: NewIOError("clipboard write denied", nil),
			target:   errors.New("standard error"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appError.Is(tt.target))
		})
	}
}

func TestTypeOf(t *testing.T) {
	wrapped := fmt.Errorf("editor: %w", NewValidationError("empty key", ErrEmptyKey))

	assert.Equal(t, ErrorTypeValidation, TypeOf(wrapped))
	assert.True(t, IsValidation(wrapped))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(errors.New("plain")))
	assert.False(t, IsValidation(NewParsingError("bad", nil)))
}

func TestUserFriendlyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "input error",
			err:      NewInputError("failed to read file", nil),
			expected: "Input error: failed to read file",
		},
		{
			name:     "parsing error",
			err:      NewParsingError("invalid JSON syntax", nil),
			expected: "JSON parsing error: invalid JSON syntax",
		},
		{
			name:     "validation error",
			err:      NewValidationError("key name cannot be empty", ErrEmptyKey),
			expected: "Invalid input: key name cannot be empty",
		},
		{
			name:     "mutation error",
			err:      NewMutationError("path does not resolve to a node", ErrPathNotFound),
			expected: "Cannot change the tree: path does not resolve to a node",
		},
		{
			name:     "storage error",
			err:      NewStorageError("failed to write text", nil),
			expected: "Storage error: failed to write text",
		},
		{
			name:     "io error",
			err:      NewIOError("clipboard write denied", ErrClipboard),
			expected: "I/O error: clipboard write denied",
		},
		{
			name:     "config error",
			err:      NewConfigError("invalid indent", nil),
			expected: "Configuration error: invalid indent",
		},
		{
			name:     "output error",
			err:      NewOutputError("failed to write output", nil),
			expected: "Output error: failed to write output",
		},
		{
			name:     "standard error - empty input",
			err:      ErrEmptyInput,
			expected: "Error: The input is empty. Please provide valid JSON data.",
		},
		{
			name:     "standard error - invalid JSON",
			err:      ErrInvalidJSON,
			expected: "Error: The input contains invalid JSON. Please check your JSON syntax.",
		},
		{
			name:     "unknown error",
			err:      errors.New("some unknown error"),
			expected: "Error: some unknown error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, UserFriendlyError(tt.err))
		})
	}
}
