package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"generic error", errors.New("some error"), false},
		{"ErrNotFound", ErrNotFound, true},
		{"wrapped ErrNotFound", fmt.Errorf("lookup: %w", ErrNotFound), true},
		{"ErrUserNotFound", ErrUserNotFound, true},
		{"ErrTaskNotFound", ErrTaskNotFound, true},
		{"wrapped ErrTaskNotFound", fmt.Errorf("get task: %w", ErrTaskNotFound), true},
		{"duplicate is not not-found", ErrEmailExists, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsNotFoundError(tt.err))
		})
	}
}

func TestIsDuplicateError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"generic error", errors.New("some error"), false},
		{"ErrDuplicate", ErrDuplicate, true},
		{"ErrEmailExists", ErrEmailExists, true},
		{"wrapped ErrEmailExists", fmt.Errorf("create user: %w", ErrEmailExists), true},
		{"not-found is not duplicate", ErrTaskNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsDuplicateError(tt.err))
		})
	}
}

func TestStoreError(t *testing.T) {
	t.Parallel()
	originalErr := errors.New("database connection failed")
	storeErr := NewStoreError("task", "create", "database error", originalErr)

	assert.Equal(t, "create operation on task failed: database error: database connection failed", storeErr.Error())
	assert.ErrorIs(t, storeErr, originalErr)

	bare := NewStoreError("user", "delete", "nothing deleted", nil)
	assert.Equal(t, "delete operation on user failed: nothing deleted", bare.Error())
	assert.Nil(t, bare.Unwrap())

	wrapped := NewStoreError("task", "get", "lookup failed", ErrTaskNotFound)
	assert.True(t, IsNotFoundError(wrapped))
}
