package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskflow-api/internal/store"
)

func TestServiceError_Error(t *testing.T) {
	tests := []struct {
		name     string
		service  string
		op       string
		err      error
		expected string
	}{
		{
			name:     "with underlying error",
			service:  "task",
			op:       "create",
			err:      errors.New("database connection failed"),
			expected: "task service create operation failed: database connection failed",
		},
		{
			name:     "without underlying error",
			service:  "profile",
			op:       "delete",
			expected: "profile service delete operation failed",
		},
		{
			name:     "with sentinel error",
			service:  "account",
			op:       "login",
			err:      ErrInvalidCredentials,
			expected: "account service login operation failed: invalid credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceErr := &ServiceError{Service: tt.service, Op: tt.op, Err: tt.err}
			assert.Equal(t, tt.expected, serviceErr.Error())
		})
	}
}

func TestServiceError_ErrorsIsAndAs(t *testing.T) {
	wrapped := NewServiceError("task", "get", store.ErrTaskNotFound)
	assert.ErrorIs(t, wrapped, store.ErrTaskNotFound)
	assert.ErrorIs(t, wrapped, store.ErrNotFound)
	assert.False(t, errors.Is(wrapped, store.ErrDuplicate))

	outer := NewServiceError("profile", "get", wrapped)
	var serviceErr *ServiceError
	require.True(t, errors.As(outer, &serviceErr))
	assert.Equal(t, "profile", serviceErr.Service)
	require.True(t, errors.As(serviceErr.Err, &serviceErr))
	assert.Equal(t, "task", serviceErr.Service)
}

func TestNewServiceErrorNil(t *testing.T) {
	assert.NoError(t, NewServiceError("task", "list", nil))
}
