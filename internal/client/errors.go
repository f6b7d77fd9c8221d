package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/phrazzld/taskflow-api/internal/domain"
)

var (
	// ErrUnauthorized is returned for 401 responses and for calls made
	// without a token. The session has been cleared when it is returned.
	ErrUnauthorized = errors.New("not authenticated")

	ErrNotFound = errors.New("resource not found")

	ErrConflict = errors.New("resource already exists")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
	Details    []domain.FieldError
	TraceID    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("api error: %d %s", e.StatusCode, e.Message)
}

// Unwrap maps well-known statuses onto sentinel errors, and 400s carrying
// details onto domain validation errors.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusBadRequest:
		if len(e.Details) > 0 {
			return domain.ValidationErrors(e.Details)
		}
	}
	return nil
}
