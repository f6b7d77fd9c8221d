package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/avatar"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	// Validation errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, shared.ErrInvalidJSON):
		return http.StatusBadRequest

	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Not found errors; tasks owned by someone else land here too
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, auth.ErrUnknownProvider),
		errors.Is(err, service.ErrOAuthDisabled):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, service.ErrIncorrectPassword),
		errors.Is(err, service.ErrOAuthPasswordChange),
		errors.Is(err, service.ErrEmptyUpdate),
		errors.Is(err, service.ErrConfirmationRequired),
		errors.Is(err, auth.ErrInvalidState),
		errors.Is(err, auth.ErrNoEmail),
		errors.Is(err, avatar.ErrEmpty),
		errors.Is(err, avatar.ErrUnsupportedType),
		errors.Is(err, avatar.ErrTooLarge),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, shared.ErrInvalidJSON):
		return "Invalid request format"

	// Checked before ErrValidation: a deletion missing its confirmation is
	// itemized but keeps its own headline.
	case errors.Is(err, service.ErrConfirmationRequired):
		if ve, ok := domain.AsValidationErrors(err); ok && len(ve) > 0 && ve[0].Field == "confirmOAuth" {
			return "Confirmation required for OAuth account deletion"
		}
		return "Password confirmation required"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID):
		return "Validation failed"

	// Authentication errors
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"
	case errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, domain.ErrUnauthorized):
		return "Authentication required"
	case errors.Is(err, service.ErrInvalidCredentials):
		return "Invalid credentials"

	// Not found errors
	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, auth.ErrUnknownProvider),
		errors.Is(err, service.ErrOAuthDisabled):
		return "OAuth provider not available"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	// Conflict errors
	case errors.Is(err, store.ErrEmailExists):
		return "Email address is already in use"
	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	// Bad request errors
	case errors.Is(err, service.ErrIncorrectPassword):
		return "Current password is incorrect"
	case errors.Is(err, service.ErrOAuthPasswordChange):
		return "Cannot change password for OAuth accounts"
	case errors.Is(err, service.ErrEmptyUpdate):
		return "No fields to update"
	case errors.Is(err, auth.ErrInvalidState):
		return "Invalid OAuth state"
	case errors.Is(err, auth.ErrNoEmail):
		return "OAuth provider did not return an email address"
	case errors.Is(err, avatar.ErrEmpty):
		return "No avatar file provided"
	case errors.Is(err, avatar.ErrUnsupportedType):
		return "Only image files are allowed"
	case errors.Is(err, avatar.ErrTooLarge):
		return "File size must be less than 5MB"
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the response for err. Validation errors carry their
// itemized details. fallbackMsg replaces the generic message of a 500.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallbackMsg string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallbackMsg != "" {
		message = fallbackMsg
	}

	var opts []shared.ResponseOption
	if ve, ok := domain.AsValidationErrors(err); ok && status == http.StatusBadRequest {
		opts = append(opts, shared.WithDetails(ve))
	}
	if status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}

	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}
