package service

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the services. The API layer maps each onto a
// status code and a safe message.
var (
	// ErrInvalidCredentials covers an unknown email, a wrong password, and a
	// password login against an OAuth-only account.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrIncorrectPassword is returned when a supplied current password does not match.
	ErrIncorrectPassword = errors.New("current password is incorrect")

	// ErrOAuthPasswordChange is returned when an account without a password
	// asks to change it.
	ErrOAuthPasswordChange = errors.New("cannot change password for oauth accounts")

	// ErrConfirmationRequired is returned when account deletion lacks the
	// password or the OAuth confirmation flag.
	ErrConfirmationRequired = errors.New("deletion confirmation required")

	// ErrEmptyUpdate is returned by a task update that changes nothing.
	ErrEmptyUpdate = errors.New("no fields to update")

	// ErrOAuthDisabled is returned when a provider has no credentials configured.
	ErrOAuthDisabled = errors.New("oauth provider not configured")
)

// ServiceError wraps an unexpected failure with the service and operation
// that produced it.
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Op, e.Err)
	}
	return fmt.Sprintf("%s service %s operation failed", e.Service, e.Op)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError wraps err, or returns nil when err is nil.
func NewServiceError(service, op string, err error) error {
	if err == nil {
		return nil
	}
	return &ServiceError{Service: service, Op: op, Err: err}
}
