package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/phrazzld/taskflow-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user. A plaintext Password, when present, is hashed
	// into HashedPassword and then cleared.
	// Returns ErrEmailExists if the email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by their (normalized) email address.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update replaces an existing user's stored fields. A plaintext Password,
	// when present, is hashed into HashedPassword.
	// Returns ErrUserNotFound or ErrEmailExists.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user. Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}
