package mocks

import (
	"context"

	"github.com/google/uuid"

	"github.com/phrazzld/taskflow-api/internal/service/auth"
)

// MockJWTService implements auth.JWTService for testing
type MockJWTService struct {
	GenerateTokenFn      func(ctx context.Context, userID uuid.UUID, email string) (string, error)
	ValidateTokenFn      func(ctx context.Context, tokenString string) (*auth.Claims, error)
	GenerateStateTokenFn func(ctx context.Context, provider string) (string, error)
	ValidateStateTokenFn func(ctx context.Context, tokenString, provider string) error

	// Default values used when functions aren't explicitly defined
	Token       string
	StateToken  string
	Err         error
	ValidateErr error
	Claims      *auth.Claims
}

var _ auth.JWTService = (*MockJWTService)(nil)

// GenerateToken implements the auth.JWTService interface
func (m *MockJWTService) GenerateToken(ctx context.Context, userID uuid.UUID, email string) (string, error) {
	if m.GenerateTokenFn != nil {
		return m.GenerateTokenFn(ctx, userID, email)
	}
	return m.Token, m.Err
}

// ValidateToken implements the auth.JWTService interface
func (m *MockJWTService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, tokenString)
	}
	return m.Claims, m.ValidateErr
}

// GenerateStateToken implements the auth.JWTService interface
func (m *MockJWTService) GenerateStateToken(ctx context.Context, provider string) (string, error) {
	if m.GenerateStateTokenFn != nil {
		return m.GenerateStateTokenFn(ctx, provider)
	}
	return m.StateToken, m.Err
}

// ValidateStateToken implements the auth.JWTService interface
func (m *MockJWTService) ValidateStateToken(ctx context.Context, tokenString, provider string) error {
	if m.ValidateStateTokenFn != nil {
		return m.ValidateStateTokenFn(ctx, tokenString, provider)
	}
	return m.ValidateErr
}
