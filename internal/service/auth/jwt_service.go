package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Token types carried in the "type" claim.
const (
	TokenTypeAccess = "access"
	TokenTypeState  = "oauth_state"
)

// JWTService issues and validates the HS256 tokens used for API access and
// for the OAuth state round trip.
type JWTService interface {
	// GenerateToken creates a signed access token for the user.
	GenerateToken(ctx context.Context, userID uuid.UUID, email string) (string, error)

	// ValidateToken verifies signature, expiry and type and returns the claims.
	// Returns ErrExpiredToken or ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)

	// GenerateStateToken creates a short-lived token bound to an OAuth provider.
	GenerateStateToken(ctx context.Context, provider string) (string, error)

	// ValidateStateToken checks a state token was issued for provider.
	ValidateStateToken(ctx context.Context, tokenString, provider string) error
}

// Claims is the validated content of an access token.
type Claims struct {
	UserID    uuid.UUID `json:"uid,omitempty"`
	Email     string    `json:"email,omitempty"`
	TokenType string    `json:"type,omitempty"`

	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
