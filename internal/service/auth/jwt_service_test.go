package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskflow-api/internal/config"
)

const (
	testSecret  = "test-secret-that-is-long-enough-for-testing"
	wrongSecret = "wrong-secret-that-is-long-enough-for-testing"
)

var fixedTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func testService(t *testing.T, secret string, now time.Time) *hmacJWTService {
	t.Helper()
	svc, err := newJWTService(config.AuthConfig{
		JWTSecret:            secret,
		TokenLifetimeMinutes: 60,
	}, func() time.Time { return now })
	require.NoError(t, err)
	return svc
}

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short", TokenLifetimeMinutes: 60})
	assert.Error(t, err)

	_, err = NewJWTService(config.AuthConfig{JWTSecret: testSecret})
	assert.Error(t, err)

	svc, err := NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 10080})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()
	svc := testService(t, testSecret, fixedTime)
	userID := uuid.New()

	token, err := svc.GenerateToken(context.Background(), userID, "ada@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)
}

func TestValidateToken(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	issuer := testService(t, testSecret, fixedTime)
	token, err := issuer.GenerateToken(context.Background(), userID, "ada@example.com")
	require.NoError(t, err)

	state, err := issuer.GenerateStateToken(context.Background(), "github")
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"uid":  userID.String(),
		"type": "access",
		"exp":  fixedTime.Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		svc     *hmacJWTService
		token   string
		wantErr error
	}{
		{"valid token", issuer, token, nil},
		{"within clock skew", testService(t, testSecret, fixedTime.Add(time.Hour+time.Minute)), token, nil},
		{"expired token", testService(t, testSecret, fixedTime.Add(2*time.Hour)), token, ErrExpiredToken},
		{"invalid signature", testService(t, wrongSecret, fixedTime), token, ErrInvalidToken},
		{"malformed token", issuer, "this.is.not.a.valid.jwt.token", ErrInvalidToken},
		{"empty token", issuer, "", ErrInvalidToken},
		{"state token is not an access token", issuer, state, ErrInvalidToken},
		{"unsigned token", issuer, noneToken, ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := tt.svc.ValidateToken(context.Background(), tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, claims.UserID)
		})
	}
}

func TestStateToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := testService(t, testSecret, fixedTime)

	state, err := svc.GenerateStateToken(ctx, "google")
	require.NoError(t, err)

	assert.NoError(t, svc.ValidateStateToken(ctx, state, "google"))
	assert.ErrorIs(t, svc.ValidateStateToken(ctx, state, "github"), ErrInvalidState)
	assert.ErrorIs(t, svc.ValidateStateToken(ctx, "garbage", "google"), ErrInvalidState)

	late := testService(t, testSecret, fixedTime.Add(stateTokenLifetime+5*time.Minute))
	assert.ErrorIs(t, late.ValidateStateToken(ctx, state, "google"), ErrInvalidState)

	access, err := svc.GenerateToken(ctx, uuid.New(), "a@b.co")
	require.NoError(t, err)
	assert.ErrorIs(t, svc.ValidateStateToken(ctx, access, "google"), ErrInvalidState)
}
