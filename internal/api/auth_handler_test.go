package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/mocks"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
)

const testFrontend = "https://app.test"

type authFixture struct {
	users  *mocks.MockUserStore
	jwt    *mocks.MockJWTService
	google *mocks.MockOAuthProvider
	router http.Handler
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users: mocks.NewMockUserStore(),
		jwt: &mocks.MockJWTService{
			GenerateTokenFn: func(_ context.Context, userID uuid.UUID, _ string) (string, error) {
				return "token-" + userID.String(), nil
			},
			StateToken: "signed-state",
			ValidateStateTokenFn: func(_ context.Context, state, provider string) error {
				if state != "signed-state" || provider != "google" {
					return auth.ErrInvalidState
				}
				return nil
			},
		},
		google: &mocks.MockOAuthProvider{ProviderName: domain.ProviderGoogle},
	}
	passwords := &mocks.MockPasswordVerifier{
		CompareFn: func(hashed, password string) error {
			if hashed == mocks.MockHash(password) {
				return nil
			}
			return errors.New("mismatch")
		},
	}
	accounts := service.NewAccountService(f.users, f.jwt, passwords,
		map[domain.Provider]auth.OAuthProvider{domain.ProviderGoogle: f.google}, nil)
	h := NewAuthHandler(accounts, testFrontend+"/", nil)
	f.router = testRouter(func(r chi.Router) {
		r.Post("/api/auth/signup", h.Signup)
		r.Post("/api/auth/login", h.Login)
		r.Get("/api/auth/{provider}", h.BeginOAuth)
		r.Get("/api/auth/{provider}/callback", h.OAuthCallback)
	})
	return f
}

func TestAuthHandler_Signup(t *testing.T) {
	t.Parallel()
	f := newAuthFixture()

	w := doRequest(t, f.router, http.MethodPost, "/api/auth/signup", uuid.Nil, map[string]string{
		"name": "Ada", "email": "Ada@Example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decodeBody[AuthResponse](t, w)
	assert.Equal(t, "token-"+resp.User.ID.String(), resp.Token)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.NotContains(t, w.Body.String(), "secret1")
	assert.NotContains(t, w.Body.String(), "hashed:")

	t.Run("duplicate email", func(t *testing.T) {
		w := doRequest(t, f.router, http.MethodPost, "/api/auth/signup", uuid.Nil, map[string]string{
			"name": "Imposter", "email": "ada@example.com", "password": "another1",
		})
		require.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "User already exists", decodeBody[shared.ErrorResponse](t, w).Error)
		assert.Len(t, f.users.Users, 1)
	})

	t.Run("itemized validation", func(t *testing.T) {
		w := doRequest(t, f.router, http.MethodPost, "/api/auth/signup", uuid.Nil, map[string]string{
			"email": "not-an-email",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody[shared.ErrorResponse](t, w)
		assert.Equal(t, "Validation failed", body.Error)
		assert.Len(t, body.Details, 3)
	})

	t.Run("short password", func(t *testing.T) {
		w := doRequest(t, f.router, http.MethodPost, "/api/auth/signup", uuid.Nil, map[string]string{
			"name": "Bob", "email": "bob@example.com", "password": "123",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody[shared.ErrorResponse](t, w)
		require.Len(t, body.Details, 1)
		assert.Equal(t, "password", body.Details[0].Field)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Parallel()
	f := newAuthFixture()
	require.Equal(t, http.StatusCreated, doRequest(t, f.router, http.MethodPost, "/api/auth/signup", uuid.Nil,
		map[string]string{"name": "Ada", "email": "ada@example.com", "password": "secret1"}).Code)
	oauthOnly, err := domain.NewOAuthUser("Octo", "octo@example.com", domain.ProviderGitHub, "7", "")
	require.NoError(t, err)
	require.NoError(t, f.users.Create(context.Background(), oauthOnly))

	w := doRequest(t, f.router, http.MethodPost, "/api/auth/login", uuid.Nil,
		map[string]string{"email": "ADA@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decodeBody[AuthResponse](t, w).Token)

	for name, creds := range map[string]map[string]string{
		"wrong password": {"email": "ada@example.com", "password": "wrong-one"},
		"unknown email":  {"email": "nobody@example.com", "password": "secret1"},
		"oauth only":     {"email": "octo@example.com", "password": "anything"},
	} {
		t.Run(name, func(t *testing.T) {
			w := doRequest(t, f.router, http.MethodPost, "/api/auth/login", uuid.Nil, creds)
			require.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "Invalid credentials", decodeBody[shared.ErrorResponse](t, w).Error)
		})
	}
}

func TestAuthHandler_BeginOAuth(t *testing.T) {
	t.Parallel()
	f := newAuthFixture()

	w := doRequest(t, f.router, http.MethodGet, "/api/auth/google", uuid.Nil, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://provider.test/authorize?state=signed-state", w.Header().Get("Location"))

	w = doRequest(t, f.router, http.MethodGet, "/api/auth/github", uuid.Nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "unconfigured provider")

	w = doRequest(t, f.router, http.MethodGet, "/api/auth/myspace", uuid.Nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "unknown provider")
}

func TestAuthHandler_OAuthCallback(t *testing.T) {
	t.Parallel()

	location := func(t *testing.T, f *authFixture, query string) *url.URL {
		t.Helper()
		w := doRequest(t, f.router, http.MethodGet, "/api/auth/google/callback?"+query, uuid.Nil, nil)
		require.Equal(t, http.StatusFound, w.Code)
		u, err := url.Parse(w.Header().Get("Location"))
		require.NoError(t, err)
		return u
	}

	t.Run("success creates the user and hands over a token", func(t *testing.T) {
		f := newAuthFixture()
		f.google.Profile = &auth.OAuthProfile{
			Provider: domain.ProviderGoogle, ProviderID: "g-1", Email: "Grace@Example.com", Name: "Grace",
		}

		u := location(t, f, "code=abc&state=signed-state")
		assert.Equal(t, "app.test", u.Host)
		assert.Equal(t, "/auth/callback", u.Path)
		assert.Equal(t, "google", u.Query().Get("provider"))

		user, err := f.users.GetByEmail(context.Background(), "grace@example.com")
		require.NoError(t, err)
		assert.Equal(t, "token-"+user.ID.String(), u.Query().Get("token"))
		assert.Equal(t, domain.ProviderGoogle, user.Provider)
	})

	t.Run("forged state", func(t *testing.T) {
		f := newAuthFixture()
		u := location(t, f, "code=abc&state=forged")
		assert.Equal(t, "/auth/login", u.Path)
		assert.Equal(t, "oauth_failed", u.Query().Get("error"))
		assert.Empty(t, f.users.Users)
	})

	t.Run("consent denied", func(t *testing.T) {
		f := newAuthFixture()
		u := location(t, f, "error=access_denied&state=signed-state")
		assert.Equal(t, "oauth_failed", u.Query().Get("error"))
	})

	t.Run("provider without email", func(t *testing.T) {
		f := newAuthFixture()
		f.google.Err = auth.ErrNoEmail
		u := location(t, f, "code=abc&state=signed-state")
		assert.Equal(t, "no_email", u.Query().Get("error"))
	})

	t.Run("exchange failure", func(t *testing.T) {
		f := newAuthFixture()
		f.google.Err = auth.ErrOAuthExchange
		u := location(t, f, "code=bad&state=signed-state")
		assert.Equal(t, "oauth_failed", u.Query().Get("error"))
	})
}
