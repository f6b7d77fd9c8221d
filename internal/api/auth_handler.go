package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/redact"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// OAuth failure codes passed to the frontend login page.
const (
	oauthErrorFailed  = "oauth_failed"
	oauthErrorNoEmail = "no_email"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	accounts    service.AccountService
	frontendURL string
	logger      *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. OAuth callbacks redirect to frontendURL.
func NewAuthHandler(accounts service.AccountService, frontendURL string, logger *slog.Logger) *AuthHandler {
	if accounts == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("account service cannot be nil for AuthHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		accounts:    accounts,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger.With(slog.String("component", "auth_handler")),
	}
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.accounts.Signup(r.Context(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			shared.RespondWithErrorAndLog(w, r, http.StatusConflict, "User already exists", err)
			return
		}
		HandleAPIError(w, r, err, "Failed to create user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, AuthResponse{
		Token: result.Token,
		User:  result.User,
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to authenticate user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AuthResponse{
		Token: result.Token,
		User:  result.User,
	})
}

// BeginOAuth handles GET /api/auth/{provider} by redirecting to the provider's
// consent page.
func (h *AuthHandler) BeginOAuth(w http.ResponseWriter, r *http.Request) {
	provider := domain.Provider(chi.URLParam(r, "provider"))

	target, err := h.accounts.OAuthRedirectURL(r.Context(), provider)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start OAuth login")
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

// OAuthCallback handles GET /api/auth/{provider}/callback. Both outcomes
// redirect to the frontend: success carries the token, failure an error code.
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	provider := domain.Provider(chi.URLParam(r, "provider"))
	q := r.URL.Query()

	if denied := q.Get("error"); denied != "" {
		log.Info("oauth consent denied",
			slog.String("provider", string(provider)),
			slog.String("reason", denied))
		h.redirectFailure(w, r, oauthErrorFailed)
		return
	}

	result, err := h.accounts.CompleteOAuth(r.Context(), provider, q.Get("code"), q.Get("state"))
	if err != nil {
		code := oauthErrorFailed
		if errors.Is(err, auth.ErrNoEmail) {
			code = oauthErrorNoEmail
		}
		level := slog.LevelWarn
		if MapErrorToStatusCode(err) == http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.Log(r.Context(), level, "oauth callback failed",
			slog.String("provider", string(provider)),
			slog.String("error", redact.Error(err)))
		h.redirectFailure(w, r, code)
		return
	}

	target := h.frontendURL + "/auth/callback?" + url.Values{
		"token":    {result.Token},
		"provider": {string(provider)},
	}.Encode()
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *AuthHandler) redirectFailure(w http.ResponseWriter, r *http.Request, code string) {
	target := h.frontendURL + "/auth/login?" + url.Values{"error": {code}}.Encode()
	http.Redirect(w, r, target, http.StatusFound)
}
