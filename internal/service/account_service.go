package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// AuthResult is a freshly issued access token and the user it belongs to.
type AuthResult struct {
	Token string
	User  *domain.User
}

// SignupInput is the data needed to register a password account.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// AccountService registers users and signs them in.
type AccountService interface {
	Signup(ctx context.Context, in SignupInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)

	// OAuthRedirectURL returns the provider consent URL carrying a signed state.
	OAuthRedirectURL(ctx context.Context, provider domain.Provider) (string, error)
	// CompleteOAuth verifies state, exchanges code with the provider, and
	// finds or creates the user by email.
	CompleteOAuth(ctx context.Context, provider domain.Provider, code, state string) (*AuthResult, error)
}

type accountServiceImpl struct {
	users     store.UserStore
	jwt       auth.JWTService
	passwords auth.PasswordVerifier
	providers map[domain.Provider]auth.OAuthProvider
	logger    *slog.Logger
}

// NewAccountService creates an AccountService. providers may be empty, in
// which case every OAuth call fails with ErrOAuthDisabled.
func NewAccountService(
	users store.UserStore,
	jwtService auth.JWTService,
	passwords auth.PasswordVerifier,
	providers map[domain.Provider]auth.OAuthProvider,
	logger *slog.Logger,
) AccountService {
	if users == nil || jwtService == nil || passwords == nil {
		panic("account service dependencies cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &accountServiceImpl{
		users:     users,
		jwt:       jwtService,
		passwords: passwords,
		providers: providers,
		logger:    logger.With(slog.String("component", "account_service")),
	}
}

// Signup creates a password account. A taken email yields store.ErrEmailExists
// and nothing is written.
func (s *accountServiceImpl) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(in.Name, in.Email, in.Password)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			log.Debug("signup with existing email")
			return nil, err
		}
		log.Error("failed to create user", slog.String("error", err.Error()))
		return nil, NewServiceError("account", "signup", err)
	}

	log.Info("user registered", slog.String("user_id", user.ID.String()))
	return s.issue(ctx, user)
}

// Login checks a password. Unknown emails, wrong passwords and OAuth-only
// accounts are indistinguishable to the caller.
func (s *accountServiceImpl) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("login for unknown email")
			return nil, ErrInvalidCredentials
		}
		log.Error("failed to look up user for login", slog.String("error", err.Error()))
		return nil, NewServiceError("account", "login", err)
	}

	if !user.HasPassword() {
		log.Debug("password login against oauth-only account",
			slog.String("user_id", user.ID.String()),
			slog.String("provider", string(user.Provider)))
		return nil, ErrInvalidCredentials
	}
	if err := s.passwords.Compare(user.HashedPassword, password); err != nil {
		log.Debug("password mismatch", slog.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}

	return s.issue(ctx, user)
}

func (s *accountServiceImpl) OAuthRedirectURL(ctx context.Context, provider domain.Provider) (string, error) {
	p, err := s.provider(provider)
	if err != nil {
		return "", err
	}
	state, err := s.jwt.GenerateStateToken(ctx, string(provider))
	if err != nil {
		return "", NewServiceError("account", "oauth_redirect", err)
	}
	return p.AuthCodeURL(state), nil
}

func (s *accountServiceImpl) CompleteOAuth(
	ctx context.Context,
	provider domain.Provider,
	code, state string,
) (*AuthResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("provider", string(provider)))

	p, err := s.provider(provider)
	if err != nil {
		return nil, err
	}
	if err := s.jwt.ValidateStateToken(ctx, state, string(provider)); err != nil {
		log.Warn("oauth callback with invalid state")
		return nil, err
	}

	profile, err := p.Exchange(ctx, code)
	if err != nil {
		log.Warn("oauth exchange failed", slog.String("error", err.Error()))
		return nil, err
	}

	user, err := s.findOrCreate(ctx, profile)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

// findOrCreate links OAuth sign-ins to accounts by email. An existing account
// keeps its provider; a missing avatar is filled from the provider profile.
func (s *accountServiceImpl) findOrCreate(ctx context.Context, profile *auth.OAuthProfile) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if profile.Email == "" {
		return nil, auth.ErrNoEmail
	}
	email := domain.NormalizeEmail(profile.Email)

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if user.Avatar == "" && profile.AvatarURL != "" {
			user.Avatar = profile.AvatarURL
			if err := s.users.Update(ctx, user); err != nil {
				log.Warn("failed to copy provider avatar",
					slog.String("user_id", user.ID.String()),
					slog.String("error", err.Error()))
			}
		}
		return user, nil
	case !errors.Is(err, store.ErrUserNotFound):
		log.Error("failed to look up oauth user", slog.String("error", err.Error()))
		return nil, NewServiceError("account", "oauth_login", err)
	}

	user, err = domain.NewOAuthUser(profile.Name, email, profile.Provider, profile.ProviderID, profile.AvatarURL)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			// Lost a race with a concurrent sign-in for the same email.
			return s.users.GetByEmail(ctx, email)
		}
		log.Error("failed to create oauth user", slog.String("error", err.Error()))
		return nil, NewServiceError("account", "oauth_login", err)
	}

	log.Info("user registered via oauth",
		slog.String("user_id", user.ID.String()),
		slog.String("provider", string(user.Provider)))
	return user, nil
}

func (s *accountServiceImpl) provider(name domain.Provider) (auth.OAuthProvider, error) {
	if !name.Valid() || name == domain.ProviderLocal {
		return nil, auth.ErrUnknownProvider
	}
	p, ok := s.providers[name]
	if !ok {
		return nil, ErrOAuthDisabled
	}
	return p, nil
}

func (s *accountServiceImpl) issue(ctx context.Context, user *domain.User) (*AuthResult, error) {
	token, err := s.jwt.GenerateToken(ctx, user.ID, user.Email)
	if err != nil {
		return nil, NewServiceError("account", "issue_token", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}
