package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/domain"
)

// Profile API locations
const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	githubAPIURL      = "https://api.github.com"
)

// OAuthProfile is the identity a provider vouches for.
type OAuthProfile struct {
	Provider   domain.Provider
	ProviderID string
	Email      string
	Name       string
	AvatarURL  string
}

// OAuthProvider performs the provider half of the authorization code flow.
type OAuthProvider interface {
	Name() domain.Provider
	// AuthCodeURL is where the browser is sent to grant consent.
	AuthCodeURL(state string) string
	// Exchange trades the callback code for the user's profile.
	Exchange(ctx context.Context, code string) (*OAuthProfile, error)
}

// NewOAuthProviders builds a provider for every entry in cfg with credentials.
func NewOAuthProviders(cfg config.OAuthConfig) map[domain.Provider]OAuthProvider {
	providers := make(map[domain.Provider]OAuthProvider)
	base := strings.TrimRight(cfg.CallbackBaseURL, "/")

	if cfg.Google.Enabled() {
		providers[domain.ProviderGoogle] = &GoogleProvider{
			config: &oauth2.Config{
				ClientID:     cfg.Google.ClientID,
				ClientSecret: cfg.Google.ClientSecret,
				Endpoint:     endpoints.Google,
				RedirectURL:  base + "/api/auth/google/callback",
				Scopes:       []string{"openid", "email", "profile"},
			},
			userInfoURL: googleUserInfoURL,
		}
	}
	if cfg.GitHub.Enabled() {
		providers[domain.ProviderGitHub] = &GitHubProvider{
			config: &oauth2.Config{
				ClientID:     cfg.GitHub.ClientID,
				ClientSecret: cfg.GitHub.ClientSecret,
				Endpoint:     endpoints.GitHub,
				RedirectURL:  base + "/api/auth/github/callback",
				Scopes:       []string{"read:user", "user:email"},
			},
			apiURL: githubAPIURL,
		}
	}
	return providers
}

// GoogleProvider signs users in with Google accounts.
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

func (p *GoogleProvider) Name() domain.Provider { return domain.ProviderGoogle }

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*OAuthProfile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOAuthExchange, err)
	}
	client := p.config.Client(ctx, token)

	var info struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := getJSON(ctx, client, p.userInfoURL, &info); err != nil {
		return nil, err
	}
	if info.Email == "" || !info.EmailVerified {
		return nil, ErrNoEmail
	}

	return &OAuthProfile{
		Provider:   domain.ProviderGoogle,
		ProviderID: info.Sub,
		Email:      info.Email,
		Name:       info.Name,
		AvatarURL:  info.Picture,
	}, nil
}

// GitHubProvider signs users in with GitHub accounts. When the public
// profile hides the email, the primary verified address from /user/emails
// is used instead.
type GitHubProvider struct {
	config *oauth2.Config
	apiURL string
}

func (p *GitHubProvider) Name() domain.Provider { return domain.ProviderGitHub }

func (p *GitHubProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*OAuthProfile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOAuthExchange, err)
	}
	client := p.config.Client(ctx, token)

	var user struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := getJSON(ctx, client, p.apiURL+"/user", &user); err != nil {
		return nil, err
	}

	email := user.Email
	if email == "" {
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := getJSON(ctx, client, p.apiURL+"/user/emails", &emails); err != nil {
			return nil, err
		}
		for _, e := range emails {
			if e.Verified && (e.Primary || email == "") {
				email = e.Email
				if e.Primary {
					break
				}
			}
		}
	}
	if email == "" {
		return nil, ErrNoEmail
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}
	return &OAuthProfile{
		Provider:   domain.ProviderGitHub,
		ProviderID: strconv.FormatInt(user.ID, 10),
		Email:      email,
		Name:       name,
		AvatarURL:  user.AvatarURL,
	}, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build profile request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: profile request: %w", ErrOAuthExchange, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: profile request returned %d", ErrOAuthExchange, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decode profile: %w", ErrOAuthExchange, err)
	}
	return nil
}
