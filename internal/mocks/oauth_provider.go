package mocks

import (
	"context"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
)

// MockOAuthProvider implements auth.OAuthProvider for testing
type MockOAuthProvider struct {
	ProviderName domain.Provider
	ExchangeFn   func(ctx context.Context, code string) (*auth.OAuthProfile, error)

	Profile *auth.OAuthProfile
	Err     error
}

var _ auth.OAuthProvider = (*MockOAuthProvider)(nil)

func (m *MockOAuthProvider) Name() domain.Provider { return m.ProviderName }

// AuthCodeURL returns a fake consent URL carrying state.
func (m *MockOAuthProvider) AuthCodeURL(state string) string {
	return "https://provider.test/authorize?state=" + state
}

func (m *MockOAuthProvider) Exchange(ctx context.Context, code string) (*auth.OAuthProfile, error) {
	if m.ExchangeFn != nil {
		return m.ExchangeFn(ctx, code)
	}
	return m.Profile, m.Err
}
