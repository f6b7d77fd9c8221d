package client

import "sync"

// Session holds the bearer token of the signed-in user. It is shared by the
// client and any store built on it, and cleared when the server answers 401.
type Session struct {
	mu    sync.RWMutex
	token string
}

// NewSession returns a session holding token, which may be empty.
func NewSession(token string) *Session {
	return &Session{token: token}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Clear forgets the token; the user must sign in again.
func (s *Session) Clear() {
	s.SetToken("")
}

// Active reports whether a token is present.
func (s *Session) Active() bool {
	return s.Token() != ""
}
