package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// MockUserStore implements store.UserStore for testing.
//
// The default implementation keeps users in memory keyed by email and mimics
// the real stores: a plaintext Password is "hashed" by prefixing it with
// "hashed:" and then cleared.
type MockUserStore struct {
	CreateFn     func(ctx context.Context, user *domain.User) error
	GetByEmailFn func(ctx context.Context, email string) (*domain.User, error)
	GetByIDFn    func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateFn     func(ctx context.Context, user *domain.User) error
	DeleteFn     func(ctx context.Context, id uuid.UUID) error

	mu         sync.Mutex
	Users      map[string]*domain.User
	LastUserID uuid.UUID
}

var _ store.UserStore = (*MockUserStore)(nil)

// NewMockUserStore creates a new mock store with initialized defaults
func NewMockUserStore(users ...*domain.User) *MockUserStore {
	m := &MockUserStore{Users: make(map[string]*domain.User)}
	for _, u := range users {
		m.Users[u.Email] = u
	}
	return m
}

// MockHash is the stand-in hash the mock stores for a plaintext password.
func MockHash(password string) string {
	return "hashed:" + password
}

// Create implements the UserStore interface
func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.Users[user.Email]; exists {
		return store.ErrEmailExists
	}
	hashPending(user)
	stored := *user
	m.Users[user.Email] = &stored
	m.LastUserID = user.ID
	return nil
}

// GetByEmail implements the UserStore interface
func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.Users[domain.NormalizeEmail(email)]
	if !exists {
		return nil, store.ErrUserNotFound
	}
	found := *user
	return &found, nil
}

// GetByID implements the UserStore interface
func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.Users {
		if user.ID == id {
			found := *user
			return &found, nil
		}
	}
	return nil, store.ErrUserNotFound
}

// Update implements the UserStore interface
func (m *MockUserStore) Update(ctx context.Context, user *domain.User) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for email, existing := range m.Users {
		if existing.ID != user.ID {
			continue
		}
		if email != user.Email {
			if _, taken := m.Users[user.Email]; taken {
				return store.ErrEmailExists
			}
			delete(m.Users, email)
		}
		hashPending(user)
		user.UpdatedAt = time.Now().UTC()
		stored := *user
		m.Users[user.Email] = &stored
		return nil
	}
	return store.ErrUserNotFound
}

// Delete implements the UserStore interface
func (m *MockUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for email, user := range m.Users {
		if user.ID == id {
			delete(m.Users, email)
			return nil
		}
	}
	return store.ErrUserNotFound
}

func hashPending(user *domain.User) {
	if user.Password != "" {
		user.HashedPassword = MockHash(user.Password)
		user.Password = ""
	}
}
