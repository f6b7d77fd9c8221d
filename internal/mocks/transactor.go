package mocks

import (
	"context"

	"github.com/phrazzld/taskflow-api/internal/store"
)

// MockTransactor implements store.Transactor by handing fn the configured
// stores directly. Nothing is rolled back.
type MockTransactor struct {
	Users store.UserStore
	Tasks store.TaskStore

	WithinTransactionFn func(ctx context.Context, fn func(ctx context.Context, s store.Stores) error) error

	Calls int
}

var _ store.Transactor = (*MockTransactor)(nil)

// WithinTransaction implements the store.Transactor interface
func (m *MockTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, s store.Stores) error) error {
	m.Calls++
	if m.WithinTransactionFn != nil {
		return m.WithinTransactionFn(ctx, fn)
	}
	return fn(ctx, store.Stores{Users: m.Users, Tasks: m.Tasks})
}
