// Package mocks provides centralized mock implementations for testing.
//
// Each mock exposes a function field per interface method so a test can
// override exactly the behavior it exercises. When a field is nil the mock
// falls back to a simple in-memory implementation, which is enough for most
// service and handler tests:
//
//	users := mocks.NewMockUserStore()
//	users.GetByEmailFn = func(ctx context.Context, email string) (*domain.User, error) {
//	    return nil, errors.New("boom")
//	}
//
// When adding a new mock to this package, name the file after the interface
// being mocked and keep the in-memory default behavior close to the real
// store's contract (sentinel errors, ownership scoping).
package mocks
