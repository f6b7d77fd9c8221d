package mocks

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// MockTaskStore implements store.TaskStore for testing.
//
// The default implementation keeps tasks in memory and honors owner scoping
// and TaskFilter the way the database-backed stores do.
type MockTaskStore struct {
	CreateFn        func(ctx context.Context, task *domain.Task) error
	GetByIDFn       func(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error)
	ListFn          func(ctx context.Context, ownerID uuid.UUID, filter store.TaskFilter) ([]domain.Task, error)
	CountFn         func(ctx context.Context, ownerID uuid.UUID, filter store.TaskFilter) (int, error)
	UpdateFn        func(ctx context.Context, task *domain.Task) error
	DeleteFn        func(ctx context.Context, ownerID, id uuid.UUID) error
	DeleteByOwnerFn func(ctx context.Context, ownerID uuid.UUID) (int64, error)

	mu    sync.Mutex
	Tasks map[uuid.UUID]domain.Task

	ListCalls []store.TaskFilter
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// NewMockTaskStore creates a store seeded with tasks.
func NewMockTaskStore(tasks ...domain.Task) *MockTaskStore {
	m := &MockTaskStore{Tasks: make(map[uuid.UUID]domain.Task)}
	for _, t := range tasks {
		m.Tasks[t.ID] = t
	}
	return m
}

// Create implements the TaskStore interface
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.Tasks[task.ID]; exists {
		return store.ErrDuplicate
	}
	m.Tasks[task.ID] = *task
	return nil
}

// GetByID implements the TaskStore interface
func (m *MockTaskStore) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, ownerID, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.Tasks[id]
	if !ok || task.OwnerID != ownerID {
		return nil, store.ErrTaskNotFound
	}
	return &task, nil
}

// List implements the TaskStore interface. Results are newest first.
func (m *MockTaskStore) List(ctx context.Context, ownerID uuid.UUID, filter store.TaskFilter) ([]domain.Task, error) {
	m.mu.Lock()
	m.ListCalls = append(m.ListCalls, filter)
	m.mu.Unlock()

	if m.ListFn != nil {
		return m.ListFn(ctx, ownerID, filter)
	}
	tasks := m.matching(ownerID, filter)
	if filter.Limit > 0 && len(tasks) > filter.Limit {
		tasks = tasks[:filter.Limit]
	}
	return tasks, nil
}

// Count implements the TaskStore interface
func (m *MockTaskStore) Count(ctx context.Context, ownerID uuid.UUID, filter store.TaskFilter) (int, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx, ownerID, filter)
	}
	return len(m.matching(ownerID, filter)), nil
}

// Update implements the TaskStore interface
func (m *MockTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, task)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.Tasks[task.ID]
	if !ok || existing.OwnerID != task.OwnerID {
		return store.ErrTaskNotFound
	}
	m.Tasks[task.ID] = *task
	return nil
}

// Delete implements the TaskStore interface
func (m *MockTaskStore) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, ownerID, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.Tasks[id]
	if !ok || task.OwnerID != ownerID {
		return store.ErrTaskNotFound
	}
	delete(m.Tasks, id)
	return nil
}

// DeleteByOwner implements the TaskStore interface
func (m *MockTaskStore) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	if m.DeleteByOwnerFn != nil {
		return m.DeleteByOwnerFn(ctx, ownerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, task := range m.Tasks {
		if task.OwnerID == ownerID {
			delete(m.Tasks, id)
			n++
		}
	}
	return n, nil
}

func (m *MockTaskStore) matching(ownerID uuid.UUID, f store.TaskFilter) []domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Task, 0, len(m.Tasks))
	for _, task := range m.Tasks {
		if task.OwnerID == ownerID && matchesFilter(task, f) {
			out = append(out, task)
		}
	}
	slices.SortFunc(out, func(a, b domain.Task) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out
}

func matchesFilter(task domain.Task, f store.TaskFilter) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, task.Status) {
		return false
	}
	if f.Priority != "" && task.Priority != f.Priority {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(task.Title), strings.ToLower(f.Search)) {
		return false
	}
	if f.DueFrom != nil && (task.DueDate == nil || task.DueDate.Before(*f.DueFrom)) {
		return false
	}
	if f.DueBefore != nil && (task.DueDate == nil || !task.DueDate.Before(*f.DueBefore)) {
		return false
	}
	if f.CreatedFrom != nil && task.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.UpdatedFrom != nil && task.UpdatedAt.Before(*f.UpdatedFrom) {
		return false
	}
	return true
}
