// Package taskstore keeps the signed-in user's tasks in memory and
// synchronizes every change with the API. The cache only ever reflects what
// the server confirmed.
package taskstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/iter"

	"github.com/phrazzld/taskflow-api/internal/client"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/taskquery"
)

const (
	refreshPageSize      = 100
	maxConcurrentDeletes = 8
)

// TaskAPI is the server surface the store depends on. *client.Client
// implements it.
type TaskAPI interface {
	ListTasks(ctx context.Context, opts client.ListOptions) (*client.TaskPage, error)
	CreateTask(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error)
	UpdateTask(ctx context.Context, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID) error
}

// Store is safe for concurrent use.
type Store struct {
	api    TaskAPI
	logger *slog.Logger

	mu     sync.RWMutex
	tasks  []domain.Task
	status map[Op]opStatus
}

// New creates an empty store. Call Refresh to load the user's tasks.
func New(api TaskAPI, logger *slog.Logger) *Store {
	if api == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("task api cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		api:    api,
		logger: logger.With(slog.String("component", "task_store")),
		status: make(map[Op]opStatus),
	}
}

// State returns the state of the most recent run of op.
func (s *Store) State(op Op) OpState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status[op].state
}

// LastError returns the error of the most recent run of op, or nil if it
// has not failed.
func (s *Store) LastError(op Op) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status[op].lastErr
}

// Tasks returns a copy of the cache in server creation order.
func (s *Store) Tasks() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tasks)
}

// Get returns the cached task with id.
func (s *Store) Get(id uuid.UUID) (domain.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.tasks[i], true
	}
	return domain.Task{}, false
}

// View computes a display page from the cache.
func (s *Store) View(q taskquery.Query) taskquery.Page {
	return taskquery.Apply(s.Tasks(), q)
}

// Refresh replaces the cache with every task the server holds for the user.
func (s *Store) Refresh(ctx context.Context) (err error) {
	s.begin(OpRefresh)
	defer func() { s.finish(ctx, OpRefresh, err) }()

	var all []domain.Task
	for page := 1; ; page++ {
		res, err := s.api.ListTasks(ctx, client.ListOptions{
			SortBy:    string(taskquery.SortByCreatedAt),
			SortOrder: string(taskquery.Asc),
			Page:      page,
			Limit:     refreshPageSize,
		})
		if err != nil {
			return s.wrap(err, "refresh tasks")
		}
		all = append(all, res.Tasks...)
		if !res.Pagination.HasNextPage || page >= res.Pagination.TotalPages {
			break
		}
	}

	s.mu.Lock()
	s.tasks = all
	s.mu.Unlock()
	return nil
}

// Add creates a task and appends the server's copy. A failed create leaves
// the cache untouched.
func (s *Store) Add(ctx context.Context, draft domain.TaskDraft) (_ *domain.Task, err error) {
	s.begin(OpAdd)
	defer func() { s.finish(ctx, OpAdd, err) }()

	created, err := s.api.CreateTask(ctx, draft)
	if err != nil {
		return nil, s.wrap(err, "add task")
	}

	s.mu.Lock()
	s.upsert(*created)
	s.mu.Unlock()
	return created, nil
}

// Update sends patch and replaces the cached record with the server's result.
func (s *Store) Update(ctx context.Context, id uuid.UUID, patch domain.TaskPatch) (_ *domain.Task, err error) {
	s.begin(OpUpdate)
	defer func() { s.finish(ctx, OpUpdate, err) }()

	updated, err := s.api.UpdateTask(ctx, id, patch)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			s.drop(id)
		}
		return nil, s.wrap(err, "update task")
	}

	s.mu.Lock()
	s.upsert(*updated)
	s.mu.Unlock()
	return updated, nil
}

// ToggleStatus advances the task along pending → in-progress → completed → pending.
func (s *Store) ToggleStatus(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	task, ok := s.Get(id)
	if !ok {
		return nil, fmt.Errorf("toggle status %s: %w", id, ErrUnknownTask)
	}
	return s.Update(ctx, id, domain.StatusPatch(task.Status.Next()))
}

// ToggleComplete marks an open task completed and a completed task pending.
func (s *Store) ToggleComplete(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	task, ok := s.Get(id)
	if !ok {
		return nil, fmt.Errorf("toggle complete %s: %w", id, ErrUnknownTask)
	}
	next := domain.StatusCompleted
	if task.Completed() {
		next = domain.StatusPending
	}
	return s.Update(ctx, id, domain.StatusPatch(next))
}

// Remove deletes one task. A task the server no longer has is dropped from
// the cache and the not-found error is still returned.
func (s *Store) Remove(ctx context.Context, id uuid.UUID) (err error) {
	s.begin(OpRemove)
	defer func() { s.finish(ctx, OpRemove, err) }()

	if err := s.api.DeleteTask(ctx, id); err != nil {
		if errors.Is(err, client.ErrNotFound) {
			s.drop(id)
		}
		return s.wrap(err, "remove task")
	}
	s.drop(id)
	return nil
}

// RemoveMany deletes ids concurrently. It is best effort: successful deletes
// stand even when others fail. Successes and ids the server reports missing
// leave the cache; any failure is returned as a *BulkDeleteError.
func (s *Store) RemoveMany(ctx context.Context, ids []uuid.UUID) (err error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil
	}

	s.begin(OpRemove)
	defer func() { s.finish(ctx, OpRemove, err) }()

	mapper := iter.Mapper[uuid.UUID, error]{MaxGoroutines: maxConcurrentDeletes}
	results := mapper.Map(ids, func(id *uuid.UUID) error {
		return s.api.DeleteTask(ctx, *id)
	})

	var (
		deleted  []uuid.UUID
		failures []DeleteFailure
		gone     = make(map[uuid.UUID]bool, len(ids))
		expired  bool
	)
	for i, res := range results {
		id := ids[i]
		switch {
		case res == nil:
			deleted = append(deleted, id)
			gone[id] = true
		case errors.Is(res, client.ErrNotFound):
			failures = append(failures, DeleteFailure{ID: id, Err: res})
			gone[id] = true
		default:
			if errors.Is(res, client.ErrUnauthorized) {
				expired = true
			}
			failures = append(failures, DeleteFailure{ID: id, Err: res})
		}
	}

	s.mu.Lock()
	s.tasks = slices.DeleteFunc(s.tasks, func(t domain.Task) bool { return gone[t.ID] })
	s.mu.Unlock()

	if len(failures) == 0 {
		return nil
	}
	bulk := newBulkDeleteError(deleted, failures)
	if expired {
		return fmt.Errorf("%w: %w", ErrSessionExpired, bulk)
	}
	return bulk
}

func (s *Store) begin(op Op) {
	s.mu.Lock()
	s.status[op] = opStatus{state: StatePending}
	s.mu.Unlock()
}

func (s *Store) finish(ctx context.Context, op Op, err error) {
	st := opStatus{state: StateSettled}
	if err != nil {
		st = opStatus{state: StateFailed, lastErr: err}
		logger.FromContextOrDefault(ctx, s.logger).Warn("task store operation failed",
			slog.String("op", op.String()),
			slog.String("error", err.Error()))
	}
	s.mu.Lock()
	s.status[op] = st
	s.mu.Unlock()
}

// wrap marks authentication failures as an expired session.
func (s *Store) wrap(err error, action string) error {
	if errors.Is(err, client.ErrUnauthorized) {
		return fmt.Errorf("%s: %w: %w", action, ErrSessionExpired, err)
	}
	return fmt.Errorf("%s: %w", action, err)
}

func (s *Store) drop(id uuid.UUID) {
	s.mu.Lock()
	s.tasks = slices.DeleteFunc(s.tasks, func(t domain.Task) bool { return t.ID == id })
	s.mu.Unlock()
}

// upsert replaces the task with the same id or appends it. Callers hold mu.
func (s *Store) upsert(task domain.Task) {
	if i := s.indexOf(task.ID); i >= 0 {
		s.tasks[i] = task
		return
	}
	s.tasks = append(s.tasks, task)
}

func (s *Store) indexOf(id uuid.UUID) int {
	return slices.IndexFunc(s.tasks, func(t domain.Task) bool { return t.ID == id })
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
