package taskstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskflow-api/internal/client"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/taskquery"
)

// fakeAPI is an in-memory TaskAPI. Errors queued in failNext are returned
// for the matching id instead of performing the call.
type fakeAPI struct {
	mu       sync.Mutex
	tasks    []domain.Task
	failNext map[uuid.UUID]error
	failAll  error
	listCall int
	clock    time.Time
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		failNext: make(map[uuid.UUID]error),
		clock:    time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func notFound() error {
	return &client.APIError{StatusCode: http.StatusNotFound, Message: "Task not found"}
}

func unauthorized() error {
	return &client.APIError{StatusCode: http.StatusUnauthorized, Message: "Token expired"}
}

func (f *fakeAPI) seed(n int) []domain.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Task, 0, n)
	for i := range n {
		f.clock = f.clock.Add(time.Minute)
		task := domain.Task{
			ID:        uuid.New(),
			Title:     fmt.Sprintf("task %03d", i),
			Status:    domain.StatusPending,
			Priority:  domain.PriorityMedium,
			CreatedAt: f.clock,
			UpdatedAt: f.clock,
		}
		f.tasks = append(f.tasks, task)
		out = append(out, task)
	}
	return out
}

func (f *fakeAPI) ListTasks(_ context.Context, opts client.ListOptions) (*client.TaskPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCall++
	if f.failAll != nil {
		return nil, f.failAll
	}
	p := taskquery.Apply(f.tasks, taskquery.Query{
		Sort:     taskquery.Sort{By: taskquery.SortKey(opts.SortBy), Order: taskquery.SortOrder(opts.SortOrder)},
		Page:     opts.Page,
		PageSize: opts.Limit,
	})
	return &client.TaskPage{
		Tasks: p.Items,
		Pagination: client.Pagination{
			Page: p.Page, Limit: p.PageSize, TotalCount: p.TotalItems,
			TotalPages: p.TotalPages, HasNextPage: p.HasNext, HasPrevPage: p.HasPrev,
		},
	}, nil
}

func (f *fakeAPI) CreateTask(_ context.Context, draft domain.TaskDraft) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	task, err := domain.NewTask(uuid.New(), draft)
	if err != nil {
		return nil, err
	}
	f.tasks = append(f.tasks, *task)
	return task, nil
}

func (f *fakeAPI) UpdateTask(_ context.Context, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(id); err != nil {
		return nil, err
	}
	for i, t := range f.tasks {
		if t.ID == id {
			f.clock = f.clock.Add(time.Second)
			updated, err := t.Apply(patch, f.clock)
			if err != nil {
				return nil, err
			}
			f.tasks[i] = *updated
			return updated, nil
		}
	}
	return nil, notFound()
}

func (f *fakeAPI) DeleteTask(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(id); err != nil {
		return err
	}
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return notFound()
}

func (f *fakeAPI) takeFailure(id uuid.UUID) error {
	if f.failAll != nil {
		return f.failAll
	}
	if err, ok := f.failNext[id]; ok {
		delete(f.failNext, id)
		return err
	}
	return nil
}

func (f *fakeAPI) has(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}

func loadedStore(t *testing.T, n int) (*Store, *fakeAPI, []domain.Task) {
	t.Helper()
	api := newFakeAPI()
	seeded := api.seed(n)
	s := New(api, nil)
	require.NoError(t, s.Refresh(context.Background()))
	return s, api, seeded
}

func cachedIDs(s *Store) []uuid.UUID {
	tasks := s.Tasks()
	out := make([]uuid.UUID, len(tasks))
	for i, task := range tasks {
		out[i] = task.ID
	}
	return out
}

func TestNew_PanicsWithoutAPI(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { New(nil, nil) })
}

func TestRefresh_FetchesEveryPage(t *testing.T) {
	t.Parallel()
	s, api, seeded := loadedStore(t, 250)

	assert.Equal(t, 3, api.listCall)
	require.Len(t, s.Tasks(), 250)
	assert.Equal(t, seeded[0].ID, s.Tasks()[0].ID)
	assert.Equal(t, seeded[249].ID, s.Tasks()[249].ID)
	assert.Equal(t, StateSettled, s.State(OpRefresh))
	assert.NoError(t, s.LastError(OpRefresh))
}

func TestRefresh_Unauthorized(t *testing.T) {
	t.Parallel()
	s, api, _ := loadedStore(t, 2)
	api.failAll = unauthorized()

	err := s.Refresh(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Equal(t, StateFailed, s.State(OpRefresh))
	assert.Equal(t, err, s.LastError(OpRefresh))
	assert.Len(t, s.Tasks(), 2, "failed refresh keeps the previous cache")
}

func TestAdd(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, api, _ := loadedStore(t, 1)

	assert.Equal(t, StateIdle, s.State(OpAdd))

	created, err := s.Add(ctx, domain.TaskDraft{Title: "Write report", Priority: domain.PriorityHigh})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, created.Status)
	assert.Len(t, s.Tasks(), 2)
	assert.Equal(t, StateSettled, s.State(OpAdd))

	_, err = s.Add(ctx, domain.TaskDraft{Title: ""})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Len(t, s.Tasks(), 2, "rejected create leaves cache unchanged")
	assert.Equal(t, StateFailed, s.State(OpAdd))

	api.failAll = errors.New("connection refused")
	_, err = s.Add(ctx, domain.TaskDraft{Title: "offline"})
	require.Error(t, err)
	assert.Len(t, s.Tasks(), 2)
}

func TestUpdate_ReplacesWithServerCopy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _, seeded := loadedStore(t, 3)
	id := seeded[1].ID

	title := "Renamed"
	updated, err := s.Update(ctx, id, domain.TaskPatch{Title: &title})
	require.NoError(t, err)

	cached, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, *updated, cached)
	assert.Equal(t, "Renamed", cached.Title)
	assert.True(t, cached.UpdatedAt.After(seeded[1].UpdatedAt))
	assert.Len(t, s.Tasks(), 3, "update never duplicates")
	assert.Equal(t, id, s.Tasks()[1].ID, "update keeps position")
}

func TestUpdate_MissingOnServerDropsFromCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, api, seeded := loadedStore(t, 2)
	api.failNext[seeded[0].ID] = notFound()

	_, err := s.Update(ctx, seeded[0].ID, domain.StatusPatch(domain.StatusCompleted))
	require.ErrorIs(t, err, client.ErrNotFound)
	assert.Equal(t, []uuid.UUID{seeded[1].ID}, cachedIDs(s))
}

func TestToggleStatus_Cycles(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _, seeded := loadedStore(t, 1)
	id := seeded[0].ID

	want := []domain.Status{domain.StatusInProgress, domain.StatusCompleted, domain.StatusPending}
	for _, status := range want {
		task, err := s.ToggleStatus(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, status, task.Status)
	}
}

func TestToggleComplete_TwiceRestoresStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _, seeded := loadedStore(t, 2)

	// second task starts completed
	_, err := s.Update(ctx, seeded[1].ID, domain.StatusPatch(domain.StatusCompleted))
	require.NoError(t, err)

	for _, id := range []uuid.UUID{seeded[0].ID, seeded[1].ID} {
		before, _ := s.Get(id)

		once, err := s.ToggleComplete(ctx, id)
		require.NoError(t, err)
		assert.NotEqual(t, before.Status, once.Status)

		twice, err := s.ToggleComplete(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, before.Status, twice.Status)
	}
}

func TestToggle_UnknownTask(t *testing.T) {
	t.Parallel()
	s, _, _ := loadedStore(t, 1)

	_, err := s.ToggleStatus(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUnknownTask)
	_, err = s.ToggleComplete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUnknownTask)
}

func TestRemove(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, api, seeded := loadedStore(t, 3)

	require.NoError(t, s.Remove(ctx, seeded[0].ID))
	assert.False(t, api.has(seeded[0].ID))
	assert.Equal(t, []uuid.UUID{seeded[1].ID, seeded[2].ID}, cachedIDs(s))

	api.failNext[seeded[1].ID] = errors.New("connection reset")
	require.Error(t, s.Remove(ctx, seeded[1].ID))
	assert.Len(t, s.Tasks(), 2, "a failed delete stays cached")
	assert.Equal(t, StateFailed, s.State(OpRemove))

	err := s.Remove(ctx, seeded[0].ID)
	assert.ErrorIs(t, err, client.ErrNotFound)
}

func TestRemoveMany_PartialFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, api, seeded := loadedStore(t, 4)

	// seeded[2] was deleted from another session
	require.NoError(t, api.DeleteTask(ctx, seeded[2].ID))
	targets := []uuid.UUID{seeded[0].ID, seeded[1].ID, seeded[2].ID}

	err := s.RemoveMany(ctx, targets)
	require.Error(t, err)

	var bulk *BulkDeleteError
	require.ErrorAs(t, err, &bulk)
	assert.Equal(t, []uuid.UUID{seeded[2].ID}, bulk.FailedIDs())
	assert.ElementsMatch(t, []uuid.UUID{seeded[0].ID, seeded[1].ID}, bulk.Deleted)
	assert.ErrorIs(t, err, client.ErrNotFound)
	assert.Contains(t, err.Error(), "1 of 3 deletes failed")

	assert.False(t, api.has(seeded[0].ID))
	assert.False(t, api.has(seeded[1].ID))
	assert.Equal(t, []uuid.UUID{seeded[3].ID}, cachedIDs(s), "cache drops all three ids")
	assert.Equal(t, StateFailed, s.State(OpRemove))
}

func TestRemoveMany_KeepsFailedDeletes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, api, seeded := loadedStore(t, 3)
	api.failNext[seeded[1].ID] = &client.APIError{StatusCode: http.StatusInternalServerError}

	err := s.RemoveMany(ctx, []uuid.UUID{seeded[0].ID, seeded[1].ID, seeded[0].ID})

	var bulk *BulkDeleteError
	require.ErrorAs(t, err, &bulk)
	assert.Equal(t, []uuid.UUID{seeded[1].ID}, bulk.FailedIDs())
	assert.Equal(t, []uuid.UUID{seeded[0].ID}, bulk.Deleted, "duplicate ids are deleted once")
	assert.Equal(t, []uuid.UUID{seeded[1].ID, seeded[2].ID}, cachedIDs(s))
	assert.True(t, api.has(seeded[1].ID))
}

func TestRemoveMany_AllSucceed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _, seeded := loadedStore(t, 20)

	ids := make([]uuid.UUID, 0, 15)
	for _, task := range seeded[:15] {
		ids = append(ids, task.ID)
	}
	require.NoError(t, s.RemoveMany(ctx, ids))
	assert.Len(t, s.Tasks(), 5)
	assert.Equal(t, StateSettled, s.State(OpRemove))

	assert.NoError(t, s.RemoveMany(ctx, nil))
}

func TestRemoveMany_SessionExpired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, api, seeded := loadedStore(t, 2)
	api.failNext[seeded[0].ID] = unauthorized()

	err := s.RemoveMany(ctx, []uuid.UUID{seeded[0].ID, seeded[1].ID})
	assert.ErrorIs(t, err, ErrSessionExpired)
	var bulk *BulkDeleteError
	assert.ErrorAs(t, err, &bulk)
}

func TestView(t *testing.T) {
	t.Parallel()
	s, _, _ := loadedStore(t, 12)

	page := s.View(taskquery.Query{
		Sort: taskquery.Sort{By: taskquery.SortByTitle, Order: taskquery.Desc},
		Page: 2,
	})
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 12, page.TotalItems)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "task 002", page.Items[0].Title)

	page = s.View(taskquery.Query{Filter: taskquery.Filter{Search: "task 011"}})
	require.Len(t, page.Items, 1)
}

func TestOpStrings(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "remove", OpRemove.String())
	assert.Equal(t, "Op(9)", Op(9).String())
	assert.Equal(t, "pending", StatePending.String())
}
