package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/mocks"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/store"
)

func newTaskRouter(tasks store.TaskStore) http.Handler {
	h := NewTaskHandler(service.NewTaskService(tasks, nil), nil)
	return testRouter(func(r chi.Router) {
		r.Get("/api/tasks", h.ListTasks)
		r.Post("/api/tasks", h.CreateTask)
		r.Get("/api/tasks/{id}", h.GetTask)
		r.Put("/api/tasks/{id}", h.UpdateTask)
		r.Delete("/api/tasks/{id}", h.DeleteTask)
	})
}

func storedTask(owner uuid.UUID, title string, status domain.Status, age time.Duration) domain.Task {
	created := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC).Add(-age)
	return domain.Task{
		ID:        uuid.New(),
		OwnerID:   owner,
		Title:     title,
		Status:    status,
		Priority:  domain.PriorityMedium,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestTaskHandler_CreateAndGet(t *testing.T) {
	t.Parallel()
	router := newTaskRouter(mocks.NewMockTaskStore())
	owner := uuid.New()

	w := doRequest(t, router, http.MethodPost, "/api/tasks", owner, map[string]any{
		"title":    "Write report",
		"priority": "high",
		"dueDate":  "2026-11-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody[TaskEnvelope](t, w).Task
	assert.Equal(t, "Write report", created.Title)
	assert.Equal(t, domain.StatusPending, created.Status)
	assert.Equal(t, domain.PriorityHigh, created.Priority)
	assert.False(t, created.Completed)
	require.NotNil(t, created.DueDate)
	assert.Equal(t, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), *created.DueDate)

	w = doRequest(t, router, http.MethodGet, "/api/tasks/"+created.ID.String(), owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[TaskEnvelope](t, w).Task
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Title, got.Title)
}

func TestTaskHandler_CreateValidation(t *testing.T) {
	t.Parallel()
	router := newTaskRouter(mocks.NewMockTaskStore())

	w := doRequest(t, router, http.MethodPost, "/api/tasks", uuid.New(), map[string]any{
		"title":    "",
		"status":   "done",
		"priority": "urgent",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody[shared.ErrorResponse](t, w)
	assert.Equal(t, "Validation failed", body.Error)

	fields := make([]string, 0, len(body.Details))
	for _, d := range body.Details {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{"title", "status", "priority"}, fields)

	w = doRequest(t, router, http.MethodPost, "/api/tasks", uuid.New(), map[string]any{
		"title":   "ok",
		"dueDate": "next tuesday",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body = decodeBody[shared.ErrorResponse](t, w)
	require.Len(t, body.Details, 1)
	assert.Equal(t, "dueDate", body.Details[0].Field)

	w = doRequest(t, router, http.MethodPost, "/api/tasks", uuid.New(), `{"title":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request format", decodeBody[shared.ErrorResponse](t, w).Error)
}

func TestTaskHandler_Ownership(t *testing.T) {
	t.Parallel()
	owner, intruder := uuid.New(), uuid.New()
	task := storedTask(owner, "Private", domain.StatusPending, 0)
	tasks := mocks.NewMockTaskStore(task)
	router := newTaskRouter(tasks)
	path := "/api/tasks/" + task.ID.String()

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		var body any
		if method == http.MethodPut {
			body = map[string]any{"title": "Hijacked"}
		}
		w := doRequest(t, router, method, path, intruder, body)
		assert.Equal(t, http.StatusNotFound, w.Code, method)
		assert.Equal(t, "Task not found", decodeBody[shared.ErrorResponse](t, w).Error, method)
	}

	got, err := tasks.GetByID(context.Background(), owner, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Private", got.Title)

	w := doRequest(t, router, http.MethodGet, "/api/tasks", intruder, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody[TaskListResponse](t, w).Tasks)
}

func TestTaskHandler_MalformedID(t *testing.T) {
	t.Parallel()
	router := newTaskRouter(mocks.NewMockTaskStore())

	w := doRequest(t, router, http.MethodGet, "/api/tasks/not-a-uuid", uuid.New(), nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody[shared.ErrorResponse](t, w)
	require.Len(t, body.Details, 1)
	assert.Equal(t, "id", body.Details[0].Field)
}

func TestTaskHandler_Unauthenticated(t *testing.T) {
	t.Parallel()
	router := newTaskRouter(mocks.NewMockTaskStore())

	w := doRequest(t, router, http.MethodGet, "/api/tasks", uuid.Nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTaskHandler_UpdateScenario(t *testing.T) {
	t.Parallel()
	router := newTaskRouter(mocks.NewMockTaskStore())
	owner := uuid.New()

	w := doRequest(t, router, http.MethodPost, "/api/tasks", owner, map[string]any{
		"title":   "Draft",
		"dueDate": "2026-11-01T10:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeBody[TaskEnvelope](t, w).Task.ID
	path := "/api/tasks/" + id.String()

	w = doRequest(t, router, http.MethodPut, path, owner, map[string]any{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeBody[TaskEnvelope](t, w).Task
	assert.Equal(t, domain.StatusCompleted, updated.Status)
	assert.True(t, updated.Completed)
	assert.Equal(t, "Draft", updated.Title, "fields not in the body stay unchanged")
	assert.NotNil(t, updated.DueDate)

	w = doRequest(t, router, http.MethodPut, path, owner, `{"dueDate":null}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decodeBody[TaskEnvelope](t, w).Task.DueDate)

	w = doRequest(t, router, http.MethodPut, path, owner, map[string]any{"ownerId": uuid.New(), "color": "red"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody[shared.ErrorResponse](t, w)
	assert.Equal(t, "Invalid update fields", body.Error)
	require.Len(t, body.Details, 2)
	assert.Equal(t, "color", body.Details[0].Field)
	assert.Equal(t, "ownerId", body.Details[1].Field)

	w = doRequest(t, router, http.MethodPut, path, owner, map[string]any{"title": 42})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "title", decodeBody[shared.ErrorResponse](t, w).Details[0].Field)

	w = doRequest(t, router, http.MethodPut, path, owner, map[string]any{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No fields to update", decodeBody[shared.ErrorResponse](t, w).Error)

	w = doRequest(t, router, http.MethodDelete, path, owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Task deleted successfully", decodeBody[shared.MessageResponse](t, w).Message)

	w = doRequest(t, router, http.MethodGet, path, owner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskHandler_List(t *testing.T) {
	t.Parallel()
	owner := uuid.New()
	var seeded []domain.Task
	for i := range 12 {
		status := domain.StatusPending
		if i%3 == 0 {
			status = domain.StatusCompleted
		}
		seeded = append(seeded, storedTask(owner, fmt.Sprintf("task %02d", i), status, time.Duration(i)*time.Hour))
	}
	router := newTaskRouter(mocks.NewMockTaskStore(seeded...))

	t.Run("defaults", func(t *testing.T) {
		w := doRequest(t, router, http.MethodGet, "/api/tasks", owner, nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeBody[TaskListResponse](t, w)
		assert.Len(t, resp.Tasks, 12)
		assert.Equal(t, Pagination{Page: 1, Limit: 50, TotalCount: 12, TotalPages: 1}, resp.Pagination)
		assert.Equal(t, "task 00", resp.Tasks[0].Title, "newest first")
	})

	t.Run("filter sort and page", func(t *testing.T) {
		w := doRequest(t, router, http.MethodGet,
			"/api/tasks?status=pending&sortBy=title&sortOrder=asc&page=2&limit=3", owner, nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeBody[TaskListResponse](t, w)
		assert.Equal(t, Pagination{
			Page: 2, Limit: 3, TotalCount: 8, TotalPages: 3, HasNextPage: true, HasPrevPage: true,
		}, resp.Pagination)
		titles := make([]string, len(resp.Tasks))
		for i, task := range resp.Tasks {
			titles[i] = task.Title
			assert.Equal(t, domain.StatusPending, task.Status)
		}
		assert.Equal(t, []string{"task 05", "task 07", "task 08"}, titles)
	})

	t.Run("limit is capped", func(t *testing.T) {
		w := doRequest(t, router, http.MethodGet, "/api/tasks?limit=500", owner, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 100, decodeBody[TaskListResponse](t, w).Pagination.Limit)
	})

	t.Run("invalid parameters are itemized", func(t *testing.T) {
		w := doRequest(t, router, http.MethodGet, "/api/tasks?page=zero&sortBy=owner&status=done", owner, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody[shared.ErrorResponse](t, w)
		fields := make([]string, 0, len(body.Details))
		for _, d := range body.Details {
			fields = append(fields, d.Field)
		}
		assert.ElementsMatch(t, []string{"page", "sortBy", "status"}, fields)
	})
}

func TestTaskHandler_StoreFailure(t *testing.T) {
	t.Parallel()
	tasks := mocks.NewMockTaskStore()
	tasks.ListFn = func(context.Context, uuid.UUID, store.TaskFilter) ([]domain.Task, error) {
		return nil, errors.New("connection reset by peer")
	}
	router := newTaskRouter(tasks)

	w := doRequest(t, router, http.MethodGet, "/api/tasks", uuid.New(), nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody[shared.ErrorResponse](t, w)
	assert.Equal(t, "Failed to fetch tasks", body.Error)
	assert.NotContains(t, w.Body.String(), "connection reset")
}
