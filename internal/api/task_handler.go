package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/taskquery"
)

// updatableTaskFields are the only keys PUT /api/tasks/{id} accepts.
var updatableTaskFields = []string{"title", "description", "status", "priority", "dueDate"}

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	tasks  service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks service.TaskService, logger *slog.Logger) *TaskHandler {
	if tasks == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("task service cannot be nil for TaskHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "task_handler")),
	}
}

// ListTasks handles GET /api/tasks.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := handleUserID(w, r, log)
	if !ok {
		return
	}

	params, err := parseListParams(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	page, err := h.tasks.List(r.Context(), userID, params)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to fetch tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, pageToResponse(page))
}

// CreateTask handles POST /api/tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := handleUserID(w, r, log)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.tasks.Create(r.Context(), userID, req.draft())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, TaskEnvelope{Task: taskToResponse(task)})
}

// GetTask handles GET /api/tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	task, err := h.tasks.Get(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to fetch task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskEnvelope{Task: taskToResponse(task)})
}

// UpdateTask handles PUT /api/tasks/{id}. Only the keys present in the body
// change; "dueDate": null clears the due date.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var body map[string]json.RawMessage
	if err := shared.DecodeJSON(w, r, &body); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var unknown domain.ValidationErrors
	for key := range body {
		if !slices.Contains(updatableTaskFields, key) {
			unknown.Add(key, "is not an updatable field")
		}
	}
	if len(unknown) > 0 {
		slices.SortFunc(unknown, func(a, b domain.FieldError) int { return strings.Compare(a.Field, b.Field) })
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid update fields", unknown,
			shared.WithDetails(unknown))
		return
	}

	patch, err := parseTaskPatch(body)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := h.tasks.Update(r.Context(), userID, taskID, patch)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskEnvelope{Task: taskToResponse(task)})
}

// DeleteTask handles DELETE /api/tasks/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.tasks.Delete(r.Context(), userID, taskID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, shared.MessageResponse{Message: "Task deleted successfully"})
}

func parseListParams(r *http.Request) (service.ListParams, error) {
	q := r.URL.Query()
	var errs domain.ValidationErrors

	params := service.ListParams{
		Filter: taskquery.Filter{
			Status:   q.Get("status"),
			Priority: q.Get("priority"),
			Search:   q.Get("search"),
		},
		Sort: taskquery.Sort{
			By:    taskquery.SortKey(q.Get("sortBy")),
			Order: taskquery.SortOrder(q.Get("sortOrder")),
		},
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"page", &params.Page}, {"limit", &params.Limit}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			errs.Add(p.name, "must be a positive integer")
			continue
		}
		*p.dst = n
	}

	// Let the service report enumeration problems alongside ours.
	if err := params.Validate(); err != nil {
		ve, _ := domain.AsValidationErrors(err)
		errs = append(errs, ve...)
	}
	return params, errs.Err()
}

func parseTaskPatch(body map[string]json.RawMessage) (domain.TaskPatch, error) {
	var patch domain.TaskPatch
	var errs domain.ValidationErrors

	str := func(key string) *string {
		raw, ok := body[key]
		if !ok {
			return nil
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			errs.Add(key, "must be a string")
			return nil
		}
		return &s
	}

	patch.Title = str("title")
	patch.Description = str("description")
	if s := str("status"); s != nil {
		status := domain.Status(*s)
		patch.Status = &status
	}
	if s := str("priority"); s != nil {
		priority := domain.Priority(*s)
		patch.Priority = &priority
	}
	if raw, ok := body["dueDate"]; ok {
		var d DueDate
		if err := d.UnmarshalJSON(raw); err != nil {
			errs.Add("dueDate", errBadDate.Error())
		} else if d.Time == nil {
			patch.ClearDueDate = true
		} else {
			patch.DueDate = d.Time
		}
	}

	return patch, errs.Err()
}
