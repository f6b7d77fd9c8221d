package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/taskquery"
)

// Common request/response structures

// SignupRequest defines the payload for the signup endpoint.
type SignupRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// CreateTaskRequest defines the payload for creating a task. Enumerations and
// lengths are checked by the domain so every problem is itemized together.
type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	DueDate     DueDate `json:"dueDate"`
}

func (r CreateTaskRequest) draft() domain.TaskDraft {
	return domain.TaskDraft{
		Title:       r.Title,
		Description: r.Description,
		Status:      domain.Status(r.Status),
		Priority:    domain.Priority(r.Priority),
		DueDate:     r.DueDate.Time,
	}
}

// DueDate accepts RFC 3339 timestamps and bare YYYY-MM-DD dates. JSON null
// and the empty string leave Time nil.
type DueDate struct {
	Time *time.Time
}

var errBadDate = errors.New("must be an RFC 3339 timestamp or a YYYY-MM-DD date")

// UnmarshalJSON implements json.Unmarshaler.
func (d *DueDate) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		d.Time = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.NewValidationError("dueDate", errBadDate.Error(), nil)
	}
	t, err := parseDueDate(s)
	if err != nil {
		return domain.NewValidationError("dueDate", errBadDate.Error(), nil)
	}
	d.Time = t
	return nil
}

func parseDueDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, errBadDate
}

// TaskResponse is a task with its derived completed flag.
type TaskResponse struct {
	domain.Task
	Completed bool `json:"completed"`
}

func taskToResponse(t *domain.Task) TaskResponse {
	return TaskResponse{Task: *t, Completed: t.Completed()}
}

// TaskEnvelope wraps a single task.
type TaskEnvelope struct {
	Task TaskResponse `json:"task"`
}

// Pagination describes where a page sits in the full result.
type Pagination struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	TotalCount  int  `json:"totalCount"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// TaskListResponse is one page of tasks.
type TaskListResponse struct {
	Tasks      []TaskResponse `json:"tasks"`
	Pagination Pagination     `json:"pagination"`
}

func tasksToResponse(tasks []domain.Task) []TaskResponse {
	out := make([]TaskResponse, len(tasks))
	for i := range tasks {
		out[i] = taskToResponse(&tasks[i])
	}
	return out
}

func pageToResponse(p taskquery.Page) TaskListResponse {
	return TaskListResponse{
		Tasks: tasksToResponse(p.Items),
		Pagination: Pagination{
			Page:        p.Page,
			Limit:       p.PageSize,
			TotalCount:  p.TotalItems,
			TotalPages:  p.TotalPages,
			HasNextPage: p.HasNext,
			HasPrevPage: p.HasPrev,
		},
	}
}

// AnalyticsResponse is ProfileAnalytics with its task lists in the shape the
// task endpoints use.
type AnalyticsResponse struct {
	domain.ProfileAnalytics
	TasksDueSoon []TaskResponse `json:"tasksDueSoon"`
	RecentTasks  []TaskResponse `json:"recentTasks"`
}

func analyticsToResponse(a *domain.ProfileAnalytics) *AnalyticsResponse {
	if a == nil {
		return nil
	}
	return &AnalyticsResponse{
		ProfileAnalytics: *a,
		TasksDueSoon:     tasksToResponse(a.TasksDueSoon),
		RecentTasks:      tasksToResponse(a.RecentTasks),
	}
}

// ProfileResponse is the profile page payload.
type ProfileResponse struct {
	User      *domain.User       `json:"user"`
	Analytics *AnalyticsResponse `json:"analytics"`
}

// UserResponse returns an updated user with a confirmation message.
type UserResponse struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
}

// UpdateProfileRequest replaces the editable profile fields.
type UpdateProfileRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Bio             string `json:"bio"`
	Phone           string `json:"phone"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// DeleteAccountRequest confirms account deletion.
type DeleteAccountRequest struct {
	Password     string `json:"password"`
	ConfirmOAuth bool   `json:"confirmOAuth"`
}
