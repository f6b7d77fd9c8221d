package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Field limits for tasks.
const (
	MaxTaskTitleLength       = 100
	MaxTaskDescriptionLength = 500
)

// Status is the lifecycle state of a task.
type Status string

// Possible task status values
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every valid status in lifecycle order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Next returns the status that follows s in the
// pending → in-progress → completed → pending cycle.
func (s Status) Next() Status {
	switch s {
	case StatusPending:
		return StatusInProgress
	case StatusInProgress:
		return StatusCompleted
	default:
		return StatusPending
	}
}

// Priority is the urgency of a task.
type Priority string

// Possible task priority values
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every valid priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Rank orders priorities: high 3, medium 2, low 1. Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Task is a user-owned unit of work.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     uuid.UUID  `json:"ownerId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskDraft carries the caller-supplied fields of a new task.
// Empty Status and Priority fall back to pending and medium.
type TaskDraft struct {
	Title       string
	Description string
	Status      Status
	Priority    Priority
	DueDate     *time.Time
}

// NewTask creates a validated task owned by ownerID.
func NewTask(ownerID uuid.UUID, draft TaskDraft) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(draft.Title),
		Description: strings.TrimSpace(draft.Description),
		Status:      draft.Status,
		Priority:    draft.Priority,
		DueDate:     normalizeTime(draft.DueDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if task.Status == "" {
		task.Status = StatusPending
	}
	if task.Priority == "" {
		task.Priority = PriorityMedium
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

// Validate checks every field and returns ValidationErrors listing all problems.
func (t *Task) Validate() error {
	var errs ValidationErrors

	if t.ID == uuid.Nil {
		errs.Add("id", "is required")
	}
	if t.OwnerID == uuid.Nil {
		errs.Add("ownerId", "is required")
	}

	switch n := utf8.RuneCountInString(t.Title); {
	case n == 0:
		errs.Add("title", "is required")
	case n > MaxTaskTitleLength:
		errs.Add("title", "cannot be more than 100 characters")
	}

	if utf8.RuneCountInString(t.Description) > MaxTaskDescriptionLength {
		errs.Add("description", "cannot be more than 500 characters")
	}

	if !t.Status.Valid() {
		errs.Add("status", "must be one of pending, in-progress, completed")
	}
	if !t.Priority.Valid() {
		errs.Add("priority", "must be one of low, medium, high")
	}

	return errs.Err()
}

// Completed is the legacy boolean view of the status.
func (t *Task) Completed() bool {
	return t.Status == StatusCompleted
}

// IsOverdue reports whether an unfinished task's due date is before now.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.Status != StatusCompleted && t.DueDate.Before(now)
}

// TaskPatch is a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority
	DueDate     *time.Time
	// ClearDueDate removes the due date; it wins over DueDate.
	ClearDueDate bool
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && p.DueDate == nil && !p.ClearDueDate
}

// Apply returns a copy of t with the patch applied and validated.
// The receiver is not modified.
func (t Task) Apply(p TaskPatch, now time.Time) (*Task, error) {
	updated := t
	if p.Title != nil {
		updated.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		updated.Description = strings.TrimSpace(*p.Description)
	}
	if p.Status != nil {
		updated.Status = *p.Status
	}
	if p.Priority != nil {
		updated.Priority = *p.Priority
	}
	switch {
	case p.ClearDueDate:
		updated.DueDate = nil
	case p.DueDate != nil:
		updated.DueDate = normalizeTime(p.DueDate)
	}
	updated.UpdatedAt = now.UTC()

	if err := updated.Validate(); err != nil {
		return nil, err
	}
	return &updated, nil
}

// StatusPatch builds a patch that only changes the status.
func StatusPatch(s Status) TaskPatch {
	return TaskPatch{Status: &s}
}

func normalizeTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
