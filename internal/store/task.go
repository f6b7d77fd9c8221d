package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/taskflow-api/internal/domain"
)

// TaskFilter narrows List and Count. Zero fields do not filter.
type TaskFilter struct {
	// Statuses matches any of the listed statuses.
	Statuses []domain.Status
	Priority domain.Priority
	// Search is a case-insensitive substring of the title.
	Search string
	// DueFrom and DueBefore bound the due date as [DueFrom, DueBefore).
	// Either bound excludes tasks without a due date.
	DueFrom     *time.Time
	DueBefore   *time.Time
	CreatedFrom *time.Time
	UpdatedFrom *time.Time
	// Limit caps List results; zero means no cap. Count ignores it.
	Limit int
}

// TaskStore defines the interface for task persistence. Every method is
// scoped to one owner: a task owned by someone else behaves as missing.
type TaskStore interface {
	// Create saves a new task.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID returns the owner's task.
	// Returns ErrTaskNotFound if it does not exist or has a different owner.
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error)

	// List returns the owner's tasks matching filter, newest first.
	List(ctx context.Context, ownerID uuid.UUID, filter TaskFilter) ([]domain.Task, error)

	// Count returns how many of the owner's tasks match filter.
	Count(ctx context.Context, ownerID uuid.UUID, filter TaskFilter) (int, error)

	// Update replaces the mutable fields of task (matched on ID and OwnerID).
	// Returns ErrTaskNotFound if no such task exists for the owner.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes the owner's task. Returns ErrTaskNotFound if absent.
	Delete(ctx context.Context, ownerID, id uuid.UUID) error

	// DeleteByOwner removes every task of the owner and reports how many.
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
}

// Stores groups the stores that take part in one unit of work.
type Stores struct {
	Users UserStore
	Tasks TaskStore
}

// Transactor runs fn with stores bound to a single unit of work. If fn
// returns an error nothing it wrote is kept, where the backend supports it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}
