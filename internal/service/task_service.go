package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/phrazzld/taskflow-api/internal/taskquery"
)

// List page sizes
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// ListParams selects one page of a user's tasks.
type ListParams struct {
	Filter taskquery.Filter
	Sort   taskquery.Sort
	Page   int
	Limit  int
}

// Validate checks the enumerated parameters and fills defaults: limit 50
// (capped at 100), page 1, newest first.
func (p *ListParams) Validate() error {
	var errs domain.ValidationErrors

	if s := p.Filter.Status; s != "" && s != taskquery.All && !domain.Status(s).Valid() {
		errs.Add("status", "must be one of all, pending, in-progress, completed")
	}
	if pr := p.Filter.Priority; pr != "" && pr != taskquery.All && !domain.Priority(pr).Valid() {
		errs.Add("priority", "must be one of all, low, medium, high")
	}
	if p.Sort.By == "" {
		p.Sort.By = taskquery.SortByCreatedAt
	} else if !p.Sort.By.Valid() {
		errs.Add("sortBy", "must be one of createdAt, dueDate, priority, title")
	}
	if p.Sort.Order == "" {
		p.Sort.Order = taskquery.Desc
	} else if !p.Sort.Order.Valid() {
		errs.Add("sortOrder", "must be asc or desc")
	}

	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.Limit < 1:
		p.Limit = DefaultListLimit
	case p.Limit > MaxListLimit:
		p.Limit = MaxListLimit
	}
	return errs.Err()
}

// storeFilter pushes the filter predicates down to the database.
func (p ListParams) storeFilter() store.TaskFilter {
	var f store.TaskFilter
	if s := p.Filter.Status; s != "" && s != taskquery.All {
		f.Statuses = []domain.Status{domain.Status(s)}
	}
	if pr := p.Filter.Priority; pr != "" && pr != taskquery.All {
		f.Priority = domain.Priority(pr)
	}
	f.Search = strings.TrimSpace(p.Filter.Search)
	return f
}

// TaskService manages the authenticated user's tasks. Every operation is
// scoped to ownerID; tasks owned by someone else behave as missing.
type TaskService interface {
	List(ctx context.Context, ownerID uuid.UUID, params ListParams) (taskquery.Page, error)
	Create(ctx context.Context, ownerID uuid.UUID, draft domain.TaskDraft) (*domain.Task, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

type taskServiceImpl struct {
	tasks  store.TaskStore
	logger *slog.Logger
	now    func() time.Time
}

// NewTaskService creates a TaskService over tasks.
func NewTaskService(tasks store.TaskStore, logger *slog.Logger) TaskService {
	if tasks == nil {
		panic("task store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &taskServiceImpl{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "task_service")),
		now:    time.Now,
	}
}

// List filters in the store, then sorts and paginates with taskquery so the
// page matches what a client computes from the same collection. The store
// returns newest first; taskquery breaks ties by input order, so the rows are
// put back in creation order first, the order a client cache holds them in.
func (s *taskServiceImpl) List(ctx context.Context, ownerID uuid.UUID, params ListParams) (taskquery.Page, error) {
	if err := params.Validate(); err != nil {
		return taskquery.Page{}, err
	}

	tasks, err := s.tasks.List(ctx, ownerID, params.storeFilter())
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list tasks",
			slog.String("user_id", ownerID.String()),
			slog.String("error", err.Error()))
		return taskquery.Page{}, NewServiceError("task", "list", err)
	}

	tasks = taskquery.SortTasks(tasks, taskquery.Sort{By: taskquery.SortByCreatedAt, Order: taskquery.Asc})
	return taskquery.Apply(tasks, taskquery.Query{
		Filter:   params.Filter,
		Sort:     params.Sort,
		Page:     params.Page,
		PageSize: params.Limit,
	}), nil
}

func (s *taskServiceImpl) Create(ctx context.Context, ownerID uuid.UUID, draft domain.TaskDraft) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(ownerID, draft)
	if err != nil {
		log.Debug("rejected invalid task", slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		log.Error("failed to create task",
			slog.String("user_id", ownerID.String()),
			slog.String("error", err.Error()))
		return nil, NewServiceError("task", "create", err)
	}

	log.Info("task created",
		slog.String("user_id", ownerID.String()),
		slog.String("task_id", task.ID.String()))
	return task, nil
}

func (s *taskServiceImpl) Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, ownerID, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to get task",
				slog.String("task_id", id.String()),
				slog.String("error", err.Error()))
		}
		return nil, NewServiceError("task", "get", err)
	}
	return task, nil
}

// Update applies patch to the stored task. Concurrent updates are not
// versioned; the last write wins.
func (s *taskServiceImpl) Update(
	ctx context.Context,
	ownerID, id uuid.UUID,
	patch domain.TaskPatch,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if patch.IsEmpty() {
		return nil, ErrEmptyUpdate
	}

	current, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	updated, err := current.Apply(patch, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.tasks.Update(ctx, updated); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Error("failed to update task",
				slog.String("task_id", id.String()),
				slog.String("error", err.Error()))
		}
		return nil, NewServiceError("task", "update", err)
	}

	log.Debug("task updated",
		slog.String("task_id", id.String()),
		slog.String("status", string(updated.Status)))
	return updated, nil
}

func (s *taskServiceImpl) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.tasks.Delete(ctx, ownerID, id); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete task",
				slog.String("task_id", id.String()),
				slog.String("error", err.Error()))
		}
		return NewServiceError("task", "delete", err)
	}
	return nil
}
