package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

const taskColumns = `id, owner_id, title, description, status, priority, due_date, created_at, updated_at`

// PostgresTaskStore implements store.TaskStore on PostgreSQL. Every query is
// scoped by owner_id; a task owned by someone else is indistinguishable from
// a missing one.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a task store over a connection or transaction.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Create inserts task after validating it.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		task.ID,
		task.OwnerID,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		task.DueDate,
		task.CreatedAt.UTC(),
		task.UpdatedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to insert task",
			slog.String("task_id", task.ID.String()),
			slog.String("owner_id", task.OwnerID.String()),
			slog.String("error", err.Error()))
		return MapError(err, store.ErrTaskNotFound)
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", task.OwnerID.String()))
	return nil
}

// GetByID returns the owner's task or store.ErrTaskNotFound.
func (s *PostgresTaskStore) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)

	task, err := scanTask(row)
	if err != nil {
		mapped := MapError(err, store.ErrTaskNotFound)
		if !store.IsNotFoundError(mapped) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to load task",
				slog.String("task_id", id.String()),
				slog.String("error", err.Error()))
		}
		return nil, mapped
	}
	return task, nil
}

// List returns the owner's tasks matching filter, newest first.
func (s *PostgresTaskStore) List(ctx context.Context, ownerID uuid.UUID, filter store.TaskFilter) ([]domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	where, args := buildTaskWhere(ownerID, filter)
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + where + ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks",
			slog.String("owner_id", ownerID.String()),
			slog.String("error", err.Error()))
		return nil, MapError(err, store.ErrTaskNotFound)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.Warn("failed to close task rows", slog.String("error", cerr.Error()))
		}
	}()

	tasks := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to read tasks: %w", err)
	}
	return tasks, nil
}

// Count returns how many of the owner's tasks match filter. Limit is ignored.
func (s *PostgresTaskStore) Count(ctx context.Context, ownerID uuid.UUID, filter store.TaskFilter) (int, error) {
	where, args := buildTaskWhere(ownerID, filter)

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE `+where, args...).Scan(&count); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count tasks",
			slog.String("owner_id", ownerID.String()),
			slog.String("error", err.Error()))
		return 0, MapError(err, store.ErrTaskNotFound)
	}
	return count, nil
}

// Update overwrites the mutable fields of an existing task. Last write wins.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = $3, description = $4, status = $5, priority = $6, due_date = $7, updated_at = $8
		WHERE id = $1 AND owner_id = $2`,
		task.ID,
		task.OwnerID,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		task.DueDate,
		task.UpdatedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
		return MapError(err, store.ErrTaskNotFound)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// Delete removes the owner's task or returns store.ErrTaskNotFound.
func (s *PostgresTaskStore) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("task_id", id.String()),
			slog.String("error", err.Error()))
		return MapError(err, store.ErrTaskNotFound)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// DeleteByOwner removes every task of ownerID and reports how many went.
func (s *PostgresTaskStore) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE owner_id = $1`, ownerID)
	if err != nil {
		log.Error("failed to delete owner tasks",
			slog.String("owner_id", ownerID.String()),
			slog.String("error", err.Error()))
		return 0, MapError(err, store.ErrTaskNotFound)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	log.Debug("owner tasks deleted",
		slog.String("owner_id", ownerID.String()),
		slog.Int64("count", n))
	return n, nil
}

// buildTaskWhere renders filter as a WHERE clause with positional arguments.
// The owner predicate is always first.
func buildTaskWhere(ownerID uuid.UUID, filter store.TaskFilter) (string, []any) {
	conds := []string{"owner_id = $1"}
	args := []any{ownerID}

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		add("status = ANY($%d)", statuses)
	}
	if filter.Priority != "" {
		add("priority = $%d", string(filter.Priority))
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		add("title ILIKE $%d ESCAPE '\\'", "%"+escapeLike(term)+"%")
	}
	if filter.DueFrom != nil {
		add("due_date >= $%d", filter.DueFrom.UTC())
	}
	if filter.DueBefore != nil {
		add("due_date < $%d", filter.DueBefore.UTC())
	}
	if filter.CreatedFrom != nil {
		add("created_at >= $%d", filter.CreatedFrom.UTC())
	}
	if filter.UpdatedFrom != nil {
		add("updated_at >= $%d", filter.UpdatedFrom.UTC())
	}

	return strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task     domain.Task
		status   string
		priority string
		due      sql.NullTime
	)
	err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&status,
		&priority,
		&due,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	task.Status = domain.Status(status)
	task.Priority = domain.Priority(priority)
	if due.Valid {
		d := due.Time.UTC()
		task.DueDate = &d
	}
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
	return &task, nil
}
