package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// TaskStore implements store.TaskStore on a MongoDB collection.
type TaskStore struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

// NewTaskStore creates a task store over db's tasks collection.
func NewTaskStore(db *mongo.Database, logger *slog.Logger) *TaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{
		coll:   db.Collection(TasksCollection),
		logger: logger.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*TaskStore)(nil)

func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	if _, err := s.coll.InsertOne(ctx, newTaskDocument(task)); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to insert task",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
		return MapError(err, store.ErrTaskNotFound, nil)
	}
	return nil
}

func (s *TaskStore) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error) {
	var doc taskDocument
	err := s.coll.FindOne(ctx, ownedTask(ownerID, id)).Decode(&doc)
	if err != nil {
		mapped := MapError(err, store.ErrTaskNotFound, nil)
		if !store.IsNotFoundError(mapped) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to load task",
				slog.String("task_id", id.String()),
				slog.String("error", err.Error()))
		}
		return nil, mapped
	}
	return doc.toDomain()
}

// List returns matching tasks newest first.
func (s *TaskStore) List(ctx context.Context, ownerID uuid.UUID, filter store.TaskFilter) ([]domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := s.coll.Find(ctx, buildTaskFilter(ownerID, filter), opts)
	if err != nil {
		log.Error("failed to query tasks",
			slog.String("owner_id", ownerID.String()),
			slog.String("error", err.Error()))
		return nil, MapError(err, store.ErrTaskNotFound, nil)
	}

	var docs []taskDocument
	if err := cursor.All(ctx, &docs); err != nil {
		log.Error("failed to decode tasks", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to read tasks: %w", err)
	}

	tasks := make([]domain.Task, 0, len(docs))
	for _, doc := range docs {
		task, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, nil
}

func (s *TaskStore) Count(ctx context.Context, ownerID uuid.UUID, filter store.TaskFilter) (int, error) {
	n, err := s.coll.CountDocuments(ctx, buildTaskFilter(ownerID, filter))
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count tasks",
			slog.String("owner_id", ownerID.String()),
			slog.String("error", err.Error()))
		return 0, MapError(err, store.ErrTaskNotFound, nil)
	}
	return int(n), nil
}

func (s *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	doc := newTaskDocument(task)
	result, err := s.coll.UpdateOne(ctx, ownedTask(task.OwnerID, task.ID), bson.M{"$set": bson.M{
		"title":       doc.Title,
		"description": doc.Description,
		"status":      doc.Status,
		"priority":    doc.Priority,
		"due_date":    doc.DueDate,
		"updated_at":  doc.UpdatedAt,
	}})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update task",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
		return MapError(err, store.ErrTaskNotFound, nil)
	}
	if result.MatchedCount == 0 {
		return store.ErrTaskNotFound
	}
	return nil
}

func (s *TaskStore) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	result, err := s.coll.DeleteOne(ctx, ownedTask(ownerID, id))
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete task",
			slog.String("task_id", id.String()),
			slog.String("error", err.Error()))
		return MapError(err, store.ErrTaskNotFound, nil)
	}
	if result.DeletedCount == 0 {
		return store.ErrTaskNotFound
	}
	return nil
}

func (s *TaskStore) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	result, err := s.coll.DeleteMany(ctx, bson.M{"owner_id": ownerID.String()})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete owner tasks",
			slog.String("owner_id", ownerID.String()),
			slog.String("error", err.Error()))
		return 0, MapError(err, store.ErrTaskNotFound, nil)
	}
	return result.DeletedCount, nil
}

func ownedTask(ownerID, id uuid.UUID) bson.M {
	return bson.M{"_id": id.String(), "owner_id": ownerID.String()}
}

// buildTaskFilter is the bson counterpart of the SQL where-builder.
func buildTaskFilter(ownerID uuid.UUID, filter store.TaskFilter) bson.D {
	f := bson.D{{Key: "owner_id", Value: ownerID.String()}}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		f = append(f, bson.E{Key: "status", Value: bson.M{"$in": statuses}})
	}
	if filter.Priority != "" {
		f = append(f, bson.E{Key: "priority", Value: string(filter.Priority)})
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		f = append(f, bson.E{Key: "title", Value: primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}})
	}

	due := bson.M{}
	if filter.DueFrom != nil {
		due["$gte"] = filter.DueFrom.UTC()
	}
	if filter.DueBefore != nil {
		due["$lt"] = filter.DueBefore.UTC()
	}
	if len(due) > 0 {
		f = append(f, bson.E{Key: "due_date", Value: due})
	}
	if filter.CreatedFrom != nil {
		f = append(f, bson.E{Key: "created_at", Value: bson.M{"$gte": filter.CreatedFrom.UTC()}})
	}
	if filter.UpdatedFrom != nil {
		f = append(f, bson.E{Key: "updated_at", Value: bson.M{"$gte": filter.UpdatedFrom.UTC()}})
	}
	return f
}
