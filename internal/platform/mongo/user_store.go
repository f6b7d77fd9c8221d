package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// UserStore implements store.UserStore on a MongoDB collection.
type UserStore struct {
	coll       *mongo.Collection
	bcryptCost int
	logger     *slog.Logger
}

// NewUserStore creates a user store over db's users collection.
func NewUserStore(db *mongo.Database, bcryptCost int, logger *slog.Logger) *UserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserStore{
		coll:       db.Collection(UsersCollection),
		bcryptCost: bcryptCost,
		logger:     logger.With(slog.String("component", "user_store")),
	}
}

var _ store.UserStore = (*UserStore)(nil)

func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		return err
	}
	if err := s.hashPendingPassword(user); err != nil {
		return err
	}

	if _, err := s.coll.InsertOne(ctx, newUserDocument(user)); err != nil {
		mapped := MapError(err, store.ErrUserNotFound, store.ErrEmailExists)
		if !store.IsDuplicateError(mapped) {
			log.Error("failed to insert user",
				slog.String("user_id", user.ID.String()),
				slog.String("error", err.Error()))
		}
		return mapped
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"_id": id.String()})
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"email": domain.NormalizeEmail(email)})
}

func (s *UserStore) Update(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		return err
	}
	if err := s.hashPendingPassword(user); err != nil {
		return err
	}
	user.UpdatedAt = time.Now().UTC()

	result, err := s.coll.ReplaceOne(ctx, bson.M{"_id": user.ID.String()}, newUserDocument(user))
	if err != nil {
		log.Error("failed to update user",
			slog.String("user_id", user.ID.String()),
			slog.String("error", err.Error()))
		return MapError(err, store.ErrUserNotFound, store.ErrEmailExists)
	}
	if result.MatchedCount == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

func (s *UserStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete user",
			slog.String("user_id", id.String()),
			slog.String("error", err.Error()))
		return MapError(err, store.ErrUserNotFound, nil)
	}
	if result.DeletedCount == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDocument
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		mapped := MapError(err, store.ErrUserNotFound, nil)
		if !store.IsNotFoundError(mapped) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to load user",
				slog.String("error", err.Error()))
		}
		return nil, mapped
	}
	return doc.toDomain()
}

func (s *UserStore) hashPendingPassword(user *domain.User) error {
	if user.Password == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.HashedPassword = string(hash)
	user.Password = ""
	return nil
}
