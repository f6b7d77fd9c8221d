package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

const userColumns = `id, name, email, hashed_password, bio, phone, avatar, provider, provider_id, created_at, updated_at`

// PostgresUserStore implements store.UserStore on PostgreSQL.
// Plaintext passwords set on domain.User are hashed here before they are
// persisted, so callers never handle bcrypt directly.
type PostgresUserStore struct {
	db         store.DBTX
	bcryptCost int
	logger     *slog.Logger
}

// NewPostgresUserStore creates a user store over a connection or transaction.
// A bcrypt cost outside bcrypt's accepted range falls back to bcrypt.DefaultCost.
func NewPostgresUserStore(db store.DBTX, bcryptCost int, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}

	return &PostgresUserStore{
		db:         db,
		bcryptCost: bcryptCost,
		logger:     logger.With(slog.String("component", "user_store")),
	}
}

var _ store.UserStore = (*PostgresUserStore)(nil)

// Create inserts a new user. Returns store.ErrEmailExists when the email is taken.
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during create",
			slog.String("user_id", user.ID.String()),
			slog.String("error", err.Error()))
		return err
	}
	if err := s.hashPendingPassword(user); err != nil {
		log.Error("failed to hash password", slog.String("error", err.Error()))
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		user.ID,
		user.Name,
		user.Email,
		nullString(user.HashedPassword),
		user.Bio,
		user.Phone,
		user.Avatar,
		string(user.Provider),
		nullString(user.ProviderID),
		user.CreatedAt.UTC(),
		user.UpdatedAt.UTC(),
	)
	if err != nil {
		mapped := MapError(err, store.ErrUserNotFound)
		if errors.Is(mapped, store.ErrEmailExists) {
			log.Debug("email already registered", slog.String("user_id", user.ID.String()))
		} else {
			log.Error("failed to insert user",
				slog.String("user_id", user.ID.String()),
				slog.String("error", err.Error()))
		}
		return mapped
	}

	log.Debug("user created", slog.String("user_id", user.ID.String()))
	return nil
}

// GetByID returns the user with id or store.ErrUserNotFound.
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, s.lookupError(ctx, "id", id.String(), err)
	}
	return user, nil
}

// GetByEmail matches case-insensitively; emails are stored normalized.
func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err := scanUser(row)
	if err != nil {
		return nil, s.lookupError(ctx, "email", "", err)
	}
	return user, nil
}

// Update rewrites every mutable column. A non-empty user.Password replaces
// the stored hash; otherwise the hash on user is written back unchanged.
func (s *PostgresUserStore) Update(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		return err
	}
	if err := s.hashPendingPassword(user); err != nil {
		log.Error("failed to hash password", slog.String("error", err.Error()))
		return err
	}
	user.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET name = $2, email = $3, hashed_password = $4, bio = $5, phone = $6,
			avatar = $7, provider = $8, provider_id = $9, updated_at = $10
		WHERE id = $1`,
		user.ID,
		user.Name,
		user.Email,
		nullString(user.HashedPassword),
		user.Bio,
		user.Phone,
		user.Avatar,
		string(user.Provider),
		nullString(user.ProviderID),
		user.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update user",
			slog.String("user_id", user.ID.String()),
			slog.String("error", err.Error()))
		return MapError(err, store.ErrUserNotFound)
	}
	return CheckRowsAffected(result, store.ErrUserNotFound)
}

// Delete removes the user. Their tasks go with them through ON DELETE CASCADE.
func (s *PostgresUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete user",
			slog.String("user_id", id.String()),
			slog.String("error", err.Error()))
		return MapError(err, store.ErrUserNotFound)
	}
	if err := CheckRowsAffected(result, store.ErrUserNotFound); err != nil {
		return err
	}
	log.Debug("user deleted", slog.String("user_id", id.String()))
	return nil
}

func (s *PostgresUserStore) hashPendingPassword(user *domain.User) error {
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

func (s *PostgresUserStore) lookupError(ctx context.Context, by, value string, err error) error {
	mapped := MapError(err, store.ErrUserNotFound)
	if !store.IsNotFoundError(mapped) {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to load user",
			slog.String("by", by),
			slog.String("value", value),
			slog.String("error", err.Error()))
	}
	return mapped
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user       domain.User
		hashed     sql.NullString
		providerID sql.NullString
		provider   string
	)
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&hashed,
		&user.Bio,
		&user.Phone,
		&user.Avatar,
		&provider,
		&providerID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.HashedPassword = hashed.String
	user.ProviderID = providerID.String
	user.Provider = domain.Provider(provider)
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return &user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
