package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/taskflow-api/internal/avatar"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/events"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// Profile is a user together with analytics over their tasks.
type Profile struct {
	User      *domain.User
	Analytics *domain.ProfileAnalytics
}

// ProfileInput is a full profile replacement. NewPassword is optional; when
// set on a password account, CurrentPassword must match.
type ProfileInput struct {
	Name            string
	Email           string
	Bio             string
	Phone           string
	CurrentPassword string
	NewPassword     string
}

// DeleteAccountInput confirms account deletion: the password for password
// accounts, ConfirmOAuth for OAuth-only accounts.
type DeleteAccountInput struct {
	Password     string
	ConfirmOAuth bool
}

// AvatarStorage persists avatar images.
type AvatarStorage interface {
	Save(ctx context.Context, userID uuid.UUID, r io.Reader) (*avatar.Stored, error)
	Remove(ctx context.Context, url string) error
}

// ProfileService serves the profile page and account management.
type ProfileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*domain.User, error)
	DeleteAccount(ctx context.Context, userID uuid.UUID, in DeleteAccountInput) error
	SetAvatar(ctx context.Context, userID uuid.UUID, r io.Reader) (*domain.User, error)
	RemoveAvatar(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

type profileServiceImpl struct {
	users     store.UserStore
	tasks     store.TaskStore
	tx        store.Transactor
	passwords auth.PasswordVerifier
	avatars   AvatarStorage
	emitter   events.EventEmitter
	logger    *slog.Logger
	now       func() time.Time
}

// NewProfileService creates a ProfileService.
func NewProfileService(
	users store.UserStore,
	tasks store.TaskStore,
	tx store.Transactor,
	passwords auth.PasswordVerifier,
	avatars AvatarStorage,
	emitter events.EventEmitter,
	logger *slog.Logger,
) ProfileService {
	if users == nil || tasks == nil || tx == nil || passwords == nil || avatars == nil || emitter == nil {
		panic("profile service dependencies cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &profileServiceImpl{
		users:     users,
		tasks:     tasks,
		tx:        tx,
		passwords: passwords,
		avatars:   avatars,
		emitter:   emitter,
		logger:    logger.With(slog.String("component", "profile_service")),
		now:       time.Now,
	}
}

func (s *profileServiceImpl) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	analytics, err := computeAnalytics(ctx, s.tasks, userID, s.now())
	if err != nil {
		log.Error("failed to compute profile analytics",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, NewServiceError("profile", "analytics", err)
	}

	return &Profile{User: user, Analytics: analytics}, nil
}

func (s *profileServiceImpl) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	var errs domain.ValidationErrors
	updated, err := user.ApplyProfile(domain.ProfileUpdate{
		Name:  in.Name,
		Email: in.Email,
		Bio:   in.Bio,
		Phone: in.Phone,
	}, s.now())
	if ve, ok := domain.AsValidationErrors(err); ok {
		errs = append(errs, ve...)
	} else if err != nil {
		return nil, err
	}

	changingPassword := in.NewPassword != ""
	if changingPassword && user.HasPassword() {
		if in.CurrentPassword == "" {
			errs.Add("currentPassword", "is required to set a new password")
		}
		if problem := domain.PasswordProblem(in.NewPassword); problem != "" {
			errs.Add("newPassword", problem)
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if changingPassword {
		if !user.HasPassword() {
			return nil, ErrOAuthPasswordChange
		}
		if err := s.passwords.Compare(user.HashedPassword, in.CurrentPassword); err != nil {
			log.Debug("profile update with wrong current password", slog.String("user_id", userID.String()))
			return nil, ErrIncorrectPassword
		}
		updated.Password = in.NewPassword
	}

	if err := s.users.Update(ctx, updated); err != nil {
		if errors.Is(err, store.ErrEmailExists) || errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		log.Error("failed to update profile",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, NewServiceError("profile", "update", err)
	}

	log.Info("profile updated",
		slog.String("user_id", userID.String()),
		slog.Bool("password_changed", changingPassword))
	return updated, nil
}

// DeleteAccount removes the user's tasks and then the user in one unit of
// work, then announces the deletion so the avatar file can be cleaned up.
func (s *profileServiceImpl) DeleteAccount(ctx context.Context, userID uuid.UUID, in DeleteAccountInput) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.user(ctx, userID)
	if err != nil {
		return err
	}

	if user.HasPassword() {
		if in.Password == "" {
			return domain.NewValidationError("password", "is required to delete the account", ErrConfirmationRequired)
		}
		if err := s.passwords.Compare(user.HashedPassword, in.Password); err != nil {
			return ErrIncorrectPassword
		}
	} else if !in.ConfirmOAuth {
		return domain.NewValidationError("confirmOAuth", "must be true to delete an OAuth account", ErrConfirmationRequired)
	}

	var removed int64
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context, st store.Stores) error {
		n, err := st.Tasks.DeleteByOwner(ctx, userID)
		if err != nil {
			return err
		}
		removed = n
		return st.Users.Delete(ctx, userID)
	})
	if err != nil {
		log.Error("failed to delete account",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return NewServiceError("profile", "delete_account", err)
	}

	log.Info("account deleted",
		slog.String("user_id", userID.String()),
		slog.Int64("tasks_deleted", removed))

	s.emit(ctx, events.UserDeleted, events.UserDeletedPayload{
		UserID:       userID,
		Avatar:       user.Avatar,
		TasksDeleted: removed,
	})
	return nil
}

// SetAvatar stores a new image and points the user at it. The previous
// image is removed by the avatar.replaced handler.
func (s *profileServiceImpl) SetAvatar(ctx context.Context, userID uuid.UUID, r io.Reader) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	stored, err := s.avatars.Save(ctx, userID, r)
	if err != nil {
		return nil, err
	}

	previous := user.Avatar
	user.Avatar = stored.URL
	if err := s.users.Update(ctx, user); err != nil {
		if rmErr := s.avatars.Remove(ctx, stored.URL); rmErr != nil {
			log.Warn("failed to remove orphaned avatar",
				slog.String("file", stored.FileName),
				slog.String("error", rmErr.Error()))
		}
		log.Error("failed to save avatar url",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, NewServiceError("profile", "set_avatar", err)
	}

	s.emit(ctx, events.AvatarReplaced, events.AvatarReplacedPayload{
		UserID:   userID,
		Previous: previous,
		Current:  stored.URL,
	})
	return user, nil
}

func (s *profileServiceImpl) RemoveAvatar(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Avatar == "" {
		return user, nil
	}

	previous := user.Avatar
	user.Avatar = ""
	if err := s.users.Update(ctx, user); err != nil {
		return nil, NewServiceError("profile", "remove_avatar", err)
	}

	s.emit(ctx, events.AvatarReplaced, events.AvatarReplacedPayload{
		UserID:   userID,
		Previous: previous,
	})
	return user, nil
}

func (s *profileServiceImpl) user(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to load user",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, NewServiceError("profile", "get_user", err)
	}
	return user, nil
}

// emit publishes an event. Handler failures are logged, never returned: the
// primary change has already been committed.
func (s *profileServiceImpl) emit(ctx context.Context, eventType string, payload any) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := events.NewEvent(eventType, payload)
	if err != nil {
		log.Error("failed to build event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("event handler failed",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
	}
}
