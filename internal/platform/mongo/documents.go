package mongo

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/taskflow-api/internal/domain"
)

type userDocument struct {
	ID             string    `bson:"_id"`
	Name           string    `bson:"name"`
	Email          string    `bson:"email"`
	HashedPassword string    `bson:"hashed_password,omitempty"`
	Bio            string    `bson:"bio"`
	Phone          string    `bson:"phone"`
	Avatar         string    `bson:"avatar"`
	Provider       string    `bson:"provider"`
	ProviderID     string    `bson:"provider_id,omitempty"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

type taskDocument struct {
	ID          string     `bson:"_id"`
	OwnerID     string     `bson:"owner_id"`
	Title       string     `bson:"title"`
	Description string     `bson:"description"`
	Status      string     `bson:"status"`
	Priority    string     `bson:"priority"`
	DueDate     *time.Time `bson:"due_date"`
	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`
}

func newUserDocument(u *domain.User) userDocument {
	return userDocument{
		ID:             u.ID.String(),
		Name:           u.Name,
		Email:          u.Email,
		HashedPassword: u.HashedPassword,
		Bio:            u.Bio,
		Phone:          u.Phone,
		Avatar:         u.Avatar,
		Provider:       string(u.Provider),
		ProviderID:     u.ProviderID,
		CreatedAt:      u.CreatedAt.UTC(),
		UpdatedAt:      u.UpdatedAt.UTC(),
	}
}

func (d userDocument) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("corrupt user id %q: %w", d.ID, err)
	}
	return &domain.User{
		ID:             id,
		Name:           d.Name,
		Email:          d.Email,
		HashedPassword: d.HashedPassword,
		Bio:            d.Bio,
		Phone:          d.Phone,
		Avatar:         d.Avatar,
		Provider:       domain.Provider(d.Provider),
		ProviderID:     d.ProviderID,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}, nil
}

func newTaskDocument(t *domain.Task) taskDocument {
	doc := taskDocument{
		ID:          t.ID.String(),
		OwnerID:     t.OwnerID.String(),
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
	if t.DueDate != nil {
		due := t.DueDate.UTC()
		doc.DueDate = &due
	}
	return doc
}

func (d taskDocument) toDomain() (*domain.Task, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("corrupt task id %q: %w", d.ID, err)
	}
	owner, err := uuid.Parse(d.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("corrupt owner id %q: %w", d.OwnerID, err)
	}
	task := &domain.Task{
		ID:          id,
		OwnerID:     owner,
		Title:       d.Title,
		Description: d.Description,
		Status:      domain.Status(d.Status),
		Priority:    domain.Priority(d.Priority),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	if d.DueDate != nil {
		due := d.DueDate.UTC()
		task.DueDate = &due
	}
	return task, nil
}
