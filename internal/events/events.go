package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	UserDeleted    = "user.deleted"
	AvatarReplaced = "avatar.replaced"
	TasksPurged    = "tasks.purged"
)

// Event is a domain notification with a JSON payload.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

// UserDeletedPayload is carried by UserDeleted.
type UserDeletedPayload struct {
	UserID       uuid.UUID `json:"userId"`
	Avatar       string    `json:"avatar,omitempty"`
	TasksDeleted int64     `json:"tasksDeleted"`
}

// AvatarReplacedPayload is carried by AvatarReplaced. Previous may be empty.
type AvatarReplacedPayload struct {
	UserID   uuid.UUID `json:"userId"`
	Previous string    `json:"previous,omitempty"`
	Current  string    `json:"current,omitempty"`
}

// UnmarshalPayload decodes the payload into v.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent serializes payload and stamps a fresh id.
func NewEvent(eventType string, payload any) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler reacts to events. Handlers ignore types they do not know.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *Event) error

func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// EventEmitter publishes events to registered handlers.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *Event) error
}
