package avatar

import (
	"context"
	"fmt"

	"github.com/phrazzld/taskflow-api/internal/events"
)

// Remover deletes stored avatars by URL.
type Remover interface {
	IsLocal(url string) bool
	Remove(ctx context.Context, url string) error
}

// CleanupHandler removes avatar files that are no longer referenced. Pictures
// hosted elsewhere, like OAuth provider avatars, are left alone.
type CleanupHandler struct {
	storage Remover
}

func NewCleanupHandler(storage Remover) *CleanupHandler {
	return &CleanupHandler{storage: storage}
}

var _ events.EventHandler = (*CleanupHandler)(nil)

func (h *CleanupHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	var url string
	switch event.Type {
	case events.UserDeleted:
		var p events.UserDeletedPayload
		if err := event.UnmarshalPayload(&p); err != nil {
			return fmt.Errorf("invalid %s payload: %w", event.Type, err)
		}
		url = p.Avatar
	case events.AvatarReplaced:
		var p events.AvatarReplacedPayload
		if err := event.UnmarshalPayload(&p); err != nil {
			return fmt.Errorf("invalid %s payload: %w", event.Type, err)
		}
		url = p.Previous
	default:
		return nil
	}
	if url == "" || !h.storage.IsLocal(url) {
		return nil
	}
	return h.storage.Remove(ctx, url)
}
