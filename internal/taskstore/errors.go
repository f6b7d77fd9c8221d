package taskstore

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

var (
	// ErrSessionExpired means the server rejected the session token. The
	// session has been cleared and the user must sign in again.
	ErrSessionExpired = errors.New("session expired")

	// ErrUnknownTask is returned by toggles for ids missing from the cache.
	ErrUnknownTask = errors.New("task not in store")
)

// DeleteFailure is one delete that did not succeed.
type DeleteFailure struct {
	ID  uuid.UUID
	Err error
}

// BulkDeleteError reports the deletes of a RemoveMany call that failed.
// Deletes that succeeded are not rolled back.
type BulkDeleteError struct {
	Deleted  []uuid.UUID
	Failures []DeleteFailure
	err      error
}

func newBulkDeleteError(deleted []uuid.UUID, failures []DeleteFailure) *BulkDeleteError {
	sort.Slice(failures, func(i, j int) bool {
		return failures[i].ID.String() < failures[j].ID.String()
	})
	var combined error
	for _, f := range failures {
		combined = multierr.Append(combined, fmt.Errorf("delete %s: %w", f.ID, f.Err))
	}
	return &BulkDeleteError{Deleted: deleted, Failures: failures, err: combined}
}

func (e *BulkDeleteError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d deletes failed", len(e.Failures), len(e.Failures)+len(e.Deleted))
	if e.err != nil {
		b.WriteString(": ")
		b.WriteString(e.err.Error())
	}
	return b.String()
}

// Unwrap exposes each failure so errors.Is matches any of them.
func (e *BulkDeleteError) Unwrap() []error {
	return multierr.Errors(e.err)
}

// FailedIDs lists the ids whose delete failed.
func (e *BulkDeleteError) FailedIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(e.Failures))
	for i, f := range e.Failures {
		ids[i] = f.ID
	}
	return ids
}
