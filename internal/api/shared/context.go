package shared

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ContextKey namespaces the request-scoped values set by middleware.
type ContextKey string

const (
	UserIDContextKey    ContextKey = "userID"
	UserEmailContextKey ContextKey = "userEmail"
	TraceIDKey          ContextKey = "traceID"

	// TraceIDLength is the trace id size in bytes; ids are hex encoded.
	TraceIDLength = 16
)

var fallbackSeq atomic.Uint32

// SetTraceID returns a copy of ctx carrying a fresh trace id.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, newTraceID(rand.Reader))
}

// GetTraceID returns the request's trace id, or "".
func GetTraceID(ctx context.Context) string {
	id, _ := ctx.Value(TraceIDKey).(string)
	return id
}

// WithUser stores the authenticated user's id and email in ctx.
func WithUser(ctx context.Context, userID uuid.UUID, email string) context.Context {
	ctx = context.WithValue(ctx, UserIDContextKey, userID)
	return context.WithValue(ctx, UserEmailContextKey, email)
}

// UserID returns the authenticated user's id, if any.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(UserIDContextKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// UserEmail returns the authenticated user's email, or "".
func UserEmail(ctx context.Context) string {
	email, _ := ctx.Value(UserEmailContextKey).(string)
	return email
}

// newTraceID reads TraceIDLength random bytes from r. When r fails it
// builds the id from the clock, pid and a counter instead.
func newTraceID(r io.Reader) string {
	b := make([]byte, TraceIDLength)
	if _, err := io.ReadFull(r, b); err != nil {
		slog.Error("failed to read random trace id, using fallback", slog.String("error", err.Error()))
		return fallbackTraceID()
	}
	return hex.EncodeToString(b)
}

func fallbackTraceID() string {
	b := make([]byte, TraceIDLength)
	binary.BigEndian.PutUint64(b[:8], uint64(time.Now().UnixNano()))
	binary.BigEndian.PutUint32(b[8:12], uint32(os.Getpid()))
	binary.BigEndian.PutUint32(b[12:], fallbackSeq.Add(1))
	return hex.EncodeToString(b)
}
