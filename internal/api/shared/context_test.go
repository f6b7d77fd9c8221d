package shared

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"testing"
	"testing/iotest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	traced := SetTraceID(ctx)
	id := GetTraceID(traced)
	assert.Len(t, id, 2*TraceIDLength)
	_, err := hex.DecodeString(id)
	assert.NoError(t, err)
	assert.Empty(t, GetTraceID(ctx), "parent context is unchanged")

	assert.NotEqual(t, id, GetTraceID(SetTraceID(ctx)))
	assert.Empty(t, GetTraceID(context.WithValue(ctx, TraceIDKey, 42)))
}

func TestNewTraceID(t *testing.T) {
	t.Parallel()

	fixed := bytes.Repeat([]byte{0xab}, TraceIDLength)
	assert.Equal(t, hex.EncodeToString(fixed), newTraceID(bytes.NewReader(fixed)))

	readers := map[string]*bytes.Reader{
		"short read": bytes.NewReader([]byte{1, 2, 3}),
		"empty":      bytes.NewReader(nil),
	}
	for name, r := range readers {
		t.Run(name, func(t *testing.T) {
			id := newTraceID(r)
			assert.Len(t, id, 2*TraceIDLength)
		})
	}

	id := newTraceID(iotest.ErrReader(errors.New("entropy exhausted")))
	_, err := hex.DecodeString(id)
	require.NoError(t, err)
	assert.Len(t, id, 2*TraceIDLength)
}

func TestFallbackTraceIDsDiffer(t *testing.T) {
	t.Parallel()
	seen := make(map[string]bool)
	for range 200 {
		id := fallbackTraceID()
		require.False(t, seen[id], "duplicate fallback id %s", id)
		seen[id] = true
	}
}

func TestWithUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, ok := UserID(ctx)
	assert.False(t, ok)
	assert.Empty(t, UserEmail(ctx))

	id := uuid.New()
	ctx = WithUser(ctx, id, "ada@example.com")
	got, ok := UserID(ctx)
	require.True(t, ok)
	assert.Equal(t, id, got)
	assert.Equal(t, "ada@example.com", UserEmail(ctx))

	_, ok = UserID(WithUser(context.Background(), uuid.Nil, ""))
	assert.False(t, ok, "nil id is not an authenticated user")
}
