package shared

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
)

func TestRespondWithJSON(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	RespondWithJSON(w, req, http.StatusCreated, map[string]any{"message": "success", "data": 123})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"success","data":123}`, w.Body.String())
}

func TestRespondWithError(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), TraceIDKey, "trace-123"))
	w := httptest.NewRecorder()

	RespondWithError(w, req, http.StatusNotFound, "Task not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Task not found","traceId":"trace-123"}`, w.Body.String())
}

func TestRespondWithErrorAndLog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	req := httptest.NewRequest(http.MethodPost, "/api/tasks", nil)
	req = req.WithContext(logger.WithLogger(req.Context(), log))
	w := httptest.NewRecorder()

	secret := errors.New("dial postgres://admin:hunter2@db:5432/app failed")
	RespondWithErrorAndLog(w, req, http.StatusInternalServerError, "An unexpected error occurred", secret)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "hunter2")
	assert.NotContains(t, w.Body.String(), "postgres")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.NotContains(t, entry["error"], "hunter2")
	assert.Equal(t, float64(500), entry["status_code"])
}

func TestRespondWithErrorAndLogLevels(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		status int
		opts   []ResponseOption
		level  string
	}{
		{"client error", http.StatusBadRequest, nil, "DEBUG"},
		{"elevated client error", http.StatusUnauthorized, []ResponseOption{WithElevatedLogLevel()}, "WARN"},
		{"rate limited", http.StatusTooManyRequests, nil, "WARN"},
		{"server error", http.StatusBadGateway, nil, "ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req = req.WithContext(logger.WithLogger(req.Context(), log))

			RespondWithErrorAndLog(httptest.NewRecorder(), req, tt.status, "msg", nil, tt.opts...)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.level, entry["level"])
		})
	}
}

func TestRespondWithErrorDetails(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodPost, "/api/tasks", nil)
	w := httptest.NewRecorder()

	RespondWithErrorAndLog(w, req, http.StatusBadRequest, "Validation failed", nil,
		WithDetails([]domain.FieldError{{Field: "title", Message: "is required"}}))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Validation failed", body.Error)
	assert.Equal(t, []domain.FieldError{{Field: "title", Message: "is required"}}, body.Details)
}
