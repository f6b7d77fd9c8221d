package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskflow-api/internal/api/shared"
)

// testRouter mounts handlers the way the server does, minus authentication:
// requests carry their user through withUser.
func testRouter(mount func(r chi.Router)) http.Handler {
	r := chi.NewRouter()
	mount(r)
	return r
}

func doRequest(t *testing.T, h http.Handler, method, target string, userID uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != uuid.Nil {
		req = req.WithContext(shared.WithUser(req.Context(), userID, "user@example.com"))
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}
