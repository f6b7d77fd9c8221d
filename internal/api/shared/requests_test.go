package shared

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskflow-api/internal/domain"
)

type sampleRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Mode     string `json:"mode"     validate:"omitempty,oneof=fast slow"`
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid object", `{"email":"a@b.co","password":"secret1"}`, false},
		{"malformed", `{"email":`, true},
		{"trailing data", `{"email":"a@b.co"} {"x":1}`, true},
		{"empty body", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var v sampleRequest
			err := DecodeJSON(httptest.NewRecorder(), req, &v)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidJSON)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "a@b.co", v.Email)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateRequest(sampleRequest{Email: "a@b.co", Password: "secret1"}))

	err := ValidateRequest(sampleRequest{Email: "nope", Password: "123", Mode: "turbo"})
	require.ErrorIs(t, err, domain.ErrValidation)
	ve, ok := domain.AsValidationErrors(err)
	require.True(t, ok)
	assert.Equal(t, domain.ValidationErrors{
		{Field: "email", Message: "must be a valid email address"},
		{Field: "password", Message: "must be at least 6 characters"},
		{Field: "mode", Message: "must be one of fast, slow"},
	}, ve)

	ve, _ = domain.AsValidationErrors(ValidateRequest(sampleRequest{}))
	assert.Equal(t, "email", ve[0].Field)
	assert.Equal(t, "is required", ve[0].Message)
}
