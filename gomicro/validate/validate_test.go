package validate

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexzo/platform/gomicro/apperror"
)

type inviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role,omitempty" validate:"omitempty,oneof=TENANT PROPERTY_MANAGER"`
	Hours int    `json:"expiresInHours" validate:"omitempty,min=1,max=336"`
}

func TestValidate(t *testing.T) {
	v := New()

	tests := []struct {
		name string
		req  inviteRequest
		msg  string
	}{
		{"ok", inviteRequest{Email: "a@b.co"}, ""},
		{"missing email", inviteRequest{}, "email is required"},
		{"bad email", inviteRequest{Email: "nope"}, "email must be a valid email"},
		{"bad role", inviteRequest{Email: "a@b.co", Role: "ROOT"}, "role must be one of [TENANT PROPERTY_MANAGER]"},
		{"too long", inviteRequest{Email: "a@b.co", Hours: 400}, "expiresInHours must be at most 336"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.req)
			if tt.msg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperror.Is(err, apperror.KindBadRequest))
			assert.Equal(t, tt.msg, err.Error())
		})
	}
}

func TestBindAndValidate(t *testing.T) {
	e := echo.New()
	e.Validator = New()

	newCtx := func(body string) echo.Context {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		return e.NewContext(req, httptest.NewRecorder())
	}

	var req inviteRequest
	require.NoError(t, BindAndValidate(newCtx(`{"email":"x@y.io"}`), &req))
	assert.Equal(t, "x@y.io", req.Email)

	err := BindAndValidate(newCtx(`{"email":`), &inviteRequest{})
	require.Error(t, err)
	assert.Equal(t, "Invalid request body", err.Error())

	err = BindAndValidate(newCtx(`{}`), &inviteRequest{})
	require.Error(t, err)
	assert.Equal(t, "email is required", err.Error())
}
