package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestKindStatus(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
		msg    string
	}{
		{BadRequest(""), http.StatusBadRequest, "Bad Request"},
		{Unauthorized(""), http.StatusUnauthorized, "Unauthorized"},
		{Forbidden("Cross-tenant access is not permitted"), http.StatusForbidden, "Cross-tenant access is not permitted"},
		{NotFound("Ticket not found"), http.StatusNotFound, "Ticket not found"},
		{Conflict(""), http.StatusConflict, "Conflict"},
		{BadGateway("Upstream unavailable"), http.StatusBadGateway, "Upstream unavailable"},
		{BadRequestf("Cannot transition ticket from %s to %s", "NEW", "VERIFIED"), http.StatusBadRequest, "Cannot transition ticket from NEW to VERIFIED"},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.Status())
			assert.Equal(t, tt.msg, tt.err.Error())
		})
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("creating user: %w", Conflict("duplicate"))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, Is(err, KindConflict))
	assert.False(t, Is(errors.New("plain"), KindConflict))
}

func TestResolve(t *testing.T) {
	status, msg := Resolve(NotFound("Tenant not found"))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Tenant not found", msg)

	status, msg = Resolve(echo.NewHTTPError(http.StatusBadRequest, "bad json"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "bad json", msg)

	status, msg = Resolve(echo.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not Found", msg)

	status, msg = Resolve(errors.New("pq: relation \"users\" does not exist"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal Server Error", msg)
}

func TestHTTPErrorHandler(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	e := echo.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler("billing", func(echo.Context) *zap.Logger { return logger })
	e.GET("/forbidden", func(c echo.Context) error { return Forbidden("Cannot draft invoices for another tenant") })
	e.GET("/boom", func(c echo.Context) error { return errors.New("connection refused to 10.0.0.5") })

	t.Run("domain error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/forbidden", nil))

		require.Equal(t, http.StatusForbidden, rec.Code)
		var body Body
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, Body{Error: "Cannot draft invoices for another tenant", StatusCode: 403, Service: "billing"}, body)
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("unexpected error is sanitized and logged", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "10.0.0.5")
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "request failed", logs.All()[0].Message)
	})
}
