package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nexzo/platform/gomicro/apperror"
)

func TestServiceInfoHealth(t *testing.T) {
	started := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	info := ServiceInfo{Name: "billing", Version: "1.2.3", StartedAt: started}

	h := info.Health(started.Add(90 * time.Second))
	assert.Equal(t, "billing", h.Service)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "1.2.3", h.Version)
	assert.Equal(t, 90.0, h.UptimeSeconds)
	assert.Equal(t, "2026-01-01T00:01:30Z", h.Timestamp)
}

func TestNew_HealthEndpoints(t *testing.T) {
	e := New(NewServiceInfo("server-test", "dev"), zap.NewNop())

	for _, path := range []string{"/healthz", "/"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)

		var h Health
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &h))
		assert.Equal(t, "server-test", h.Service)
		assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	}
}

func TestNew_ErrorsAndPanicsAreMapped(t *testing.T) {
	e := New(NewServiceInfo("server-test", "dev"), zap.NewNop())
	e.GET("/forbidden", func(c echo.Context) error { return apperror.Forbidden("Cross-tenant access is not permitted") })
	e.GET("/panic", func(c echo.Context) error { panic("boom") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/forbidden", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Cross-tenant access is not permitted","statusCode":403,"service":"server-test"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error","statusCode":500,"service":"server-test"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"statusCode":404`)
}
