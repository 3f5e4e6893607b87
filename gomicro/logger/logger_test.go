package logger

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestGetLogger_NopBeforeInit(t *testing.T) {
	assert.NotNil(t, GetLogger())
}

func TestInitLogger_Environments(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		t.Run(env, func(t *testing.T) {
			err := InitLogger(&LogConfig{Level: "debug", Environment: env, ServiceName: "test"})
			require.NoError(t, err)
			assert.True(t, GetLogger().Core().Enabled(zap.DebugLevel))
		})
	}
}

func TestMiddleware_LogsWithRequestIDAndDownstreamFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e := echo.New()
	e.Use(Middleware(zap.New(core)))
	e.GET("/ping", func(c echo.Context) error {
		With(c, zap.String("tenant_id", "t-1"))
		assert.Equal(t, FromEcho(c), FromContext(c.Request().Context()))
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "HTTP request completed", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "t-1", fields["tenant_id"])
	assert.EqualValues(t, http.StatusNoContent, fields["status"])
}

func TestMiddleware_ErrorsAreRenderedBeforeLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e := echo.New()
	e.Use(Middleware(zap.New(core)))
	e.GET("/boom", func(c echo.Context) error {
		return errors.New("kaboom")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "HTTP request failed", logs.All()[0].Message)
}
