// Package server builds the echo instance every service runs on.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/nexzo/platform/gomicro/apperror"
	"github.com/nexzo/platform/gomicro/logger"
	"github.com/nexzo/platform/gomicro/metrics"
	mid "github.com/nexzo/platform/gomicro/middleware"
	"github.com/nexzo/platform/gomicro/validate"
)

// ServiceInfo describes the running service for health responses
type ServiceInfo struct {
	Name      string
	Version   string
	StartedAt time.Time
}

// NewServiceInfo stamps the start time
func NewServiceInfo(name, version string) ServiceInfo {
	return ServiceInfo{Name: name, Version: version, StartedAt: time.Now().UTC()}
}

// Health is the body of GET /healthz
type Health struct {
	Service       string  `json:"service"`
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Timestamp     string  `json:"timestamp"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

// Health reports the service as ok at now
func (s ServiceInfo) Health(now time.Time) Health {
	return Health{
		Service:       s.Name,
		Status:        "ok",
		Version:       s.Version,
		Timestamp:     now.UTC().Format(time.RFC3339Nano),
		UptimeSeconds: now.Sub(s.StartedAt).Seconds(),
	}
}

// New returns an echo instance with the shared middleware chain, error
// mapper, validator, health and metrics endpoints installed
func New(info ServiceInfo, log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = apperror.NewHTTPErrorHandler(info.Name, logger.FromEcho)
	e.Validator = validate.New()

	httpMetrics := metrics.NewHTTPMetrics(info.Name)

	// Order matters: metrics sees the final status written by the logger
	// middleware, and panics are recovered inside the logger so they are
	// rendered and logged like any other error.
	e.Use(mid.RequestIDMiddleware())
	e.Use(httpMetrics.Middleware())
	e.Use(logger.Middleware(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	healthz := func(c echo.Context) error {
		return c.JSON(http.StatusOK, info.Health(time.Now()))
	}
	e.GET("/healthz", healthz)
	e.GET("/", healthz)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	return e
}

// Run serves e on :port until ctx is cancelled, then shuts down gracefully
func Run(ctx context.Context, e *echo.Echo, port string, log *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("port", port))
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("Shutting down server")
	return e.Shutdown(shutdownCtx)
}
