package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Body is the JSON shape of every error response
type Body struct {
	Error      string `json:"error"`
	StatusCode int    `json:"statusCode"`
	Service    string `json:"service,omitempty"`
}

// Resolve maps any error to the status and message sent to the caller.
// Unrecognised errors collapse to a sanitized 500.
func Resolve(err error) (int, string) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status(), appErr.Message
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Code >= http.StatusInternalServerError {
			return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
		}
		message := http.StatusText(httpErr.Code)
		if m, ok := httpErr.Message.(string); ok && m != "" {
			message = m
		}
		return httpErr.Code, message
	}

	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

// NewHTTPErrorHandler returns the echo error handler used by every service.
// The log function resolves the request-scoped logger.
func NewHTTPErrorHandler(service string, log func(c echo.Context) *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, message := Resolve(err)
		if status >= http.StatusInternalServerError {
			log(c).Error("request failed",
				zap.Error(err),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()))
		}

		body := Body{Error: message, StatusCode: status, Service: service}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			log(c).Error("failed to write error response", zap.Error(fmt.Errorf("writing %d: %w", status, writeErr)))
		}
	}
}
