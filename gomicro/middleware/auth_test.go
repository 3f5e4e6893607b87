package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexzo/platform/gomicro/apperror"
	"github.com/nexzo/platform/gomicro/auth"
)

func newAuthEcho(opts AuthOptions) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		status, msg := apperror.Resolve(err)
		_ = c.JSON(status, apperror.Body{Error: msg, StatusCode: status})
	}
	e.Use(RequireAuth(auth.NewResolver(), opts))
	e.GET("/whoami", func(c echo.Context) error {
		caller, err := MustAuth(c)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, caller)
	})
	return e
}

func serve(e *echo.Echo, header, tenant string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	if tenant != "" {
		req.Header.Set(TenantHeader, tenant)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth_ResolvesCaller(t *testing.T) {
	e := newAuthEcho(AuthOptions{RequireTenant: true})

	rec := serve(e, "Bearer tenantA:userX", "tenantB")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"subject":"userX","tenantId":"tenantA","roles":[]}`, rec.Body.String())
}

func TestRequireAuth_HeaderTenantFallback(t *testing.T) {
	e := newAuthEcho(AuthOptions{RequireTenant: true})

	rec := serve(e, "Bearer opaque-user", "tenantB")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"subject":"opaque-user","tenantId":"tenantB","roles":[]}`, rec.Body.String())
}

func TestRequireAuth_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		opts   AuthOptions
		header string
		status int
		error  string
		reason string
	}{
		{"missing header", AuthOptions{}, "", http.StatusUnauthorized, "Unauthorized", "missing_token"},
		{"wrong scheme", AuthOptions{}, "Basic abc", http.StatusUnauthorized, "Invalid authorization header", "invalid_auth_format"},
		{"no token", AuthOptions{}, "Bearer", http.StatusUnauthorized, "Invalid authorization header", "invalid_auth_format"},
		{"tenant required", AuthOptions{RequireTenant: true}, "Bearer opaque", http.StatusBadRequest, "Tenant context missing", "tenant_missing"},
		{"optional but handler needs caller", AuthOptions{Optional: true}, "", http.StatusUnauthorized, "Unauthorized", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reasons []string
			tt.opts.OnFailure = func(r string) { reasons = append(reasons, r) }

			rec := serve(newAuthEcho(tt.opts), tt.header, "")
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.error)
			if tt.reason == "" {
				assert.Empty(t, reasons)
			} else {
				assert.Equal(t, []string{tt.reason}, reasons)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	e := echo.New()
	e.Use(RequestIDMiddleware())
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Request().Header.Get(echo.HeaderXRequestID))
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rec.Header().Get(echo.HeaderXRequestID)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, "abc")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get(echo.HeaderXRequestID))
}
