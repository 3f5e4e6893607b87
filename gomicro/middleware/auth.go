package middleware

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/nexzo/platform/gomicro/apperror"
	"github.com/nexzo/platform/gomicro/auth"
	"github.com/nexzo/platform/gomicro/logger"
)

const (
	// TenantHeader carries the tenant for credentials that do not embed one
	TenantHeader = "X-Tenant-ID"

	authContextKey = "auth"
)

// AuthOptions controls RequireAuth
type AuthOptions struct {
	// Optional lets requests without an Authorization header through unauthenticated
	Optional bool
	// RequireTenant rejects callers whose tenant could not be resolved
	RequireTenant bool
	// OnFailure is called with a short reason whenever a request is rejected
	OnFailure func(reason string)
}

// RequireAuth resolves the caller from the bearer credential and stores it
// on the echo context. Rejections are returned as errors so the shared
// error handler renders them.
func RequireAuth(resolver *auth.Resolver, opts AuthOptions) echo.MiddlewareFunc {
	fail := func(reason string, err error) error {
		if opts.OnFailure != nil {
			opts.OnFailure(reason)
		}
		return err
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				if opts.Optional {
					return next(c)
				}
				log.Debug("Missing authorization header")
				return fail("missing_token", apperror.Unauthorized(""))
			}

			token, err := auth.ParseBearer(header)
			if err != nil {
				log.Debug("Invalid authorization header format")
				return fail("invalid_auth_format", err)
			}

			caller := resolver.Resolve(token, c.Request().Header.Get(TenantHeader))
			if opts.RequireTenant && !caller.HasTenant() {
				log.Debug("Tenant context missing", zap.String("subject", caller.Subject))
				return fail("tenant_missing", apperror.BadRequest("Tenant context missing"))
			}

			c.Set(authContextKey, &caller)
			logger.With(c,
				zap.String("subject", caller.Subject),
				zap.String("tenant_id", caller.TenantID))

			return next(c)
		}
	}
}

// AuthFromEcho returns the caller stored by RequireAuth, if any
func AuthFromEcho(c echo.Context) (*auth.Context, bool) {
	caller, ok := c.Get(authContextKey).(*auth.Context)
	return caller, ok
}

// MustAuth returns the caller or an Unauthorized error for handlers mounted
// behind an optional RequireAuth
func MustAuth(c echo.Context) (*auth.Context, error) {
	caller, ok := AuthFromEcho(c)
	if !ok {
		return nil, apperror.Unauthorized("")
	}
	return caller, nil
}
