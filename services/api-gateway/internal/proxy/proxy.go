// Package proxy forwards gateway traffic to the owning services. Requests
// pass through unchanged, including the Authorization and X-Tenant-ID
// headers; the upstream does its own caller resolution.
package proxy

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/nexzo/platform/gomicro/apperror"
	"github.com/nexzo/platform/gomicro/config"
	"github.com/nexzo/platform/gomicro/logger"
	"github.com/nexzo/platform/gomicro/metrics"
	"github.com/nexzo/platform/services/api-gateway/prometheus"
)

// Upstream is a service and the path prefixes it owns
type Upstream struct {
	Name     string
	Target   *url.URL
	Prefixes []string
}

// Upstreams maps the configured service URLs to their route prefixes
func Upstreams(cfg config.UpstreamConfig) ([]Upstream, error) {
	routes := []struct {
		name     string
		raw      string
		prefixes []string
	}{
		{"onboarding", cfg.OnboardingURL, []string{"/v1/tenants", "/v1/invitations", "/v1/properties", "/v1/units"}},
		{"billing", cfg.BillingURL, []string{"/v1/invoices"}},
		{"tickets", cfg.TicketsURL, []string{"/v1/tickets"}},
	}

	out := make([]Upstream, 0, len(routes))
	for _, r := range routes {
		target, err := url.Parse(r.raw)
		if err != nil || target.Scheme == "" || target.Host == "" {
			return nil, fmt.Errorf("invalid %s upstream URL %q", r.name, r.raw)
		}
		out = append(out, Upstream{Name: r.name, Target: target, Prefixes: r.prefixes})
	}
	return out, nil
}

// Register routes every prefix, and everything below it, to its upstream.
// Routes registered on e afterwards with a more specific path take
// precedence.
func Register(e *echo.Echo, upstreams []Upstream) {
	for _, up := range upstreams {
		h := Handler(up)
		for _, prefix := range up.Prefixes {
			e.Any(prefix, h)
			e.Any(prefix+"/*", h)
		}
	}
}

// Handler proxies a request to up. The request ID set by the server
// middleware travels with it.
func Handler(up Upstream) echo.HandlerFunc {
	forward := middleware.ProxyWithConfig(middleware.ProxyConfig{
		Balancer: middleware.NewRoundRobinBalancer([]*middleware.ProxyTarget{
			{Name: up.Name, URL: up.Target},
		}),
	})(func(echo.Context) error { return nil })

	return func(c echo.Context) error {
		start := time.Now()
		err := forward(c)
		status := c.Response().Status

		if err != nil {
			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) && httpErr.Code == http.StatusBadGateway {
				logger.FromEcho(c).Error("Upstream unavailable",
					zap.String("upstream", up.Name),
					zap.String("target", up.Target.String()),
					zap.Error(err))
				err = apperror.BadGateway("Upstream unavailable")
				status = http.StatusBadGateway
			}
		}

		category := metrics.StatusCategory(status)
		if category == "" {
			category = "other"
		}
		prometheus.RecordProxyRequest(up.Name, category, time.Since(start))
		return err
	}
}
