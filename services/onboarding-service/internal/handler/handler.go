package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nexzo/platform/gomicro/events"
	"github.com/nexzo/platform/services/onboarding-service/internal/store"
)

// OnboardingHandler serves the tenant hierarchy over HTTP
type OnboardingHandler struct {
	store  *store.Store
	events events.Publisher
}

// NewOnboardingHandler creates an OnboardingHandler
func NewOnboardingHandler(s *store.Store, pub events.Publisher) *OnboardingHandler {
	return &OnboardingHandler{store: s, events: pub}
}

// RegisterPublic mounts the routes that need no caller
func (h *OnboardingHandler) RegisterPublic(g *echo.Group) {
	g.POST("/tenants", h.CreateTenant)
	g.POST("/invitations/:token/accept", h.AcceptInvitation)
}

// Register mounts the tenant-scoped routes
func (h *OnboardingHandler) Register(g *echo.Group) {
	g.POST("/tenants/:tenantId/users", h.CreateUser)
	g.PATCH("/tenants/:tenantId/users/:userId/profile", h.UpdateProfile)
	g.POST("/tenants/:tenantId/invitations", h.CreateInvitation)
	g.POST("/tenants/:tenantId/invitations/:invitationId/revoke", h.RevokeInvitation)
	g.POST("/properties", h.CreateProperty)
	g.POST("/properties/:propertyId/units", h.CreateUnit)
	g.POST("/units/:unitId/tenancies", h.CreateTenancy)
}

func utc(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func subjectPtr(subject string) *string {
	if subject == "" {
		return nil
	}
	return &subject
}
