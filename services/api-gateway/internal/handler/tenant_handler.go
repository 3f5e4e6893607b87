package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	mid "github.com/nexzo/platform/gomicro/middleware"
	"github.com/nexzo/platform/services/api-gateway/internal/store"
)

// TenantResponse is the public view of a tenant
type TenantResponse struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Region *string `json:"region"`
}

// TenantHandler serves tenant lookups from the gateway itself
type TenantHandler struct {
	store *store.Store
}

// NewTenantHandler creates a TenantHandler
func NewTenantHandler(s *store.Store) *TenantHandler {
	return &TenantHandler{store: s}
}

// Register mounts the tenant lookup on g
func (h *TenantHandler) Register(g *echo.Group) {
	g.GET("/tenants/:tenantId", h.GetTenant)
}

// GetTenant returns the caller's own tenant
func (h *TenantHandler) GetTenant(c echo.Context) error {
	caller, err := mid.MustAuth(c)
	if err != nil {
		return err
	}

	tenant, err := h.store.GetTenant(c.Request().Context(), caller.TenantID, c.Param("tenantId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, TenantResponse{
		ID:     tenant.ID,
		Name:   tenant.Name,
		Region: tenant.Region,
	})
}
