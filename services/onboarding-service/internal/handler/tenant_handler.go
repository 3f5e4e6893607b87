package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/nexzo/platform/gomicro/logger"
	mid "github.com/nexzo/platform/gomicro/middleware"
	"github.com/nexzo/platform/gomicro/validate"
	"github.com/nexzo/platform/services/onboarding-service/internal/store"
	"github.com/nexzo/platform/services/onboarding-service/prometheus"
)

// CreateTenantRequest defines the structure for creating a tenant
type CreateTenantRequest struct {
	Name   string  `json:"name" validate:"required,min=2"`
	Region *string `json:"region"`
}

// TenantResponse is returned when a tenant is created
type TenantResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Region    *string `json:"region"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"createdAt"`
}

// CreateUserRequest defines the structure for adding a user to a tenant
type CreateUserRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Role      string  `json:"role"`
}

// UserResponse is returned when a user is created
type UserResponse struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenantId"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

// UpdateProfileRequest defines the structure for a profile change
type UpdateProfileRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=1"`
	LastName  *string `json:"lastName" validate:"omitempty,min=1"`
	Status    *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// ProfileResponse is returned after a profile change
type ProfileResponse struct {
	ID        string  `json:"id"`
	TenantID  string  `json:"tenantId"`
	Email     string  `json:"email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Status    string  `json:"status"`
	UpdatedAt string  `json:"updatedAt"`
}

// CreateTenant handles tenant creation. No caller is required.
func (h *OnboardingHandler) CreateTenant(c echo.Context) error {
	log := logger.FromEcho(c)

	var req CreateTenantRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return err
	}

	tenant, err := h.store.CreateTenant(c.Request().Context(), req.Name, req.Region)
	if err != nil {
		return err
	}

	prometheus.RecordOperation("create_tenant")
	log.Info("Tenant created", zap.String("tenant_id", tenant.ID), zap.String("name", tenant.Name))

	return c.JSON(http.StatusCreated, TenantResponse{
		ID:        tenant.ID,
		Name:      tenant.Name,
		Region:    tenant.Region,
		Status:    tenant.Status,
		CreatedAt: utc(tenant.CreatedAt),
	})
}

// CreateUser handles adding a user to a tenant
func (h *OnboardingHandler) CreateUser(c echo.Context) error {
	log := logger.FromEcho(c)
	caller, err := mid.MustAuth(c)
	if err != nil {
		return err
	}

	var req CreateUserRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.store.CreateUser(c.Request().Context(), caller.TenantID, c.Param("tenantId"), store.NewUser{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	})
	if err != nil {
		log.Warn("User creation rejected", zap.Error(err))
		return err
	}

	prometheus.RecordOperation("create_user")
	log.Info("User created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))

	return c.JSON(http.StatusCreated, UserResponse{
		ID:        user.ID,
		TenantID:  user.TenantID,
		Email:     user.Email,
		Role:      string(user.Role),
		CreatedAt: utc(user.CreatedAt),
	})
}

// UpdateProfile handles a profile change
func (h *OnboardingHandler) UpdateProfile(c echo.Context) error {
	caller, err := mid.MustAuth(c)
	if err != nil {
		return err
	}

	var req UpdateProfileRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.store.UpdateProfile(c.Request().Context(), caller.TenantID, c.Param("tenantId"), c.Param("userId"), store.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Status:    req.Status,
	})
	if err != nil {
		return err
	}

	prometheus.RecordOperation("update_profile")
	return c.JSON(http.StatusOK, ProfileResponse{
		ID:        user.ID,
		TenantID:  user.TenantID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Status:    user.Status,
		UpdatedAt: utc(user.UpdatedAt),
	})
}
