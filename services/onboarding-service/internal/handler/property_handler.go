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

// AddressRequest is the postal address of a property
type AddressRequest struct {
	Line1      string  `json:"line1" validate:"required"`
	Line2      *string `json:"line2"`
	City       string  `json:"city" validate:"required"`
	State      *string `json:"state"`
	PostalCode string  `json:"postalCode" validate:"required"`
	Country    string  `json:"country" validate:"required,min=2"`
}

// CreatePropertyRequest defines the structure for creating a property
type CreatePropertyRequest struct {
	TenantID        string                 `json:"tenantId" validate:"required,uuid"`
	Name            string                 `json:"name" validate:"required,min=2"`
	Address         *AddressRequest        `json:"address" validate:"required"`
	Timezone        *string                `json:"timezone"`
	SolarCapacityKw *float64               `json:"solarCapacityKw" validate:"omitempty,gt=0"`
	Metadata        map[string]interface{} `json:"metadata"`
}

// PropertyResponse is returned when a property is created
type PropertyResponse struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenantId"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

// CreateUnitRequest defines the structure for adding a unit
type CreateUnitRequest struct {
	TenantID   string  `json:"tenantId" validate:"required,uuid"`
	Label      string  `json:"label" validate:"required"`
	Floor      *string `json:"floor"`
	SquareFeet *int    `json:"squareFeet" validate:"omitempty,gt=0"`
}

// UnitResponse is returned when a unit is created
type UnitResponse struct {
	ID         string `json:"id"`
	PropertyID string `json:"propertyId"`
	Label      string `json:"label"`
	CreatedAt  string `json:"createdAt"`
}

// CreateTenancyRequest defines the structure for creating a tenancy
type CreateTenancyRequest struct {
	TenantID  string `json:"tenantId" validate:"required,uuid"`
	UserID    string `json:"userId" validate:"required,uuid"`
	StartDate string `json:"startDate" validate:"required"`
	EndDate   string `json:"endDate"`
}

// TenancyResponse is returned when a tenancy is created
type TenancyResponse struct {
	ID        string  `json:"id"`
	UnitID    string  `json:"unitId"`
	UserID    string  `json:"userId"`
	StartDate string  `json:"startDate"`
	EndDate   *string `json:"endDate"`
	Status    string  `json:"status"`
}

// CreateProperty handles property creation
func (h *OnboardingHandler) CreateProperty(c echo.Context) error {
	log := logger.FromEcho(c)
	caller, err := mid.MustAuth(c)
	if err != nil {
		return err
	}

	var req CreatePropertyRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return err
	}

	property, err := h.store.CreateProperty(c.Request().Context(), caller.TenantID, store.NewProperty{
		TenantID: req.TenantID,
		Name:     req.Name,
		Address: store.Address{
			Line1:      req.Address.Line1,
			Line2:      req.Address.Line2,
			City:       req.Address.City,
			State:      req.Address.State,
			PostalCode: req.Address.PostalCode,
			Country:    req.Address.Country,
		},
		Timezone:        req.Timezone,
		SolarCapacityKw: req.SolarCapacityKw,
		Metadata:        req.Metadata,
	})
	if err != nil {
		return err
	}

	prometheus.RecordOperation("create_property")
	log.Info("Property created", zap.String("property_id", property.ID))

	return c.JSON(http.StatusCreated, PropertyResponse{
		ID:        property.ID,
		TenantID:  property.TenantID,
		Name:      property.Name,
		CreatedAt: utc(property.CreatedAt),
	})
}

// CreateUnit handles adding a unit to a property
func (h *OnboardingHandler) CreateUnit(c echo.Context) error {
	caller, err := mid.MustAuth(c)
	if err != nil {
		return err
	}

	var req CreateUnitRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return err
	}

	unit, err := h.store.CreateUnit(c.Request().Context(), caller.TenantID, c.Param("propertyId"), store.NewUnit{
		TenantID:   req.TenantID,
		Label:      req.Label,
		Floor:      req.Floor,
		SquareFeet: req.SquareFeet,
	})
	if err != nil {
		return err
	}

	prometheus.RecordOperation("create_unit")
	return c.JSON(http.StatusCreated, UnitResponse{
		ID:         unit.ID,
		PropertyID: unit.PropertyID,
		Label:      unit.Label,
		CreatedAt:  utc(unit.CreatedAt),
	})
}

// CreateTenancy handles linking a user to a unit
func (h *OnboardingHandler) CreateTenancy(c echo.Context) error {
	log := logger.FromEcho(c)
	caller, err := mid.MustAuth(c)
	if err != nil {
		return err
	}

	var req CreateTenancyRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return err
	}

	tenancy, err := h.store.CreateTenancy(c.Request().Context(), caller.TenantID, c.Param("unitId"), store.NewTenancy{
		TenantID:  req.TenantID,
		UserID:    req.UserID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		log.Warn("Tenancy rejected", zap.Error(err))
		return err
	}

	prometheus.RecordOperation("create_tenancy")

	resp := TenancyResponse{
		ID:        tenancy.ID,
		UnitID:    tenancy.UnitID,
		UserID:    tenancy.UserID,
		StartDate: utc(tenancy.StartDate),
		Status:    tenancy.Status,
	}
	if tenancy.EndDate != nil {
		end := utc(*tenancy.EndDate)
		resp.EndDate = &end
	}
	return c.JSON(http.StatusCreated, resp)
}
