package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nexzo/platform/gomicro/apperror"
	"github.com/nexzo/platform/gomicro/auth"
	"github.com/nexzo/platform/gomicro/database"
	"github.com/nexzo/platform/gomicro/model"
	"github.com/nexzo/platform/services/onboarding-service/prometheus"
)

// Address is the postal address of a property
type Address struct {
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      *string `json:"state,omitempty"`
	PostalCode string  `json:"postalCode"`
	Country    string  `json:"country"`
}

// NewProperty describes a property to create
type NewProperty struct {
	TenantID        string
	Name            string
	Address         Address
	Timezone        *string
	SolarCapacityKw *float64
	Metadata        map[string]interface{}
}

// NewUnit describes a unit to add to a property
type NewUnit struct {
	TenantID   string
	Label      string
	Floor      *string
	SquareFeet *int
}

// NewTenancy describes a tenancy. Dates are RFC 3339 strings.
type NewTenancy struct {
	TenantID  string
	UserID    string
	StartDate string
	EndDate   string
}

// CreateProperty creates a property owned by in.TenantID
func (s *Store) CreateProperty(ctx context.Context, callerTenantID string, in NewProperty) (*model.Property, error) {
	if err := auth.EnsureTenantScope(callerTenantID, in.TenantID); err != nil {
		return nil, err
	}
	defer prometheus.TrackDBOperation("create_property")(time.Now())

	address, err := json.Marshal(in.Address)
	if err != nil {
		return nil, fmt.Errorf("encoding address: %w", err)
	}
	property := &model.Property{
		TenantID: in.TenantID,
		Name:     in.Name,
		Address:  datatypes.JSON(address),
		Timezone: in.Timezone,
	}
	if in.SolarCapacityKw != nil {
		property.SolarCapacityKw = decimal.NewNullDecimal(decimal.NewFromFloat(*in.SolarCapacityKw))
	}
	if in.Metadata != nil {
		meta, err := json.Marshal(in.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encoding property metadata: %w", err)
		}
		property.Metadata = datatypes.JSON(meta)
	}

	err = database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := ensureTenantExists(tx, in.TenantID); err != nil {
			return err
		}
		return tx.Create(property).Error
	})
	if err != nil {
		return nil, err
	}
	return property, nil
}

// CreateUnit adds a unit to a property of in.TenantID
func (s *Store) CreateUnit(ctx context.Context, callerTenantID, propertyID string, in NewUnit) (*model.Unit, error) {
	if err := auth.EnsureTenantScope(callerTenantID, in.TenantID); err != nil {
		return nil, err
	}
	defer prometheus.TrackDBOperation("create_unit")(time.Now())

	unit := &model.Unit{
		PropertyID: propertyID,
		Label:      in.Label,
		Floor:      in.Floor,
		SquareFeet: in.SquareFeet,
	}
	err := database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		var property model.Property
		err := tx.Select("id").Where("id = ? AND tenant_id = ?", propertyID, in.TenantID).First(&property).Error
		if err != nil {
			return database.NotFound(err, "Property not found for tenant")
		}
		return tx.Create(unit).Error
	})
	if err != nil {
		return nil, err
	}
	return unit, nil
}

// CreateTenancy links a user to a unit. The unit's property and the user
// must both belong to in.TenantID.
func (s *Store) CreateTenancy(ctx context.Context, callerTenantID, unitID string, in NewTenancy) (*model.Tenancy, error) {
	if err := auth.EnsureTenantScope(callerTenantID, in.TenantID); err != nil {
		return nil, err
	}
	defer prometheus.TrackDBOperation("create_tenancy")(time.Now())

	var tenancy *model.Tenancy
	err := database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		var unit model.Unit
		err := tx.Joins("Property").Where("units.id = ?", unitID).First(&unit).Error
		if err != nil {
			return database.NotFound(err, "Unit not found for tenant")
		}
		if unit.Property == nil || unit.Property.TenantID != in.TenantID {
			return apperror.NotFound("Unit not found for tenant")
		}

		var user model.User
		err = tx.Select("id").Where("id = ? AND tenant_id = ?", in.UserID, in.TenantID).First(&user).Error
		if err != nil {
			return database.NotFound(err, "User not found for tenant")
		}

		start, end, err := tenancyDates(in.StartDate, in.EndDate)
		if err != nil {
			return err
		}

		tenancy = &model.Tenancy{
			UnitID:    unitID,
			UserID:    in.UserID,
			StartDate: start,
			EndDate:   end,
			Status:    model.StatusActive,
		}
		return tx.Create(tenancy).Error
	})
	if err != nil {
		return nil, err
	}
	return tenancy, nil
}

// tenancyDates parses the tenancy range; an end before the start is rejected
func tenancyDates(startRaw, endRaw string) (time.Time, *time.Time, error) {
	start, err := time.Parse(time.RFC3339Nano, startRaw)
	if err != nil {
		return time.Time{}, nil, apperror.BadRequest("Invalid startDate")
	}
	if endRaw == "" {
		return start, nil, nil
	}

	end, err := time.Parse(time.RFC3339Nano, endRaw)
	if err != nil {
		return time.Time{}, nil, apperror.BadRequest("Invalid endDate")
	}
	if end.Before(start) {
		return time.Time{}, nil, apperror.BadRequest("End date must be after start date")
	}
	return start, &end, nil
}
