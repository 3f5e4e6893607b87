package dbtest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nexzo/platform/gomicro/model"
)

// Tenant inserts a tenant; an empty region is stored as NULL
func Tenant(t *testing.T, db *gorm.DB, name, region string) *model.Tenant {
	t.Helper()
	tenant := &model.Tenant{Name: name, Status: model.StatusActive}
	if region != "" {
		tenant.Region = &region
	}
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

// User inserts an active user in tenantID
func User(t *testing.T, db *gorm.DB, tenantID, email string, role model.UserRole) *model.User {
	t.Helper()
	user := &model.User{TenantID: tenantID, Email: email, Role: role, Status: model.StatusActive}
	require.NoError(t, db.Create(user).Error)
	return user
}

// Property inserts a property in tenantID with a minimal address
func Property(t *testing.T, db *gorm.DB, tenantID, name string) *model.Property {
	t.Helper()
	property := &model.Property{
		TenantID: tenantID,
		Name:     name,
		Address:  datatypes.JSON(`{"line1":"1 Main St","city":"Springfield","postalCode":"00001","country":"US"}`),
	}
	require.NoError(t, db.Create(property).Error)
	return property
}

// Unit inserts a unit under propertyID
func Unit(t *testing.T, db *gorm.DB, propertyID, label string) *model.Unit {
	t.Helper()
	unit := &model.Unit{PropertyID: propertyID, Label: label}
	require.NoError(t, db.Create(unit).Error)
	return unit
}
