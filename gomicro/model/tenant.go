package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Status values shared by tenants, users and tenancies
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Tenant is the isolation root. Region drives the compliance fallback.
type Tenant struct {
	Base
	Name   string  `json:"name" gorm:"type:varchar(200);not null"`
	Region *string `json:"region" gorm:"type:varchar(16)"`
	Status string  `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
}

// UserRole is the role a user holds within their tenant
type UserRole string

const (
	RoleLandlordAdmin   UserRole = "LANDLORD_ADMIN"
	RolePropertyManager UserRole = "PROPERTY_MANAGER"
	RoleTenant          UserRole = "TENANT"
	RoleServiceProvider UserRole = "SERVICE_PROVIDER"
)

// ParseUserRole matches a role case-insensitively
func ParseUserRole(s string) (UserRole, error) {
	switch role := UserRole(strings.ToUpper(s)); role {
	case RoleLandlordAdmin, RolePropertyManager, RoleTenant, RoleServiceProvider:
		return role, nil
	default:
		return "", fmt.Errorf("unsupported user role: %s", s)
	}
}

// User belongs to one tenant; email is unique within it
type User struct {
	Base
	TenantID  string   `json:"tenantId" gorm:"type:uuid;not null;uniqueIndex:idx_users_tenant_email"`
	Email     string   `json:"email" gorm:"type:varchar(320);not null;uniqueIndex:idx_users_tenant_email"`
	FirstName *string  `json:"firstName" gorm:"type:varchar(100)"`
	LastName  *string  `json:"lastName" gorm:"type:varchar(100)"`
	Role      UserRole `json:"role" gorm:"type:varchar(32);not null"`
	Status    string   `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
}

// Property is owned exclusively by one tenant
type Property struct {
	Base
	TenantID        string              `json:"tenantId" gorm:"type:uuid;not null;index"`
	Name            string              `json:"name" gorm:"type:varchar(200);not null"`
	Address         datatypes.JSON      `json:"address" gorm:"not null"`
	Timezone        *string             `json:"timezone" gorm:"type:varchar(64)"`
	SolarCapacityKw decimal.NullDecimal `json:"solarCapacityKw" gorm:"type:numeric(10,2)"`
	Metadata        datatypes.JSON      `json:"metadata"`
}

// Unit belongs to a property; its tenant is the property's tenant
type Unit struct {
	Base
	PropertyID string  `json:"propertyId" gorm:"type:uuid;not null;index"`
	Label      string  `json:"label" gorm:"type:varchar(100);not null"`
	Floor      *string `json:"floor" gorm:"type:varchar(20)"`
	SquareFeet *int    `json:"squareFeet"`

	Property *Property `json:"-" gorm:"foreignKey:PropertyID"`
}

// Tenancy links a user to a unit of the same tenant
type Tenancy struct {
	Base
	UnitID    string     `json:"unitId" gorm:"type:uuid;not null;index"`
	UserID    string     `json:"userId" gorm:"type:uuid;not null;index"`
	StartDate time.Time  `json:"startDate" gorm:"not null"`
	EndDate   *time.Time `json:"endDate"`
	Status    string     `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
}
