// Package store persists the tenant hierarchy: tenants, users, properties,
// units, tenancies and invitations. Every tenant-scoped write checks the
// caller's tenant before reading and re-validates the tenant chain of the
// rows it loads.
package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/nexzo/platform/gomicro/database"
	"github.com/nexzo/platform/gomicro/model"
	"github.com/nexzo/platform/services/onboarding-service/prometheus"
)

const msgTenantNotFound = "Tenant not found"

// InvitationPolicy bounds invitation lifetimes
type InvitationPolicy struct {
	DefaultTTL time.Duration
	MaxTTL     time.Duration
}

// Store is the onboarding data layer backed by gorm
type Store struct {
	db     *gorm.DB
	policy InvitationPolicy
	now    func() time.Time
}

// New creates a Store
func New(db *gorm.DB, policy InvitationPolicy) *Store {
	return &Store{db: db, policy: policy, now: time.Now}
}

// CreateTenant creates an active tenant. It needs no caller.
func (s *Store) CreateTenant(ctx context.Context, name string, region *string) (*model.Tenant, error) {
	defer prometheus.TrackDBOperation("create_tenant")(time.Now())

	tenant := &model.Tenant{Name: name, Region: region, Status: model.StatusActive}
	if err := s.db.WithContext(ctx).Create(tenant).Error; err != nil {
		return nil, fmt.Errorf("creating tenant: %w", err)
	}
	return tenant, nil
}

func ensureTenantExists(tx *gorm.DB, tenantID string) error {
	var tenant model.Tenant
	if err := tx.Select("id").Where("id = ?", tenantID).First(&tenant).Error; err != nil {
		return database.NotFound(err, msgTenantNotFound)
	}
	return nil
}
