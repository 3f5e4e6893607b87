// Package store reads tenants for the gateway
package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nexzo/platform/gomicro/auth"
	"github.com/nexzo/platform/gomicro/database"
	"github.com/nexzo/platform/gomicro/model"
	"github.com/nexzo/platform/services/api-gateway/prometheus"
)

// Store is a read-only view of tenants
type Store struct {
	db *gorm.DB
}

// New creates a Store
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// GetTenant returns tenantID if the caller belongs to it. The scope check
// runs before the read.
func (s *Store) GetTenant(ctx context.Context, callerTenantID, tenantID string) (*model.Tenant, error) {
	if err := auth.EnsureTenantScope(callerTenantID, tenantID); err != nil {
		return nil, err
	}
	defer prometheus.TrackDBOperation("get_tenant")(time.Now())

	var tenant model.Tenant
	err := s.db.WithContext(ctx).Select("id", "name", "region").Where("id = ?", tenantID).First(&tenant).Error
	if err != nil {
		return nil, database.NotFound(err, "Tenant not found")
	}
	return &tenant, nil
}
