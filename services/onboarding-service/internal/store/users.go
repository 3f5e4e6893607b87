package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nexzo/platform/gomicro/apperror"
	"github.com/nexzo/platform/gomicro/auth"
	"github.com/nexzo/platform/gomicro/database"
	"github.com/nexzo/platform/gomicro/model"
	"github.com/nexzo/platform/services/onboarding-service/prometheus"
)

// NewUser describes a user to add to a tenant. An empty Role means
// LANDLORD_ADMIN.
type NewUser struct {
	Email     string
	FirstName *string
	LastName  *string
	Role      string
}

// ProfileUpdate lists the profile fields to change; nil fields are kept
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Status    *string
}

// parseRole maps a requested role to a UserRole, defaulting when empty
func parseRole(requested string, fallback model.UserRole) (model.UserRole, error) {
	if requested == "" {
		return fallback, nil
	}
	role, err := model.ParseUserRole(requested)
	if err != nil {
		return "", apperror.BadRequestf("Unsupported user role: %s", requested)
	}
	return role, nil
}

// CreateUser adds a user to tenantID. The email is stored lowercased and
// must be unique within the tenant.
func (s *Store) CreateUser(ctx context.Context, callerTenantID, tenantID string, in NewUser) (*model.User, error) {
	if err := auth.EnsureTenantScope(callerTenantID, tenantID); err != nil {
		return nil, err
	}
	role, err := parseRole(in.Role, model.RoleLandlordAdmin)
	if err != nil {
		return nil, err
	}
	defer prometheus.TrackDBOperation("create_user")(time.Now())

	user := &model.User{
		TenantID:  tenantID,
		Email:     strings.ToLower(in.Email),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      role,
		Status:    model.StatusActive,
	}
	err = database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := ensureTenantExists(tx, tenantID); err != nil {
			return err
		}
		if err := tx.Create(user).Error; err != nil {
			return database.Conflict(err, "A user with that email already exists for this tenant")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile changes a user's profile. The path tenant is checked first;
// the tenant of the stored user is checked again before anything is written.
func (s *Store) UpdateProfile(ctx context.Context, callerTenantID, tenantID, userID string, in ProfileUpdate) (*model.User, error) {
	if err := auth.EnsureTenantScope(callerTenantID, tenantID); err != nil {
		return nil, err
	}
	defer prometheus.TrackDBOperation("update_profile")(time.Now())

	var user model.User
	err := database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", userID).First(&user).Error
		if err != nil {
			return database.NotFound(err, "User not found")
		}
		if err := auth.EnsureTenantScope(callerTenantID, user.TenantID); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if in.FirstName != nil {
			user.FirstName = in.FirstName
			updates["first_name"] = *in.FirstName
		}
		if in.LastName != nil {
			user.LastName = in.LastName
			updates["last_name"] = *in.LastName
		}
		if in.Status != nil {
			user.Status = *in.Status
			updates["status"] = *in.Status
		}
		if len(updates) == 0 {
			return nil
		}

		user.UpdatedAt = s.now()
		updates["updated_at"] = user.UpdatedAt
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return fmt.Errorf("updating profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
