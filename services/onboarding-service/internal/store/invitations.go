package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nexzo/platform/gomicro/apperror"
	"github.com/nexzo/platform/gomicro/auth"
	"github.com/nexzo/platform/gomicro/database"
	"github.com/nexzo/platform/gomicro/model"
	"github.com/nexzo/platform/services/onboarding-service/prometheus"
)

const (
	msgInvitationNotFound = "Invitation not found"
	msgInvitationUsed     = "Invitation already used or revoked"
)

// ErrInvitationExpired is returned by the accept that finds the invitation
// past its expiry
var ErrInvitationExpired = apperror.BadRequest("Invitation has expired")

// NewInvitation describes an invitation to send. A zero ExpiresIn uses the
// policy default; an empty Role means TENANT.
type NewInvitation struct {
	Email       string
	Role        string
	ExpiresIn   time.Duration
	InvitedByID *string
}

// Acceptance carries the optional names given when accepting
type Acceptance struct {
	FirstName *string
	LastName  *string
}

// Accepted is the outcome of a successful acceptance
type Accepted struct {
	Invitation *model.Invitation
	User       *model.User
}

// CreateInvitation issues a pending invitation with a random token. Only
// one pending invitation may exist per tenant and email.
func (s *Store) CreateInvitation(ctx context.Context, callerTenantID, tenantID string, in NewInvitation) (*model.Invitation, error) {
	if err := auth.EnsureTenantScope(callerTenantID, tenantID); err != nil {
		return nil, err
	}
	role, err := parseRole(in.Role, model.RoleTenant)
	if err != nil {
		return nil, err
	}

	ttl := in.ExpiresIn
	if ttl == 0 {
		ttl = s.policy.DefaultTTL
	}
	if ttl <= 0 || ttl > s.policy.MaxTTL {
		return nil, apperror.BadRequestf("expiresInHours must be between 1 and %d", int(s.policy.MaxTTL.Hours()))
	}
	defer prometheus.TrackDBOperation("create_invitation")(time.Now())

	invitation := &model.Invitation{
		TenantID:    tenantID,
		Email:       strings.ToLower(in.Email),
		Role:        role,
		Token:       uuid.NewString(),
		Status:      model.InvitationPending,
		InvitedByID: in.InvitedByID,
		ExpiresAt:   s.now().Add(ttl),
	}
	err = database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := ensureTenantExists(tx, tenantID); err != nil {
			return err
		}
		if err := tx.Create(invitation).Error; err != nil {
			return database.Conflict(err, "An invitation has already been sent to that email")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invitation, nil
}

// AcceptInvitation redeems a pending token. The user is upserted by
// (tenant, email) and the invitation marked accepted in one transaction.
// An expired invitation is marked expired, that change is committed, and
// BadRequest is returned; later attempts then see Conflict.
func (s *Store) AcceptInvitation(ctx context.Context, token string, in Acceptance) (*Accepted, error) {
	defer prometheus.TrackDBOperation("accept_invitation")(time.Now())

	var (
		out     Accepted
		expired bool
	)
	err := database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		var invitation model.Invitation
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("token = ?", token).First(&invitation).Error
		if err != nil {
			return database.NotFound(err, msgInvitationNotFound)
		}
		if invitation.Status != model.InvitationPending {
			return apperror.Conflict(msgInvitationUsed)
		}

		now := s.now()
		if invitation.Expired(now) {
			expired = true
			return setInvitationStatus(tx, &invitation, model.InvitationExpired, now)
		}

		user, err := upsertMember(tx, &invitation, in, now)
		if err != nil {
			return err
		}

		invitation.AcceptedAt = &now
		invitation.Status = model.InvitationAccepted
		invitation.UpdatedAt = now
		err = tx.Model(&invitation).Updates(map[string]interface{}{
			"status":      invitation.Status,
			"accepted_at": now,
			"updated_at":  now,
		}).Error
		if err != nil {
			return fmt.Errorf("accepting invitation: %w", err)
		}

		out = Accepted{Invitation: &invitation, User: user}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, ErrInvitationExpired
	}
	return &out, nil
}

// RevokeInvitation withdraws a pending invitation of tenantID
func (s *Store) RevokeInvitation(ctx context.Context, callerTenantID, tenantID, invitationID string) (*model.Invitation, error) {
	if err := auth.EnsureTenantScope(callerTenantID, tenantID); err != nil {
		return nil, err
	}
	defer prometheus.TrackDBOperation("revoke_invitation")(time.Now())

	var invitation model.Invitation
	err := database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND tenant_id = ?", invitationID, tenantID).
			First(&invitation).Error
		if err != nil {
			return database.NotFound(err, msgInvitationNotFound)
		}
		if invitation.Status != model.InvitationPending {
			return apperror.Conflict(msgInvitationUsed)
		}
		return setInvitationStatus(tx, &invitation, model.InvitationRevoked, s.now())
	})
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

func setInvitationStatus(tx *gorm.DB, invitation *model.Invitation, status model.InvitationStatus, now time.Time) error {
	invitation.Status = status
	invitation.UpdatedAt = now
	err := tx.Model(invitation).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": now,
	}).Error
	if err != nil {
		return fmt.Errorf("marking invitation %s: %w", status, err)
	}
	return nil
}

// upsertMember creates the invited user or reactivates an existing one
// with the invitation's role
func upsertMember(tx *gorm.DB, invitation *model.Invitation, in Acceptance, now time.Time) (*model.User, error) {
	email := strings.ToLower(invitation.Email)

	var user model.User
	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND email = ?", invitation.TenantID, email).
		Limit(1).Find(&user)
	if result.Error != nil {
		return nil, fmt.Errorf("loading invited user: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		user = model.User{
			TenantID:  invitation.TenantID,
			Email:     email,
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Role:      invitation.Role,
			Status:    model.StatusActive,
		}
		if err := tx.Create(&user).Error; err != nil {
			return nil, database.Conflict(err, "A user with that email already exists for this tenant")
		}
		return &user, nil
	}

	updates := map[string]interface{}{
		"role":       invitation.Role,
		"status":     model.StatusActive,
		"updated_at": now,
	}
	if in.FirstName != nil {
		user.FirstName = in.FirstName
		updates["first_name"] = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = in.LastName
		updates["last_name"] = *in.LastName
	}
	user.Role = invitation.Role
	user.Status = model.StatusActive
	user.UpdatedAt = now
	if err := tx.Model(&user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("updating invited user: %w", err)
	}
	return &user, nil
}
