package model

import "time"

// InvitationStatus only moves forward: pending to accepted, expired or revoked
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationExpired  InvitationStatus = "expired"
	InvitationRevoked  InvitationStatus = "revoked"
)

// Invitation is a single-use token letting someone join a tenant.
// Only one pending invitation may exist per tenant and email.
type Invitation struct {
	Base
	TenantID    string           `json:"tenantId" gorm:"type:uuid;not null;uniqueIndex:idx_invitations_pending_email,where:status = 'pending'"`
	Email       string           `json:"email" gorm:"type:varchar(320);not null;uniqueIndex:idx_invitations_pending_email,where:status = 'pending'"`
	Role        UserRole         `json:"role" gorm:"type:varchar(32);not null"`
	Token       string           `json:"token" gorm:"type:varchar(64);not null;uniqueIndex"`
	Status      InvitationStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	InvitedByID *string          `json:"invitedById" gorm:"type:varchar(200)"`
	ExpiresAt   time.Time        `json:"expiresAt" gorm:"not null"`
	AcceptedAt  *time.Time       `json:"acceptedAt"`
}

// Expired reports whether the invitation is past its expiry at now
func (i *Invitation) Expired(now time.Time) bool {
	return i.ExpiresAt.Before(now)
}
