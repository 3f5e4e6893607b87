package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrActivityImmutable is returned when something tries to rewrite the audit trail
var ErrActivityImmutable = errors.New("ticket activity is append-only")

// ServiceTicket is a maintenance request raised against a property
type ServiceTicket struct {
	Base
	TenantID    string  `json:"tenantId" gorm:"type:uuid;not null;index"`
	PropertyID  string  `json:"propertyId" gorm:"type:uuid;not null;index"`
	UnitID      *string `json:"unitId" gorm:"type:uuid"`
	OpenedByID  *string `json:"openedById" gorm:"type:varchar(200)"`
	Summary     string  `json:"summary" gorm:"type:varchar(500);not null"`
	Description *string `json:"description" gorm:"type:text"`
	Category    *string `json:"category" gorm:"type:varchar(100)"`
	Priority    string  `json:"priority" gorm:"type:varchar(16);not null"`
	Status      string  `json:"status" gorm:"type:varchar(20);not null;index"`

	Activities []TicketActivity `json:"activities,omitempty" gorm:"foreignKey:TicketID"`
	Schedule   *TicketSchedule  `json:"schedule,omitempty" gorm:"foreignKey:TicketID"`
}

// TicketActivity is one audit trail entry. Rows are never updated or deleted.
type TicketActivity struct {
	ID        string         `json:"id" gorm:"type:uuid;primaryKey"`
	TicketID  string         `json:"ticketId" gorm:"type:uuid;not null;index"`
	ActorID   *string        `json:"actorId" gorm:"type:varchar(200)"`
	Action    string         `json:"action" gorm:"type:varchar(100);not null"`
	Payload   datatypes.JSON `json:"payload"`
	CreatedAt time.Time      `json:"createdAt" gorm:"index"`
}

// BeforeCreate assigns an id when the caller did not
func (a *TicketActivity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// BeforeUpdate rejects edits to the audit trail
func (a *TicketActivity) BeforeUpdate(tx *gorm.DB) error {
	return ErrActivityImmutable
}

// BeforeDelete rejects deletions from the audit trail
func (a *TicketActivity) BeforeDelete(tx *gorm.DB) error {
	return ErrActivityImmutable
}

// TicketSchedule is the single provider assignment of a ticket
type TicketSchedule struct {
	Base
	TicketID     string     `json:"ticketId" gorm:"type:uuid;not null;uniqueIndex"`
	ProviderName string     `json:"providerName" gorm:"type:varchar(200);not null"`
	Notes        *string    `json:"notes" gorm:"type:text"`
	ScheduledFor *time.Time `json:"scheduledFor"`
	Status       string     `json:"status" gorm:"type:varchar(20);not null"`
}
