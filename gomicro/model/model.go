// Package model holds the gorm entities shared by every service. Every
// owned entity traces back to exactly one Tenant.
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the uuid primary key and timestamps
type Base struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns an id when the caller did not
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// All lists every entity in migration order
func All() []interface{} {
	return []interface{}{
		&Tenant{},
		&User{},
		&Property{},
		&Unit{},
		&Tenancy{},
		&Invitation{},
		&ServiceTicket{},
		&TicketActivity{},
		&TicketSchedule{},
		&ComplianceRuleState{},
		&Invoice{},
		&InvoiceLine{},
	}
}
