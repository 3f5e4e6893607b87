package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ComplianceRuleState is a tenant (and optionally property) scoped rule
// pack override. The most recently updated active row wins.
type ComplianceRuleState struct {
	Base
	TenantID   string         `json:"tenantId" gorm:"type:uuid;not null;index:idx_compliance_scope"`
	PropertyID *string        `json:"propertyId" gorm:"type:uuid;index:idx_compliance_scope"`
	Region     *string        `json:"region" gorm:"type:varchar(16)"`
	RulePackID *string        `json:"rulePackId" gorm:"type:varchar(100)"`
	Metadata   datatypes.JSON `json:"metadata"`
	Status     string         `json:"status" gorm:"type:varchar(20);not null;default:'active';index:idx_compliance_scope"`
}

// InvoiceStatus of a drafted or issued invoice
type InvoiceStatus string

const (
	InvoiceDraft  InvoiceStatus = "DRAFT"
	InvoiceIssued InvoiceStatus = "ISSUED"
	InvoicePaid   InvoiceStatus = "PAID"
	InvoiceVoid   InvoiceStatus = "VOID"
)

// Invoice totals always equal the sum of their lines
type Invoice struct {
	Base
	TenantID      string          `json:"tenantId" gorm:"type:uuid;not null;index"`
	TenantUserID  string          `json:"tenantUserId" gorm:"type:uuid;not null;index"`
	PropertyID    *string         `json:"propertyId" gorm:"type:uuid"`
	BillingPeriod string          `json:"billingPeriod" gorm:"type:varchar(32);not null"`
	Currency      string          `json:"currency" gorm:"type:char(3);not null"`
	Status        InvoiceStatus   `json:"status" gorm:"type:varchar(16);not null"`
	TotalAmount   decimal.Decimal `json:"totalAmount" gorm:"type:numeric(18,4);not null"`
	IssuedAt      *time.Time      `json:"issuedAt"`
	Metadata      datatypes.JSON  `json:"metadata"`

	Lines []InvoiceLine `json:"lines,omitempty" gorm:"foreignKey:InvoiceID"`
}

// InvoiceLine stores the line total as given; UnitAmount is derived from it.
// Position keeps the requested line order.
type InvoiceLine struct {
	Base
	InvoiceID   string              `json:"invoiceId" gorm:"type:uuid;not null;index"`
	Position    int                 `json:"position" gorm:"not null;default:0"`
	Description string              `json:"description" gorm:"type:varchar(500);not null"`
	Category    string              `json:"category" gorm:"type:varchar(100);not null"`
	Quantity    decimal.Decimal     `json:"quantity" gorm:"type:numeric(18,4);not null"`
	UnitAmount  decimal.Decimal     `json:"unitAmount" gorm:"type:numeric(28,8);not null"`
	TotalAmount decimal.Decimal     `json:"totalAmount" gorm:"type:numeric(18,4);not null"`
	TaxRate     decimal.NullDecimal `json:"taxRate" gorm:"type:numeric(7,4)"`
	SolarBand   *string             `json:"solarBand" gorm:"type:varchar(50)"`
}
