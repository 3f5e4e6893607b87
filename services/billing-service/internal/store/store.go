// Package store drafts invoices against the shared schema
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nexzo/platform/gomicro/auth"
	"github.com/nexzo/platform/gomicro/database"
	"github.com/nexzo/platform/gomicro/model"
	"github.com/nexzo/platform/services/billing-service/internal/invoice"
	"github.com/nexzo/platform/services/billing-service/prometheus"
)

// DefaultCurrency is used when a draft names none
const DefaultCurrency = "USD"

// Store persists invoices
type Store struct {
	db *gorm.DB
}

// New creates a Store
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DraftInput describes an invoice to draft
type DraftInput struct {
	TenantID      string
	TenantUserID  string
	PropertyID    *string
	BillingPeriod string
	Currency      string
	Usage         invoice.Usage
	Lines         []invoice.LineInput
}

// Drafted is a persisted draft with the structures computed for it
type Drafted struct {
	Invoice    *model.Invoice
	Allocation invoice.Allocation
	Compliance invoice.Compliance
}

// Metadata is the JSON blob stored on every invoice
type Metadata struct {
	Allocation invoice.Allocation `json:"allocation"`
	Compliance invoice.Compliance `json:"compliance"`
}

// DraftInvoice validates the tenant chain, computes allocation, compliance
// and line amounts, and stores the invoice as DRAFT in one transaction
func (s *Store) DraftInvoice(ctx context.Context, callerTenantID string, in DraftInput) (*Drafted, error) {
	if err := auth.EnsureTenantScopef(callerTenantID, in.TenantID, "Cannot draft invoices for another tenant"); err != nil {
		return nil, err
	}
	defer prometheus.TrackDBOperation("draft_invoice")(time.Now())

	currency := strings.ToUpper(in.Currency)
	if currency == "" {
		currency = DefaultCurrency
	}

	var out Drafted
	err := database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		var tenant model.Tenant
		if err := tx.Select("id", "region").Where("id = ?", in.TenantID).First(&tenant).Error; err != nil {
			return database.NotFound(err, "Tenant not found")
		}

		lines, total, err := invoice.PriceLines(in.Lines)
		if err != nil {
			return err
		}
		allocation, err := invoice.Allocate(in.Usage)
		if err != nil {
			return err
		}

		var user model.User
		err = tx.Select("id").Where("id = ? AND tenant_id = ?", in.TenantUserID, in.TenantID).First(&user).Error
		if err != nil {
			return database.NotFound(err, "Tenant user not found")
		}

		if in.PropertyID != nil {
			var property model.Property
			err := tx.Select("id").Where("id = ? AND tenant_id = ?", *in.PropertyID, in.TenantID).First(&property).Error
			if err != nil {
				return database.NotFound(err, "Property not found for tenant")
			}
		}

		state, err := activeRuleState(tx, in.TenantID, in.PropertyID)
		if err != nil {
			return err
		}

		out.Allocation = allocation
		out.Compliance = invoice.Disclose(state, tenant.Region)

		meta, err := json.Marshal(Metadata{Allocation: out.Allocation, Compliance: out.Compliance})
		if err != nil {
			return fmt.Errorf("encoding invoice metadata: %w", err)
		}

		inv := &model.Invoice{
			TenantID:      in.TenantID,
			TenantUserID:  in.TenantUserID,
			PropertyID:    in.PropertyID,
			BillingPeriod: in.BillingPeriod,
			Currency:      currency,
			Status:        model.InvoiceDraft,
			TotalAmount:   total,
			Metadata:      datatypes.JSON(meta),
			Lines:         make([]model.InvoiceLine, 0, len(lines)),
		}
		for i, line := range lines {
			inv.Lines = append(inv.Lines, model.InvoiceLine{
				Position:    i,
				Description: line.Description,
				Category:    line.Category,
				Quantity:    line.Quantity,
				UnitAmount:  line.UnitAmount,
				TotalAmount: line.TotalAmount,
				TaxRate:     line.TaxRate,
				SolarBand:   line.SolarBand,
			})
		}

		// Lines are inserted through the association
		if err := tx.Create(inv).Error; err != nil {
			return fmt.Errorf("creating invoice: %w", err)
		}

		out.Invoice = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// activeRuleState loads the most recently updated active rule pack for the
// tenant, narrowed to the property when one is given. It returns nil when
// none applies.
func activeRuleState(tx *gorm.DB, tenantID string, propertyID *string) (*invoice.RuleState, error) {
	q := tx.Where("tenant_id = ? AND status = ?", tenantID, model.StatusActive)
	if propertyID != nil {
		q = q.Where("property_id = ?", *propertyID)
	}

	var states []model.ComplianceRuleState
	if err := q.Order("updated_at DESC").Limit(1).Find(&states).Error; err != nil {
		return nil, fmt.Errorf("loading compliance rule state: %w", err)
	}
	if len(states) == 0 {
		return nil, nil
	}

	row := states[0]
	return &invoice.RuleState{
		Region:     row.Region,
		RulePackID: row.RulePackID,
		Metadata:   invoice.DecodeMetadata(row.Metadata),
	}, nil
}

// GetInvoice loads an invoice with its lines, scoped to the caller's tenant
func (s *Store) GetInvoice(ctx context.Context, callerTenantID, id string) (*model.Invoice, error) {
	defer prometheus.TrackDBOperation("get_invoice")(time.Now())

	var inv model.Invoice
	err := s.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&inv).Error
	if err != nil {
		return nil, database.NotFound(err, "Invoice not found")
	}
	if err := auth.EnsureTenantScope(callerTenantID, inv.TenantID); err != nil {
		return nil, err
	}
	return &inv, nil
}
