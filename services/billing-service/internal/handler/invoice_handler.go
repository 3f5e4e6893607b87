package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nexzo/platform/gomicro/apperror"
	"github.com/nexzo/platform/gomicro/events"
	"github.com/nexzo/platform/gomicro/logger"
	mid "github.com/nexzo/platform/gomicro/middleware"
	"github.com/nexzo/platform/gomicro/model"
	"github.com/nexzo/platform/gomicro/validate"
	"github.com/nexzo/platform/services/billing-service/internal/invoice"
	"github.com/nexzo/platform/services/billing-service/internal/store"
	"github.com/nexzo/platform/services/billing-service/prometheus"
)

// UsageRequest is the metered energy of the billing period
type UsageRequest struct {
	SolarKwh *float64 `json:"solarKwh" validate:"required,gte=0,lte=1000000000000"`
	GridKwh  *float64 `json:"gridKwh" validate:"required,gte=0,lte=1000000000000"`
}

// LineItemRequest is one requested line; amount is the line total
type LineItemRequest struct {
	Description string   `json:"description" validate:"required"`
	Category    string   `json:"category" validate:"required"`
	Amount      float64  `json:"amount" validate:"gt=0"`
	Quantity    *float64 `json:"quantity" validate:"omitempty,gt=0"`
	TaxRate     *float64 `json:"taxRate" validate:"omitempty,gte=0,lte=100"`
	SolarBand   *string  `json:"solarBand"`
}

// DraftInvoiceRequest defines the structure for drafting an invoice
type DraftInvoiceRequest struct {
	TenantID      string            `json:"tenantId" validate:"required,uuid"`
	TenantUserID  string            `json:"tenantUserId" validate:"required,uuid"`
	PropertyID    *string           `json:"propertyId" validate:"omitempty,uuid"`
	BillingPeriod string            `json:"billingPeriod" validate:"required,min=6"`
	Currency      string            `json:"currency" validate:"omitempty,len=3"`
	Usage         *UsageRequest     `json:"usage" validate:"required"`
	LineItems     []LineItemRequest `json:"lineItems" validate:"required,min=1,dive"`
}

// LineItemResponse is a persisted line as returned to the caller
type LineItemResponse struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
}

// InvoiceResponse is returned for drafted and fetched invoices
type InvoiceResponse struct {
	ID                string             `json:"id"`
	Status            string             `json:"status"`
	TotalAmount       decimal.Decimal    `json:"totalAmount"`
	Currency          string             `json:"currency"`
	IssuedAt          *time.Time         `json:"issuedAt"`
	AllocationSummary invoice.Allocation `json:"allocationSummary"`
	Compliance        invoice.Compliance `json:"compliance"`
	LineItems         []LineItemResponse `json:"lineItems"`
}

// InvoiceHandler serves invoice drafting over HTTP
type InvoiceHandler struct {
	store  *store.Store
	events events.Publisher
}

// NewInvoiceHandler creates an InvoiceHandler
func NewInvoiceHandler(s *store.Store, pub events.Publisher) *InvoiceHandler {
	return &InvoiceHandler{store: s, events: pub}
}

// Register mounts the invoice routes on g
func (h *InvoiceHandler) Register(g *echo.Group) {
	g.POST("/invoices", h.DraftInvoice)
	g.GET("/invoices/:invoiceId", h.GetInvoice)
}

// DraftInvoice handles drafting a new invoice
func (h *InvoiceHandler) DraftInvoice(c echo.Context) error {
	log := logger.FromEcho(c)
	caller, err := mid.MustAuth(c)
	if err != nil {
		return err
	}

	var req DraftInvoiceRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return err
	}

	in := store.DraftInput{
		TenantID:      req.TenantID,
		TenantUserID:  req.TenantUserID,
		PropertyID:    req.PropertyID,
		BillingPeriod: req.BillingPeriod,
		Currency:      req.Currency,
		Usage:         invoice.Usage{SolarKwh: *req.Usage.SolarKwh, GridKwh: *req.Usage.GridKwh},
		Lines:         make([]invoice.LineInput, 0, len(req.LineItems)),
	}
	for _, item := range req.LineItems {
		in.Lines = append(in.Lines, invoice.LineInput{
			Description: item.Description,
			Category:    item.Category,
			Amount:      item.Amount,
			Quantity:    item.Quantity,
			TaxRate:     item.TaxRate,
			SolarBand:   item.SolarBand,
		})
	}

	drafted, err := h.store.DraftInvoice(c.Request().Context(), caller.TenantID, in)
	if err != nil {
		prometheus.RecordRejection(apperror.KindOf(err).String())
		log.Warn("Invoice draft rejected", zap.String("tenant_id", req.TenantID), zap.Error(err))
		return err
	}

	inv := drafted.Invoice
	prometheus.RecordInvoiceDrafted(inv.Currency, len(inv.Lines))
	prometheus.RecordComplianceSource(drafted.Compliance.Source)

	resp := newInvoiceResponse(inv, drafted.Allocation, drafted.Compliance)
	events.Emit(c.Request().Context(), h.events, events.InvoiceDraftedSubject(inv.TenantID), events.Envelope{
		Type:     "invoice.drafted",
		TenantID: inv.TenantID,
		Data:     resp,
	})

	log.Info("Invoice drafted",
		zap.String("invoice_id", inv.ID),
		zap.String("total", inv.TotalAmount.String()),
		zap.String("currency", inv.Currency),
		zap.String("compliance_source", drafted.Compliance.Source))

	return c.JSON(http.StatusCreated, resp)
}

// GetInvoice returns a stored invoice. Allocation and compliance are read
// back from the stored metadata, not recomputed.
func (h *InvoiceHandler) GetInvoice(c echo.Context) error {
	caller, err := mid.MustAuth(c)
	if err != nil {
		return err
	}
	id := c.Param("invoiceId")
	if _, err := uuid.Parse(id); err != nil {
		return apperror.BadRequest("Invalid invoice id")
	}

	inv, err := h.store.GetInvoice(c.Request().Context(), caller.TenantID, id)
	if err != nil {
		return err
	}

	var meta store.Metadata
	if len(inv.Metadata) > 0 {
		if err := json.Unmarshal(inv.Metadata, &meta); err != nil {
			return fmt.Errorf("decoding metadata of invoice %s: %w", inv.ID, err)
		}
	}
	return c.JSON(http.StatusOK, newInvoiceResponse(inv, meta.Allocation, meta.Compliance))
}

func newInvoiceResponse(inv *model.Invoice, allocation invoice.Allocation, compliance invoice.Compliance) InvoiceResponse {
	lines := make([]LineItemResponse, 0, len(inv.Lines))
	for _, line := range inv.Lines {
		lines = append(lines, LineItemResponse{
			ID:          line.ID,
			Description: line.Description,
			Category:    line.Category,
			Amount:      line.TotalAmount,
		})
	}
	return InvoiceResponse{
		ID:                inv.ID,
		Status:            string(inv.Status),
		TotalAmount:       inv.TotalAmount,
		Currency:          inv.Currency,
		IssuedAt:          inv.IssuedAt,
		AllocationSummary: allocation,
		Compliance:        compliance,
		LineItems:         lines,
	}
}
