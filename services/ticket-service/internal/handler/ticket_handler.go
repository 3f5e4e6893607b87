package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/nexzo/platform/gomicro/apperror"
	"github.com/nexzo/platform/gomicro/events"
	"github.com/nexzo/platform/gomicro/logger"
	mid "github.com/nexzo/platform/gomicro/middleware"
	"github.com/nexzo/platform/gomicro/model"
	"github.com/nexzo/platform/gomicro/validate"
	"github.com/nexzo/platform/services/ticket-service/internal/lifecycle"
	"github.com/nexzo/platform/services/ticket-service/internal/store"
	"github.com/nexzo/platform/services/ticket-service/prometheus"
)

// CreateTicketRequest defines the structure for raising a ticket
type CreateTicketRequest struct {
	TenantID    string  `json:"tenantId" validate:"required,uuid"`
	PropertyID  string  `json:"propertyId" validate:"required,uuid"`
	UnitID      *string `json:"unitId" validate:"omitempty,uuid"`
	Summary     string  `json:"summary" validate:"required,min=4"`
	Description *string `json:"description"`
	Priority    string  `json:"priority" validate:"omitempty,oneof=low medium high"`
	Category    *string `json:"category"`
}

// StatusUpdateRequest defines the structure for a status transition
type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note"`
}

// ActivityRequest defines the structure for a free-form activity
type ActivityRequest struct {
	Action string `json:"action" validate:"required,min=1"`
	Note   string `json:"note"`
}

// AssignmentRequest defines the structure for a provider assignment
type AssignmentRequest struct {
	ProviderName string `json:"providerName" validate:"required,min=1"`
	ContactEmail string `json:"contactEmail,omitempty" validate:"omitempty,email"`
	ContactPhone string `json:"contactPhone,omitempty"`
	ScheduledFor string `json:"scheduledFor,omitempty"`
}

// TicketResponse is returned when a ticket is raised
type TicketResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	TenantID   string `json:"tenantId"`
	PropertyID string `json:"propertyId"`
	Summary    string `json:"summary"`
}

// StatusResponse is returned after a transition
type StatusResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ActivityResponse is returned after a free-form activity
type ActivityResponse struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"createdAt"`
}

// AssignmentResponse is returned after a schedule upsert
type AssignmentResponse struct {
	ID           string     `json:"id"`
	ProviderName string     `json:"providerName"`
	ScheduledFor *time.Time `json:"scheduledFor"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// TicketHandler serves the ticket lifecycle over HTTP
type TicketHandler struct {
	store  *store.Store
	events events.Publisher
}

// NewTicketHandler creates a TicketHandler
func NewTicketHandler(s *store.Store, pub events.Publisher) *TicketHandler {
	return &TicketHandler{store: s, events: pub}
}

// Register mounts the ticket routes on g
func (h *TicketHandler) Register(g *echo.Group) {
	g.POST("/tickets", h.CreateTicket)
	g.GET("/tickets/:ticketId", h.GetTicket)
	g.POST("/tickets/:ticketId/status", h.UpdateStatus)
	g.POST("/tickets/:ticketId/activity", h.AddActivity)
	g.POST("/tickets/:ticketId/assignment", h.AssignProvider)
}

// CreateTicket handles raising a new ticket
func (h *TicketHandler) CreateTicket(c echo.Context) error {
	log := logger.FromEcho(c)
	caller, err := mid.MustAuth(c)
	if err != nil {
		return err
	}

	var req CreateTicketRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return err
	}

	priority := lifecycle.ParsePriority(req.Priority)
	created, err := h.store.CreateTicket(c.Request().Context(), caller.TenantID, store.CreateInput{
		TenantID:    req.TenantID,
		PropertyID:  req.PropertyID,
		UnitID:      req.UnitID,
		OpenedByID:  subjectPtr(caller.Subject),
		Summary:     req.Summary,
		Description: req.Description,
		Category:    req.Category,
		Priority:    priority,
	})
	if err != nil {
		log.Warn("Ticket creation rejected", zap.Error(err))
		return err
	}

	ticket := created.Ticket
	prometheus.RecordTicketCreated(string(priority))
	h.publish(c, ticket.TenantID, "ticket.created", created.Activity)

	log.Info("Ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("property_id", ticket.PropertyID),
		zap.String("priority", ticket.Priority))

	return c.JSON(http.StatusCreated, TicketResponse{
		ID:         ticket.ID,
		Status:     ticket.Status,
		TenantID:   ticket.TenantID,
		PropertyID: ticket.PropertyID,
		Summary:    ticket.Summary,
	})
}

// GetTicket returns a ticket with its audit trail and schedule
func (h *TicketHandler) GetTicket(c echo.Context) error {
	caller, err := mid.MustAuth(c)
	if err != nil {
		return err
	}
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return err
	}

	ticket, err := h.store.GetTicket(c.Request().Context(), caller.TenantID, ticketID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ticket)
}

// UpdateStatus handles a lifecycle transition
func (h *TicketHandler) UpdateStatus(c echo.Context) error {
	log := logger.FromEcho(c)
	caller, err := mid.MustAuth(c)
	if err != nil {
		return err
	}
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return err
	}

	var req StatusUpdateRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return err
	}
	next, err := lifecycle.ParseStatus(req.Status)
	if err != nil {
		return err
	}

	res, err := h.store.RequestTransition(c.Request().Context(), caller.TenantID, ticketID, subjectPtr(caller.Subject), next, req.Note)
	if err != nil {
		log.Warn("Ticket transition rejected",
			zap.String("ticket_id", ticketID),
			zap.String("to", string(next)),
			zap.Error(err))
		return err
	}

	prometheus.RecordTransition(string(res.From), string(next))
	h.publish(c, res.Ticket.TenantID, "ticket.status_changed", res.Activity)

	log.Info("Ticket status changed",
		zap.String("ticket_id", ticketID),
		zap.String("from", string(res.From)),
		zap.String("to", string(next)))

	return c.JSON(http.StatusOK, StatusResponse{
		ID:        res.Ticket.ID,
		Status:    res.Ticket.Status,
		UpdatedAt: res.Ticket.UpdatedAt.UTC(),
	})
}

// AddActivity appends a free-form audit entry
func (h *TicketHandler) AddActivity(c echo.Context) error {
	caller, err := mid.MustAuth(c)
	if err != nil {
		return err
	}
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return err
	}

	var req ActivityRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return err
	}

	activity, err := h.store.AppendActivity(c.Request().Context(), caller.TenantID, ticketID, subjectPtr(caller.Subject), req.Action, req.Note)
	if err != nil {
		return err
	}

	prometheus.RecordActivity()
	h.publish(c, caller.TenantID, "ticket.activity", activity)

	return c.JSON(http.StatusCreated, ActivityResponse{
		ID:        activity.ID,
		Action:    activity.Action,
		CreatedAt: activity.CreatedAt.UTC(),
	})
}

// AssignProvider upserts the ticket schedule
func (h *TicketHandler) AssignProvider(c echo.Context) error {
	log := logger.FromEcho(c)
	caller, err := mid.MustAuth(c)
	if err != nil {
		return err
	}
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return err
	}

	var req AssignmentRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return err
	}

	var scheduledFor *time.Time
	if req.ScheduledFor != "" {
		parsed, err := time.Parse(time.RFC3339Nano, req.ScheduledFor)
		if err != nil {
			return apperror.BadRequest("Invalid scheduledFor datetime")
		}
		scheduledFor = &parsed
	}

	res, err := h.store.UpsertSchedule(c.Request().Context(), caller.TenantID, ticketID, subjectPtr(caller.Subject), store.AssignmentInput{
		ProviderName: req.ProviderName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		ScheduledFor: scheduledFor,
		Payload:      req,
	})
	if err != nil {
		return err
	}

	prometheus.RecordScheduleUpsert(res.Created)
	h.publish(c, caller.TenantID, "ticket.assigned", res.Activity)

	log.Info("Ticket provider assigned",
		zap.String("ticket_id", ticketID),
		zap.String("provider", res.Schedule.ProviderName),
		zap.Bool("created", res.Created))

	var scheduled *time.Time
	if res.Schedule.ScheduledFor != nil {
		utc := res.Schedule.ScheduledFor.UTC()
		scheduled = &utc
	}
	return c.JSON(http.StatusOK, AssignmentResponse{
		ID:           res.Schedule.ID,
		ProviderName: res.Schedule.ProviderName,
		ScheduledFor: scheduled,
		UpdatedAt:    res.Schedule.UpdatedAt.UTC(),
	})
}

func (h *TicketHandler) publish(c echo.Context, tenantID, eventType string, activity *model.TicketActivity) {
	events.Emit(c.Request().Context(), h.events, events.TicketActivitySubject(tenantID), events.Envelope{
		Type:     eventType,
		TenantID: tenantID,
		Data:     activity,
	})
}

func ticketIDParam(c echo.Context) (string, error) {
	id := c.Param("ticketId")
	if _, err := uuid.Parse(id); err != nil {
		return "", apperror.BadRequest("Invalid ticket id")
	}
	return id, nil
}

func subjectPtr(subject string) *string {
	if subject == "" {
		return nil
	}
	return &subject
}
