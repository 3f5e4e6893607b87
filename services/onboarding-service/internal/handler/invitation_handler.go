package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/nexzo/platform/gomicro/events"
	"github.com/nexzo/platform/gomicro/logger"
	mid "github.com/nexzo/platform/gomicro/middleware"
	"github.com/nexzo/platform/gomicro/validate"
	"github.com/nexzo/platform/services/onboarding-service/internal/store"
	"github.com/nexzo/platform/services/onboarding-service/prometheus"
)

// CreateInvitationRequest defines the structure for inviting someone
type CreateInvitationRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Role           string `json:"role"`
	ExpiresInHours int    `json:"expiresInHours" validate:"omitempty,min=1,max=336"`
}

// InvitationResponse is returned when an invitation is created
type InvitationResponse struct {
	InvitationID string `json:"invitationId"`
	TenantID     string `json:"tenantId"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Token        string `json:"token"`
	ExpiresAt    string `json:"expiresAt"`
}

// AcceptInvitationRequest carries the optional names of the new member
type AcceptInvitationRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

// AcceptedResponse is returned when an invitation is accepted
type AcceptedResponse struct {
	TenantID   string `json:"tenantId"`
	UserID     string `json:"userId"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	AcceptedAt string `json:"acceptedAt"`
}

// RevokedResponse is returned when an invitation is revoked
type RevokedResponse struct {
	InvitationID string `json:"invitationId"`
	Status       string `json:"status"`
}

// CreateInvitation handles sending an invitation
func (h *OnboardingHandler) CreateInvitation(c echo.Context) error {
	log := logger.FromEcho(c)
	caller, err := mid.MustAuth(c)
	if err != nil {
		return err
	}

	var req CreateInvitationRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return err
	}

	invitation, err := h.store.CreateInvitation(c.Request().Context(), caller.TenantID, c.Param("tenantId"), store.NewInvitation{
		Email:       req.Email,
		Role:        req.Role,
		ExpiresIn:   time.Duration(req.ExpiresInHours) * time.Hour,
		InvitedByID: subjectPtr(caller.Subject),
	})
	if err != nil {
		log.Warn("Invitation rejected", zap.Error(err))
		return err
	}

	prometheus.RecordInvitation("sent")
	log.Info("Invitation sent",
		zap.String("invitation_id", invitation.ID),
		zap.Time("expires_at", invitation.ExpiresAt))

	return c.JSON(http.StatusCreated, InvitationResponse{
		InvitationID: invitation.ID,
		TenantID:     invitation.TenantID,
		Email:        invitation.Email,
		Role:         string(invitation.Role),
		Token:        invitation.Token,
		ExpiresAt:    utc(invitation.ExpiresAt),
	})
}

// AcceptInvitation redeems an invitation token. No caller is required.
func (h *OnboardingHandler) AcceptInvitation(c echo.Context) error {
	log := logger.FromEcho(c)

	var req AcceptInvitationRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return err
	}

	accepted, err := h.store.AcceptInvitation(c.Request().Context(), c.Param("token"), store.Acceptance{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		if errors.Is(err, store.ErrInvitationExpired) {
			prometheus.RecordInvitation("expired")
		}
		log.Warn("Invitation acceptance rejected", zap.Error(err))
		return err
	}

	invitation := accepted.Invitation
	prometheus.RecordInvitation("accepted")

	resp := AcceptedResponse{
		TenantID:   invitation.TenantID,
		UserID:     accepted.User.ID,
		Email:      accepted.User.Email,
		Role:       string(invitation.Role),
		AcceptedAt: utc(*invitation.AcceptedAt),
	}
	events.Emit(c.Request().Context(), h.events, events.InvitationAcceptedSubject(invitation.TenantID), events.Envelope{
		Type:     "invitation.accepted",
		TenantID: invitation.TenantID,
		Data:     resp,
	})

	log.Info("Invitation accepted",
		zap.String("invitation_id", invitation.ID),
		zap.String("user_id", accepted.User.ID))

	return c.JSON(http.StatusOK, resp)
}

// RevokeInvitation withdraws a pending invitation
func (h *OnboardingHandler) RevokeInvitation(c echo.Context) error {
	caller, err := mid.MustAuth(c)
	if err != nil {
		return err
	}

	invitation, err := h.store.RevokeInvitation(c.Request().Context(), caller.TenantID, c.Param("tenantId"), c.Param("invitationId"))
	if err != nil {
		return err
	}

	prometheus.RecordInvitation("revoked")
	logger.FromEcho(c).Info("Invitation revoked", zap.String("invitation_id", invitation.ID))

	return c.JSON(http.StatusOK, RevokedResponse{
		InvitationID: invitation.ID,
		Status:       string(invitation.Status),
	})
}
