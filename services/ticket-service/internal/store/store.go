// Package store persists service tickets. Every read-then-write runs in one
// transaction holding a row lock on the ticket.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nexzo/platform/gomicro/auth"
	"github.com/nexzo/platform/gomicro/database"
	"github.com/nexzo/platform/gomicro/model"
	"github.com/nexzo/platform/services/ticket-service/internal/lifecycle"
	"github.com/nexzo/platform/services/ticket-service/prometheus"
)

const (
	msgTicketNotFound   = "Ticket not found"
	msgForeignMutation  = "Cannot mutate tickets for another tenant"
	msgForeignRaise     = "Cannot raise tickets for another tenant"
	msgPropertyNotFound = "Property not found for tenant"
	msgUnitNotFound     = "Unit not found for property"
)

// Store is the ticket lifecycle backed by gorm
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// New creates a Store
func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// CreateInput describes a new ticket
type CreateInput struct {
	TenantID    string
	PropertyID  string
	UnitID      *string
	OpenedByID  *string
	Summary     string
	Description *string
	Category    *string
	Priority    lifecycle.Priority
}

// Created is a new ticket with its creation activity
type Created struct {
	Ticket   *model.ServiceTicket
	Activity *model.TicketActivity
}

// Transitioned is the outcome of a status change
type Transitioned struct {
	Ticket   *model.ServiceTicket
	Activity *model.TicketActivity
	From     lifecycle.Status
}

// AssignmentInput describes a provider assignment. Payload is the request
// as received and is recorded verbatim on the audit trail.
type AssignmentInput struct {
	ProviderName string
	ContactEmail string
	ContactPhone string
	ScheduledFor *time.Time
	Payload      interface{}
}

// Assigned is the outcome of a schedule upsert
type Assigned struct {
	Schedule *model.TicketSchedule
	Activity *model.TicketActivity
	Created  bool
}

// CreateTicket raises a ticket in status NEW and records a created activity.
// The property must belong to the tenant and the unit, if any, to the property.
func (s *Store) CreateTicket(ctx context.Context, callerTenantID string, in CreateInput) (*Created, error) {
	if err := auth.EnsureTenantScopef(callerTenantID, in.TenantID, msgForeignRaise); err != nil {
		return nil, err
	}
	defer prometheus.TrackDBOperation("create_ticket")(time.Now())

	var out Created
	err := database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		var property model.Property
		err := tx.Select("id").Where("id = ? AND tenant_id = ?", in.PropertyID, in.TenantID).First(&property).Error
		if err != nil {
			return database.NotFound(err, msgPropertyNotFound)
		}

		if in.UnitID != nil {
			var unit model.Unit
			err := tx.Select("id").Where("id = ? AND property_id = ?", *in.UnitID, in.PropertyID).First(&unit).Error
			if err != nil {
				return database.NotFound(err, msgUnitNotFound)
			}
		}

		ticket := &model.ServiceTicket{
			TenantID:    in.TenantID,
			PropertyID:  in.PropertyID,
			UnitID:      in.UnitID,
			OpenedByID:  in.OpenedByID,
			Summary:     in.Summary,
			Description: in.Description,
			Category:    in.Category,
			Priority:    string(in.Priority),
			Status:      string(lifecycle.StatusNew),
		}
		if err := tx.Create(ticket).Error; err != nil {
			return fmt.Errorf("creating ticket: %w", err)
		}

		activity, err := appendActivity(tx, ticket.ID, in.OpenedByID, lifecycle.ActionCreated, map[string]interface{}{
			"summary":  in.Summary,
			"category": in.Category,
		})
		if err != nil {
			return err
		}

		out = Created{Ticket: ticket, Activity: activity}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestTransition moves a ticket to next if the lifecycle allows it and
// records a status activity carrying the optional note
func (s *Store) RequestTransition(ctx context.Context, callerTenantID, ticketID string, actorID *string, next lifecycle.Status, note string) (*Transitioned, error) {
	defer prometheus.TrackDBOperation("transition_ticket")(time.Now())

	var out Transitioned
	err := database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		ticket, err := lockTicket(tx, callerTenantID, ticketID)
		if err != nil {
			return err
		}

		current := lifecycle.Status(ticket.Status)
		if err := lifecycle.EnsureTransition(current, next); err != nil {
			return err
		}

		ticket.Status = string(next)
		ticket.UpdatedAt = s.now()
		err = tx.Model(ticket).Updates(map[string]interface{}{
			"status":     ticket.Status,
			"updated_at": ticket.UpdatedAt,
		}).Error
		if err != nil {
			return fmt.Errorf("updating ticket status: %w", err)
		}

		activity, err := appendActivity(tx, ticket.ID, actorID, lifecycle.StatusAction(next), notePayload(note))
		if err != nil {
			return err
		}

		out = Transitioned{Ticket: ticket, Activity: activity, From: current}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AppendActivity records a free-form audit entry. Only the tenant scope is
// checked; the ticket status is irrelevant.
func (s *Store) AppendActivity(ctx context.Context, callerTenantID, ticketID string, actorID *string, action, note string) (*model.TicketActivity, error) {
	defer prometheus.TrackDBOperation("append_activity")(time.Now())

	var out *model.TicketActivity
	err := database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		ticket, err := lockTicket(tx, callerTenantID, ticketID)
		if err != nil {
			return err
		}

		out, err = appendActivity(tx, ticket.ID, actorID, action, notePayload(note))
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpsertSchedule keeps at most one schedule per ticket: an existing one is
// updated in place, otherwise one is created with scheduledFor defaulting
// to now. Every call records an assignment activity.
func (s *Store) UpsertSchedule(ctx context.Context, callerTenantID, ticketID string, actorID *string, in AssignmentInput) (*Assigned, error) {
	defer prometheus.TrackDBOperation("upsert_schedule")(time.Now())

	notes := lifecycle.ContactNotes(in.ContactEmail, in.ContactPhone)

	var out Assigned
	err := database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		ticket, err := lockTicket(tx, callerTenantID, ticketID)
		if err != nil {
			return err
		}

		var schedule model.TicketSchedule
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("ticket_id = ?", ticket.ID).Limit(1).Find(&schedule)
		if result.Error != nil {
			return fmt.Errorf("loading schedule: %w", result.Error)
		}

		if result.RowsAffected > 0 {
			schedule.ProviderName = in.ProviderName
			schedule.Status = lifecycle.ScheduleStatus
			schedule.UpdatedAt = s.now()
			updates := map[string]interface{}{
				"provider_name": schedule.ProviderName,
				"status":        schedule.Status,
				"updated_at":    schedule.UpdatedAt,
			}
			if notes != nil {
				schedule.Notes = notes
				updates["notes"] = *notes
			}
			if in.ScheduledFor != nil {
				schedule.ScheduledFor = in.ScheduledFor
				updates["scheduled_for"] = *in.ScheduledFor
			}
			if err := tx.Model(&schedule).Updates(updates).Error; err != nil {
				return fmt.Errorf("updating schedule: %w", err)
			}
		} else {
			scheduledFor := s.now()
			if in.ScheduledFor != nil {
				scheduledFor = *in.ScheduledFor
			}
			schedule = model.TicketSchedule{
				TicketID:     ticket.ID,
				ProviderName: in.ProviderName,
				Notes:        notes,
				ScheduledFor: &scheduledFor,
				Status:       lifecycle.ScheduleStatus,
			}
			if err := tx.Create(&schedule).Error; err != nil {
				return database.Conflict(err, "Ticket schedule was modified concurrently")
			}
			out.Created = true
		}

		activity, err := appendActivity(tx, ticket.ID, actorID, lifecycle.ActionAssignment, in.Payload)
		if err != nil {
			return err
		}

		out.Schedule = &schedule
		out.Activity = activity
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTicket loads a ticket with its activities in order and its schedule
func (s *Store) GetTicket(ctx context.Context, callerTenantID, ticketID string) (*model.ServiceTicket, error) {
	defer prometheus.TrackDBOperation("get_ticket")(time.Now())

	var ticket model.ServiceTicket
	err := s.db.WithContext(ctx).
		Preload("Activities", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Schedule").
		Where("id = ?", ticketID).
		First(&ticket).Error
	if err != nil {
		return nil, database.NotFound(err, msgTicketNotFound)
	}

	if err := auth.EnsureTenantScope(callerTenantID, ticket.TenantID); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// lockTicket re-reads the ticket under a row lock and checks the caller's
// tenant against the stored one
func lockTicket(tx *gorm.DB, callerTenantID, ticketID string) (*model.ServiceTicket, error) {
	var ticket model.ServiceTicket
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", ticketID).
		First(&ticket).Error
	if err != nil {
		return nil, database.NotFound(err, msgTicketNotFound)
	}

	if err := auth.EnsureTenantScopef(callerTenantID, ticket.TenantID, msgForeignMutation); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func appendActivity(tx *gorm.DB, ticketID string, actorID *string, action string, payload interface{}) (*model.TicketActivity, error) {
	activity := &model.TicketActivity{
		TicketID: ticketID,
		ActorID:  actorID,
		Action:   action,
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding activity payload: %w", err)
		}
		activity.Payload = datatypes.JSON(raw)
	}

	if err := tx.Create(activity).Error; err != nil {
		return nil, fmt.Errorf("appending %s activity: %w", action, err)
	}
	return activity, nil
}

// notePayload returns {"note": note}, or nil for an empty note
func notePayload(note string) interface{} {
	if note == "" {
		return nil
	}
	return map[string]string{"note": note}
}
