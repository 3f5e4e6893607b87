// Package events publishes domain notifications to the message bus after
// the owning transaction commits. Delivery is best effort.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/nexzo/platform/gomicro/config"
	"github.com/nexzo/platform/gomicro/logger"
)

// Envelope wraps every published payload
type Envelope struct {
	Type       string      `json:"type"`
	TenantID   string      `json:"tenantId"`
	OccurredAt time.Time   `json:"occurredAt"`
	Data       interface{} `json:"data"`
}

// Publisher sends envelopes to a subject
type Publisher interface {
	Publish(ctx context.Context, subject string, env Envelope) error
	Close()
}

// TicketActivitySubject is where ticket activity for a tenant is published
func TicketActivitySubject(tenantID string) string {
	return fmt.Sprintf("tickets.%s.activity", tenantID)
}

// InvoiceDraftedSubject is where drafted invoices for a tenant are published
func InvoiceDraftedSubject(tenantID string) string {
	return fmt.Sprintf("invoices.%s.drafted", tenantID)
}

// InvitationAcceptedSubject is where accepted invitations for a tenant are published
func InvitationAcceptedSubject(tenantID string) string {
	return fmt.Sprintf("invitations.%s.accepted", tenantID)
}

// Emit publishes and logs failures. Callers have already committed, so a
// bus outage must not fail the request.
func Emit(ctx context.Context, pub Publisher, subject string, env Envelope) {
	if env.OccurredAt.IsZero() {
		env.OccurredAt = time.Now().UTC()
	}
	if err := pub.Publish(ctx, subject, env); err != nil {
		logger.FromContext(ctx).Warn("Failed to publish event",
			zap.String("subject", subject),
			zap.String("type", env.Type),
			zap.Error(err))
	}
}

// NATSPublisher publishes JSON envelopes on a NATS connection
type NATSPublisher struct {
	nc *nats.Conn
}

// NewNATSPublisher wraps an established connection
func NewNATSPublisher(nc *nats.Conn) *NATSPublisher {
	return &NATSPublisher{nc: nc}
}

// Publish implements Publisher
func (p *NATSPublisher) Publish(_ context.Context, subject string, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", env.Type, err)
	}
	return p.nc.Publish(subject, data)
}

// Close drains pending messages and closes the connection
func (p *NATSPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
	}
}

// Nop drops every event
type Nop struct{}

// Publish implements Publisher
func (Nop) Publish(context.Context, string, Envelope) error { return nil }

// Close implements Publisher
func (Nop) Close() {}

// Connect returns a NATS publisher, or Nop when no URL is configured or the
// bus is unreachable at startup
func Connect(cfg config.NATSConfig, name string, log *zap.Logger) Publisher {
	if cfg.URL == "" {
		log.Info("NATS URL not configured, events disabled")
		return Nop{}
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name(name),
		nats.ReconnectWait(cfg.ReconnectInterval),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("Disconnected from NATS", zap.Error(err))
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info("Reconnected to NATS")
		}),
	)
	if err != nil {
		log.Warn("Failed to connect to NATS, continuing without events", zap.Error(err))
		return Nop{}
	}

	log.Info("Connected to NATS", zap.String("url", cfg.URL))
	return NewNATSPublisher(nc)
}
