package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nexzo/platform/gomicro/config"
	"github.com/nexzo/platform/gomicro/events"
	"github.com/nexzo/platform/gomicro/events/eventstest"
	"github.com/nexzo/platform/gomicro/logger"
)

func TestSubjects(t *testing.T) {
	assert.Equal(t, "tickets.t1.activity", events.TicketActivitySubject("t1"))
	assert.Equal(t, "invoices.t1.drafted", events.InvoiceDraftedSubject("t1"))
	assert.Equal(t, "invitations.t1.accepted", events.InvitationAcceptedSubject("t1"))
}

func TestEmit_StampsTime(t *testing.T) {
	rec := &eventstest.Recorder{}
	events.Emit(context.Background(), rec, "tickets.t1.activity", events.Envelope{Type: "ticket.created", TenantID: "t1"})

	got := rec.Events()
	require.Len(t, got, 1)
	assert.Equal(t, "tickets.t1.activity", got[0].Subject)
	assert.False(t, got[0].Envelope.OccurredAt.IsZero())
}

func TestEmit_FailureIsLoggedNotReturned(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ctx := logger.WithContext(context.Background(), zap.New(core))

	rec := &eventstest.Recorder{Err: errors.New("nats: connection closed")}
	events.Emit(ctx, rec, "invoices.t1.drafted", events.Envelope{Type: "invoice.drafted"})

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Failed to publish event", logs.All()[0].Message)
	assert.Empty(t, rec.Events())
}

func TestConnect_WithoutURLIsNop(t *testing.T) {
	pub := events.Connect(config.NATSConfig{}, "test", zap.NewNop())
	assert.IsType(t, events.Nop{}, pub)
	assert.NoError(t, pub.Publish(context.Background(), "x", events.Envelope{}))
	pub.Close()
}
