package store

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nexzo/platform/gomicro/apperror"
	"github.com/nexzo/platform/gomicro/database/dbtest"
	"github.com/nexzo/platform/gomicro/model"
	"github.com/nexzo/platform/services/ticket-service/internal/lifecycle"
	"github.com/nexzo/platform/services/ticket-service/prometheus"
)

func TestMain(m *testing.M) {
	prometheus.InitMetrics("ticket_store_test")
	os.Exit(m.Run())
}

type fixture struct {
	db       *gorm.DB
	store    *Store
	tenant   *model.Tenant
	other    *model.Tenant
	property *model.Property
	unit     *model.Unit
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	f := &fixture{db: db, store: New(db)}
	f.tenant = dbtest.Tenant(t, db, "Acme", "US-CA")
	f.other = dbtest.Tenant(t, db, "Globex", "UK")
	f.property = dbtest.Property(t, db, f.tenant.ID, "Sunset Towers")
	f.unit = dbtest.Unit(t, db, f.property.ID, "4B")
	return f
}

func strPtr(s string) *string { return &s }

func (f *fixture) createTicket(t *testing.T) *model.ServiceTicket {
	t.Helper()
	created, err := f.store.CreateTicket(context.Background(), f.tenant.ID, CreateInput{
		TenantID:   f.tenant.ID,
		PropertyID: f.property.ID,
		UnitID:     &f.unit.ID,
		OpenedByID: strPtr("user-1"),
		Summary:    "Leaking faucet",
		Category:   strPtr("plumbing"),
		Priority:   lifecycle.PriorityHigh,
	})
	require.NoError(t, err)
	return created.Ticket
}

func activities(t *testing.T, db *gorm.DB, ticketID string) []model.TicketActivity {
	t.Helper()
	var out []model.TicketActivity
	require.NoError(t, db.Where("ticket_id = ?", ticketID).Order("created_at ASC").Find(&out).Error)
	return out
}

func TestCreateTicket(t *testing.T) {
	f := setup(t)
	ticket := f.createTicket(t)

	assert.Equal(t, string(lifecycle.StatusNew), ticket.Status)
	assert.Equal(t, string(lifecycle.PriorityHigh), ticket.Priority)

	acts := activities(t, f.db, ticket.ID)
	require.Len(t, acts, 1)
	assert.Equal(t, "created", acts[0].Action)
	assert.Equal(t, "user-1", *acts[0].ActorID)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(acts[0].Payload, &payload))
	assert.Equal(t, "Leaking faucet", payload["summary"])
	assert.Equal(t, "plumbing", payload["category"])
}

func TestCreateTicket_Rejections(t *testing.T) {
	f := setup(t)
	foreignProperty := dbtest.Property(t, f.db, f.other.ID, "Elsewhere")
	otherUnit := dbtest.Unit(t, f.db, foreignProperty.ID, "1A")
	ctx := context.Background()

	tests := []struct {
		name   string
		caller string
		in     CreateInput
		kind   apperror.Kind
		msg    string
	}{
		{
			name:   "caller from another tenant",
			caller: f.other.ID,
			in:     CreateInput{TenantID: f.tenant.ID, PropertyID: f.property.ID, Summary: "x"},
			kind:   apperror.KindForbidden,
			msg:    "Cannot raise tickets for another tenant",
		},
		{
			name:   "caller without tenant",
			caller: "",
			in:     CreateInput{TenantID: f.tenant.ID, PropertyID: f.property.ID, Summary: "x"},
			kind:   apperror.KindForbidden,
			msg:    "Cannot raise tickets for another tenant",
		},
		{
			name:   "property of another tenant",
			caller: f.tenant.ID,
			in:     CreateInput{TenantID: f.tenant.ID, PropertyID: foreignProperty.ID, Summary: "x"},
			kind:   apperror.KindNotFound,
			msg:    "Property not found for tenant",
		},
		{
			name:   "unit of another property",
			caller: f.tenant.ID,
			in:     CreateInput{TenantID: f.tenant.ID, PropertyID: f.property.ID, UnitID: &otherUnit.ID, Summary: "x"},
			kind:   apperror.KindNotFound,
			msg:    "Unit not found for property",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.store.CreateTicket(ctx, tt.caller, tt.in)
			require.Error(t, err)
			assert.True(t, apperror.Is(err, tt.kind))
			assert.Equal(t, tt.msg, err.Error())
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&model.ServiceTicket{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRequestTransition_WalksTheLifecycle(t *testing.T) {
	f := setup(t)
	ticket := f.createTicket(t)
	ctx := context.Background()

	path := []lifecycle.Status{
		lifecycle.StatusTriaged, lifecycle.StatusQuoted, lifecycle.StatusScheduled,
		lifecycle.StatusInProgress, lifecycle.StatusCompleted, lifecycle.StatusVerified,
		lifecycle.StatusClosed,
	}
	prev := lifecycle.StatusNew
	for i, next := range path {
		res, err := f.store.RequestTransition(ctx, f.tenant.ID, ticket.ID, strPtr("manager"), next, "")
		require.NoError(t, err, "to %s", next)
		assert.Equal(t, prev, res.From)
		assert.Equal(t, string(next), res.Ticket.Status)
		assert.Equal(t, lifecycle.StatusAction(next), res.Activity.Action)
		assert.Len(t, activities(t, f.db, ticket.ID), i+2)
		prev = next
	}

	_, err := f.store.RequestTransition(ctx, f.tenant.ID, ticket.ID, nil, lifecycle.StatusNew, "")
	require.Error(t, err)
	assert.Equal(t, "Cannot transition ticket from CLOSED to NEW", err.Error())
}

func TestRequestTransition_EveryPairFromStoredState(t *testing.T) {
	for _, from := range lifecycle.Statuses {
		for _, to := range lifecycle.Statuses {
			from, to := from, to
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				f := setup(t)
				ticket := f.createTicket(t)
				require.NoError(t, f.db.Model(ticket).Update("status", string(from)).Error)
				before := len(activities(t, f.db, ticket.ID))

				res, err := f.store.RequestTransition(context.Background(), f.tenant.ID, ticket.ID, nil, to, "")

				acts := activities(t, f.db, ticket.ID)
				if !lifecycle.CanTransition(from, to) {
					require.Error(t, err)
					assert.True(t, apperror.Is(err, apperror.KindBadRequest))
					assert.Len(t, acts, before)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, string(to), res.Ticket.Status)
				require.Len(t, acts, before+1)
				assert.Equal(t, lifecycle.StatusAction(to), acts[len(acts)-1].Action)
			})
		}
	}
}

func TestRequestTransition_NoteAndScope(t *testing.T) {
	f := setup(t)
	ticket := f.createTicket(t)
	ctx := context.Background()

	_, err := f.store.RequestTransition(ctx, f.other.ID, ticket.ID, nil, lifecycle.StatusTriaged, "")
	require.Error(t, err)
	assert.Equal(t, "Cannot mutate tickets for another tenant", err.Error())

	_, err = f.store.RequestTransition(ctx, f.tenant.ID, "00000000-0000-0000-0000-000000000000", nil, lifecycle.StatusTriaged, "")
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	res, err := f.store.RequestTransition(ctx, f.tenant.ID, ticket.ID, nil, lifecycle.StatusTriaged, "checked by phone")
	require.NoError(t, err)
	assert.JSONEq(t, `{"note":"checked by phone"}`, string(res.Activity.Payload))

	var stored model.ServiceTicket
	require.NoError(t, f.db.First(&stored, "id = ?", ticket.ID).Error)
	assert.Equal(t, "TRIAGED", stored.Status)
}

func TestAppendActivity_IgnoresStatus(t *testing.T) {
	f := setup(t)
	ticket := f.createTicket(t)
	require.NoError(t, f.db.Model(ticket).Update("status", "CLOSED").Error)

	act, err := f.store.AppendActivity(context.Background(), f.tenant.ID, ticket.ID, strPtr("auditor"), "comment", "")
	require.NoError(t, err)
	assert.Equal(t, "comment", act.Action)
	assert.Nil(t, act.Payload)

	_, err = f.store.AppendActivity(context.Background(), f.other.ID, ticket.ID, nil, "comment", "")
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
}

func TestUpsertSchedule_CreatesThenUpdates(t *testing.T) {
	f := setup(t)
	ticket := f.createTicket(t)
	ctx := context.Background()

	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f.store.now = func() time.Time { return fixed }

	first, err := f.store.UpsertSchedule(ctx, f.tenant.ID, ticket.ID, nil, AssignmentInput{
		ProviderName: "Ace Plumbing",
		ContactEmail: "ace@example.com",
		Payload:      map[string]string{"providerName": "Ace Plumbing", "contactEmail": "ace@example.com"},
	})
	require.NoError(t, err)
	assert.True(t, first.Created)
	require.NotNil(t, first.Schedule.ScheduledFor)
	assert.True(t, fixed.Equal(*first.Schedule.ScheduledFor), "defaults to now")
	assert.Equal(t, "Contact: ace@example.com", *first.Schedule.Notes)

	second, err := f.store.UpsertSchedule(ctx, f.tenant.ID, ticket.ID, nil, AssignmentInput{
		ProviderName: "Best Plumbing",
		Payload:      map[string]string{"providerName": "Best Plumbing"},
	})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Schedule.ID, second.Schedule.ID)
	assert.Equal(t, "Best Plumbing", second.Schedule.ProviderName)
	assert.Equal(t, "Contact: ace@example.com", *second.Schedule.Notes, "notes kept without new contact")
	assert.True(t, fixed.Equal(*second.Schedule.ScheduledFor), "scheduledFor kept when not supplied")

	later := fixed.Add(48 * time.Hour)
	third, err := f.store.UpsertSchedule(ctx, f.tenant.ID, ticket.ID, nil, AssignmentInput{
		ProviderName: "Best Plumbing",
		ScheduledFor: &later,
		Payload:      map[string]string{"providerName": "Best Plumbing"},
	})
	require.NoError(t, err)
	assert.True(t, later.Equal(*third.Schedule.ScheduledFor))

	var schedules []model.TicketSchedule
	require.NoError(t, f.db.Where("ticket_id = ?", ticket.ID).Find(&schedules).Error)
	require.Len(t, schedules, 1)
	assert.Equal(t, "Best Plumbing", schedules[0].ProviderName)

	acts := activities(t, f.db, ticket.ID)
	require.Len(t, acts, 4)
	for _, a := range acts[1:] {
		assert.Equal(t, "assignment:provider", a.Action)
	}
	assert.JSONEq(t, `{"providerName":"Ace Plumbing","contactEmail":"ace@example.com"}`, string(acts[1].Payload))
}

func TestUpsertSchedule_Scope(t *testing.T) {
	f := setup(t)
	ticket := f.createTicket(t)

	_, err := f.store.UpsertSchedule(context.Background(), f.other.ID, ticket.ID, nil, AssignmentInput{ProviderName: "x"})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	var count int64
	require.NoError(t, f.db.Model(&model.TicketSchedule{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGetTicket(t *testing.T) {
	f := setup(t)
	ticket := f.createTicket(t)
	ctx := context.Background()

	_, err := f.store.RequestTransition(ctx, f.tenant.ID, ticket.ID, nil, lifecycle.StatusTriaged, "")
	require.NoError(t, err)
	_, err = f.store.UpsertSchedule(ctx, f.tenant.ID, ticket.ID, nil, AssignmentInput{ProviderName: "Ace"})
	require.NoError(t, err)

	got, err := f.store.GetTicket(ctx, f.tenant.ID, ticket.ID)
	require.NoError(t, err)
	require.Len(t, got.Activities, 3)
	assert.Equal(t, "created", got.Activities[0].Action)
	assert.Equal(t, "status:triaged", got.Activities[1].Action)
	require.NotNil(t, got.Schedule)
	assert.Equal(t, "Ace", got.Schedule.ProviderName)

	_, err = f.store.GetTicket(ctx, f.other.ID, ticket.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
}
