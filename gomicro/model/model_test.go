package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nexzo/platform/gomicro/database"
	"github.com/nexzo/platform/gomicro/database/dbtest"
	"github.com/nexzo/platform/gomicro/model"
)

func TestParseUserRole(t *testing.T) {
	role, err := model.ParseUserRole("property_manager")
	require.NoError(t, err)
	assert.Equal(t, model.RolePropertyManager, role)

	_, err = model.ParseUserRole("superuser")
	assert.EqualError(t, err, "unsupported user role: superuser")
}

func TestInvitationExpired(t *testing.T) {
	now := time.Now()
	inv := model.Invitation{ExpiresAt: now.Add(-time.Second)}
	assert.True(t, inv.Expired(now))
	inv.ExpiresAt = now.Add(time.Hour)
	assert.False(t, inv.Expired(now))
}

func TestBaseAssignsID(t *testing.T) {
	db := dbtest.Open(t)
	tenant := dbtest.Tenant(t, db, "Acme", "")
	assert.Len(t, tenant.ID, 36)

	var loaded model.Tenant
	require.NoError(t, db.First(&loaded, "id = ?", tenant.ID).Error)
	assert.Equal(t, model.StatusActive, loaded.Status)
	assert.Nil(t, loaded.Region)
}

func TestUserEmailUniquePerTenant(t *testing.T) {
	db := dbtest.Open(t)
	a := dbtest.Tenant(t, db, "A", "")
	b := dbtest.Tenant(t, db, "B", "")

	dbtest.User(t, db, a.ID, "x@example.com", model.RoleTenant)
	dbtest.User(t, db, b.ID, "x@example.com", model.RoleTenant)

	err := db.Create(&model.User{TenantID: a.ID, Email: "x@example.com", Role: model.RoleTenant}).Error
	assert.True(t, database.IsDuplicate(err))
}

func TestTicketActivityIsAppendOnly(t *testing.T) {
	db := dbtest.Open(t)
	activity := &model.TicketActivity{TicketID: "t-1", Action: "created"}
	require.NoError(t, db.Create(activity).Error)

	err := db.Model(activity).Update("action", "rewritten").Error
	assert.ErrorIs(t, err, model.ErrActivityImmutable)

	err = db.Delete(activity).Error
	assert.ErrorIs(t, err, model.ErrActivityImmutable)

	var count int64
	require.NoError(t, db.Model(&model.TicketActivity{}).Where("action = ?", "created").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestPendingInvitationUniquePerEmail(t *testing.T) {
	db := dbtest.Open(t)
	tenant := dbtest.Tenant(t, db, "A", "")

	create := func(token string, status model.InvitationStatus) error {
		return db.Session(&gorm.Session{}).Create(&model.Invitation{
			TenantID: tenant.ID, Email: "new@example.com", Role: model.RoleTenant,
			Token: token, Status: status, ExpiresAt: time.Now().Add(time.Hour),
		}).Error
	}

	require.NoError(t, create("tok-1", model.InvitationRevoked))
	require.NoError(t, create("tok-2", model.InvitationPending))
	assert.True(t, database.IsDuplicate(create("tok-3", model.InvitationPending)))
}
