package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/nexzo/platform/gomicro/apperror"
)

func TestNotFound(t *testing.T) {
	err := NotFound(fmt.Errorf("loading: %w", gorm.ErrRecordNotFound), "Ticket not found")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.Equal(t, "Ticket not found", err.Error())

	other := errors.New("connection reset")
	assert.Same(t, other, NotFound(other, "Ticket not found"))
}

func TestConflict(t *testing.T) {
	err := Conflict(gorm.ErrDuplicatedKey, "A user with that email already exists for this tenant")
	assert.True(t, apperror.Is(err, apperror.KindConflict))
	assert.True(t, IsDuplicate(gorm.ErrDuplicatedKey))
	assert.False(t, IsDuplicate(gorm.ErrRecordNotFound))
	assert.Nil(t, Conflict(nil, "unused"))
}

func TestMigrateModels_NilDB(t *testing.T) {
	assert.EqualError(t, MigrateModels(nil), "database is not initialized")
}
