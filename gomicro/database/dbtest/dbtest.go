// Package dbtest opens throwaway sqlite databases carrying the full schema.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nexzo/platform/gomicro/database"
	"github.com/nexzo/platform/gomicro/model"
)

// Open creates a migrated database under t.TempDir()
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=off&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, database.MigrateModels(db, model.All()...))

	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}
