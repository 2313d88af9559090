package mysql

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// newTestDB 每个测试一个独立的内存 sqlite 库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := sqlitePrefix + "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := Open(dsn, Options{MaxOpenConns: 1, LogLevel: gormLogger.Silent})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
