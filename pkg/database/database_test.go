package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Payphone-Digital/content-api/internal/model"
)

func memoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = CloseDB(db) })
	return db
}

func TestMigrateAndSeedAreIdempotent(t *testing.T) {
	ctx := context.Background()
	db := memoryDB(t)

	require.NoError(t, AutoMigrate(ctx, db))
	require.NoError(t, AutoMigrate(ctx, db))

	first, err := Seed(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Blogs: 2, Posts: 4, Products: 3}, first)

	second, err := Seed(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{}, second)

	var posts int64
	require.NoError(t, db.Model(&model.Post{}).Where("blog_id IS NOT NULL").Count(&posts).Error)
	assert.Equal(t, int64(4), posts)

	var pen model.Product
	require.NoError(t, db.Where("sku = ?", "OFF-PEN-F01").First(&pen).Error)
	assert.JSONEq(t, `{"nib":"F","ink":"blue"}`, string(pen.Attributes))
}

func TestPingAndClose(t *testing.T) {
	db := memoryDB(t)
	require.NoError(t, Ping(context.Background(), db))
	assert.NoError(t, CloseDB(nil))
}

func TestGormLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), gormlogger.Warn)
	l.slow = 10 * time.Millisecond
	ctx := context.Background()
	stmt := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(ctx, time.Now(), stmt, nil)
	assert.Equal(t, 0, logs.Len(), "fast queries are quiet at warn")

	l.Trace(ctx, time.Now(), stmt, gorm.ErrRecordNotFound)
	assert.Equal(t, 0, logs.Len(), "missing rows are not errors")

	l.Trace(ctx, time.Now(), stmt, errors.New("syntax error"))
	l.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "Query failed", logs.All()[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[0].Level)
	assert.Equal(t, "Slow query", logs.All()[1].Message)
	assert.Equal(t, "SELECT 1", logs.All()[1].ContextMap()["sql"])

	l.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), stmt, errors.New("boom"))
	assert.Equal(t, 2, logs.Len())

	l.LogMode(gormlogger.Info).Trace(ctx, time.Now(), stmt, nil)
	assert.Equal(t, 3, logs.Len())
}
