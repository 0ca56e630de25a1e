package repository

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Payphone-Digital/content-api/internal/listquery"
	"github.com/Payphone-Digital/content-api/pkg/logger"
)

// Executor runs compiled list statements through gorm. gorm rewrites the ?
// placeholders for the active dialect.
type Executor struct {
	db    *gorm.DB
	table string
}

func NewExecutor(db *gorm.DB, table string) *Executor {
	return &Executor{db: db, table: table}
}

func (e *Executor) Query(ctx context.Context, stmt listquery.Statement) ([]map[string]any, error) {
	start := time.Now()
	rows := make([]map[string]any, 0)
	err := e.db.WithContext(ctx).Raw(stmt.SQL, stmt.Args...).Scan(&rows).Error
	logger.LogDatabase("list", e.table, time.Since(start).Milliseconds(),
		zap.Int("rows", len(rows)),
		zap.Bool("failed", err != nil),
	)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (e *Executor) Count(ctx context.Context, stmt listquery.Statement) (int64, error) {
	start := time.Now()
	var total int64
	err := e.db.WithContext(ctx).Raw(stmt.SQL, stmt.Args...).Scan(&total).Error
	logger.LogDatabase("count", e.table, time.Since(start).Milliseconds(),
		zap.Int64("total", total),
		zap.Bool("failed", err != nil),
	)
	return total, err
}

func newBuilder(db *gorm.DB, cfg listquery.Config) (*listquery.Builder, error) {
	return listquery.NewBuilder(cfg, NewExecutor(db, cfg.Table))
}
