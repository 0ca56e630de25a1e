package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Payphone-Digital/content-api/internal/model"
)

// AutoMigrate creates or updates the content tables and, on PostgreSQL,
// the list indexes that gorm tags cannot express.
func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return CreateListIndexes(ctx, db)
}
