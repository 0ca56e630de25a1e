package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	ctxutil "github.com/Payphone-Digital/content-api/pkg/context"
	"github.com/Payphone-Digital/content-api/pkg/logger"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err came from a unique constraint
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// store is the CRUD shared by the content repositories. Missing rows are
// reported as gorm.ErrRecordNotFound.
type store[T any] struct {
	db     *gorm.DB
	entity string
}

func (s *store[T]) scope(ctx context.Context, function string) context.Context {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, function)
	return context.WithValue(ctx, ctxutil.ModuleKey, "repository")
}

func (s *store[T]) GetByID(ctx context.Context, id uuid.UUID) (*T, error) {
	ctx = s.scope(ctx, "GetByID")

	if err := ctx.Err(); err != nil {
		logger.WarnWithContext(ctx, "Context cancelled before query").
			String("entity", s.entity).
			Err(err).
			Log()
		return nil, err
	}

	start := time.Now()
	var row T
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	duration := time.Since(start)

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.DebugWithContext(ctx, "Record not found").
				String("entity", s.entity).
				String("id", id.String()).
				Duration(duration).
				Log()
		} else {
			logger.ErrorWithContext(ctx, "Failed to get record by ID").
				String("entity", s.entity).
				String("id", id.String()).
				Duration(duration).
				Err(err).
				Log()
		}
		return nil, err
	}

	logger.DebugWithContext(ctx, "Record retrieved successfully").
		String("entity", s.entity).
		String("id", id.String()).
		Duration(duration).
		Log()
	return &row, nil
}

func (s *store[T]) Create(ctx context.Context, row *T) error {
	ctx = s.scope(ctx, "Create")

	start := time.Now()
	err := s.db.WithContext(ctx).Create(row).Error
	duration := time.Since(start)

	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to create record").
			String("entity", s.entity).
			Bool("unique_violation", IsUniqueViolation(err)).
			Duration(duration).
			Err(err).
			Log()
		return err
	}

	logger.InfoWithContext(ctx, "Record created successfully").
		String("entity", s.entity).
		Duration(duration).
		Log()
	return nil
}

// Update writes the given columns and returns the stored row
func (s *store[T]) Update(ctx context.Context, id uuid.UUID, columns map[string]any) (*T, error) {
	ctx = s.scope(ctx, "Update")

	start := time.Now()
	var updated *T
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(columns) > 0 {
			result := tx.Model(new(T)).Where("id = ?", id).Updates(columns)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		var row T
		if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
			return err
		}
		updated = &row
		return nil
	})
	duration := time.Since(start)

	if err != nil {
		logger.WarnWithContext(ctx, "Failed to update record").
			String("entity", s.entity).
			String("id", id.String()).
			Int("columns", len(columns)).
			Duration(duration).
			Err(err).
			Log()
		return nil, err
	}

	logger.InfoWithContext(ctx, "Record updated successfully").
		String("entity", s.entity).
		String("id", id.String()).
		Int("columns", len(columns)).
		Duration(duration).
		Log()
	return updated, nil
}

func (s *store[T]) Delete(ctx context.Context, id uuid.UUID) error {
	ctx = s.scope(ctx, "Delete")

	start := time.Now()
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to delete record").
			String("entity", s.entity).
			String("id", id.String()).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}
	if result.RowsAffected == 0 {
		logger.WarnWithContext(ctx, "No record found to delete").
			String("entity", s.entity).
			String("id", id.String()).
			Log()
		return gorm.ErrRecordNotFound
	}

	logger.InfoWithContext(ctx, "Record deleted successfully").
		String("entity", s.entity).
		String("id", id.String()).
		Duration(duration).
		Log()
	return nil
}
