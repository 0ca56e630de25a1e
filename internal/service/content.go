package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "github.com/Payphone-Digital/content-api/internal/errors"
	"github.com/Payphone-Digital/content-api/internal/repository"
	ctxutil "github.com/Payphone-Digital/content-api/pkg/context"
	"github.com/Payphone-Digital/content-api/pkg/logger"
)

func serviceScope(ctx context.Context, function string) context.Context {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, function)
	return context.WithValue(ctx, ctxutil.ModuleKey, "service")
}

// storeError translates repository errors into domain errors
func storeError(err error, notFound *apperrors.DomainError) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case repository.IsUniqueViolation(err):
		return apperrors.WrapError(apperrors.ErrConflict, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperrors.WrapError(apperrors.ErrServiceUnavailable, err)
	default:
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
}

// invalidate drops cached list pages after a write. Failures only leave
// stale pages until their TTL, so they are logged and swallowed.
func invalidate(ctx context.Context, lists *ListCache, tables ...string) {
	for _, table := range tables {
		if _, err := lists.Invalidate(ctx, table); err != nil {
			logger.WarnWithContext(ctx, "Failed to invalidate list cache").
				String("table", table).
				Err(err).
				Log()
		}
	}
}
