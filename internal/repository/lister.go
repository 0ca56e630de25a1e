package repository

import (
	"context"
	"time"

	"github.com/Payphone-Digital/content-api/internal/listquery"
	ctxutil "github.com/Payphone-Digital/content-api/pkg/context"
	"github.com/Payphone-Digital/content-api/pkg/logger"
)

// lister serves the paged list endpoints of one table
type lister struct {
	builder *listquery.Builder
}

// Builder exposes the list builder so middleware can validate against its schema
func (l lister) Builder() *listquery.Builder {
	return l.builder
}

func (l lister) List(ctx context.Context, d listquery.Descriptor) (*listquery.Envelope, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "List")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")
	table := l.builder.Schema().Table()

	start := time.Now()
	env, err := l.builder.List(ctx, d)
	duration := time.Since(start)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to list records").
			String("table", table).
			Int("page", d.Page).
			Int("limit", d.Limit).
			Duration(duration).
			Err(err).
			Log()
		return nil, err
	}

	logger.DebugWithContext(ctx, "Records listed").
		String("table", table).
		Int("page", env.Meta.Page).
		Int("limit", env.Meta.Limit).
		Int64("total", env.Meta.Total).
		Int("returned_count", len(env.Data)).
		Duration(duration).
		Log()
	return env, nil
}

func (l lister) ListAfter(ctx context.Context, q listquery.CursorQuery) (*listquery.CursorEnvelope, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "ListAfter")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")
	table := l.builder.Schema().Table()

	start := time.Now()
	env, err := l.builder.ListAfter(ctx, q)
	duration := time.Since(start)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to list records after cursor").
			String("table", table).
			String("cursor", q.Cursor).
			Duration(duration).
			Err(err).
			Log()
		return nil, err
	}

	logger.DebugWithContext(ctx, "Records listed after cursor").
		String("table", table).
		String("cursor", q.Cursor).
		Bool("has_next_page", env.Meta.HasNextPage).
		Int("returned_count", len(env.Data)).
		Duration(duration).
		Log()
	return env, nil
}
