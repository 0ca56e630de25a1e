package listquery

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Executor runs compiled statements against a datastore
type Executor interface {
	Query(ctx context.Context, stmt Statement) ([]map[string]any, error)
	Count(ctx context.Context, stmt Statement) (int64, error)
}

// Builder answers list requests for one endpoint. It is immutable and safe
// for concurrent use.
type Builder struct {
	schema *Schema
	exec   Executor
}

func NewBuilder(cfg Config, exec Executor) (*Builder, error) {
	schema, err := NewSchema(cfg)
	if err != nil {
		return nil, err
	}
	if exec == nil {
		return nil, fmt.Errorf("listquery: %s builder needs an executor", cfg.Table)
	}
	return &Builder{schema: schema, exec: exec}, nil
}

func (b *Builder) Schema() *Schema {
	return b.schema
}

// List fetches one page and the total match count concurrently. Datastore
// errors are returned unchanged.
func (b *Builder) List(ctx context.Context, d Descriptor) (*Envelope, error) {
	plan := b.schema.Plan(d)
	stmts, err := Compile(plan)
	if err != nil {
		return nil, err
	}

	var (
		raw   []map[string]any
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := b.exec.Query(gctx, stmts.Fetch)
		raw = rows
		return err
	})
	g.Go(func() error {
		n, err := b.exec.Count(gctx, stmts.Count)
		total = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Envelope{
		Data: shapeRows(plan, raw),
		Meta: Meta{Page: plan.Page, Limit: plan.PageSize, Total: total},
	}, nil
}

// ListAfter fetches the page of rows following q.Cursor in primary key order
func (b *Builder) ListAfter(ctx context.Context, q CursorQuery) (*CursorEnvelope, error) {
	plan := b.schema.CursorPlan(q)
	stmts, err := Compile(plan)
	if err != nil {
		return nil, err
	}

	raw, err := b.exec.Query(ctx, stmts.Fetch)
	if err != nil {
		return nil, err
	}

	hasNext := len(raw) > plan.PageSize
	if hasNext {
		raw = raw[:plan.PageSize]
	}
	rows := shapeRows(plan, raw)

	meta := CursorMeta{
		Limit:           plan.PageSize,
		HasNextPage:     hasNext,
		HasPreviousPage: q.Cursor != "",
	}
	if hasNext && len(rows) > 0 {
		meta.NextCursor = fmt.Sprint(rows[len(rows)-1][b.schema.pk.Name])
	}
	return &CursorEnvelope{Data: rows, Meta: meta}, nil
}
