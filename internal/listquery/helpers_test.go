package listquery

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func postsConfig() Config {
	return Config{
		Table: "posts",
		Fields: []Field{
			{Name: "id", Column: "id", Type: TypeUUID},
			{Name: "title", Column: "title", Type: TypeString},
			{Name: "content", Column: "content", Type: TypeString},
			{Name: "blogId", Column: "blog_id", Type: TypeUUID},
			{Name: "published", Column: "published", Type: TypeBool},
			{Name: "createdAt", Column: "created_at", Type: TypeTime},
			{Name: "updatedAt", Column: "updated_at", Type: TypeTime},
		},
		Selectable: []string{"id", "title", "content", "blogId", "published", "createdAt", "updatedAt"},
		Sortable:   []string{"title", "createdAt", "updatedAt"},
		Filterable: []string{"published", "blogId", "createdAt", "updatedAt", "title"},
		Relations: []Relation{{
			Name:       "blog",
			Table:      "blogs",
			LocalKey:   "blog_id",
			ForeignKey: "id",
			Fields: []Field{
				{Name: "id", Column: "id", Type: TypeUUID},
				{Name: "name", Column: "name", Type: TypeString},
				{Name: "createdAt", Column: "created_at", Type: TypeTime},
				{Name: "updatedAt", Column: "updated_at", Type: TypeTime},
			},
		}},
	}
}

func postsSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := NewSchema(postsConfig())
	require.NoError(t, err)
	return s
}

func logicalSchema(t *testing.T) *Schema {
	t.Helper()
	cfg := postsConfig()
	cfg.Logical = true
	s, err := NewSchema(cfg)
	require.NoError(t, err)
	return s
}

// fakeExecutor records statements and serves canned results
type fakeExecutor struct {
	mu       sync.Mutex
	rows     []map[string]any
	total    int64
	queryErr error
	countErr error
	queries  []Statement
	counts   []Statement
}

func (f *fakeExecutor) Query(_ context.Context, stmt Statement) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, stmt)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.rows, nil
}

func (f *fakeExecutor) Count(_ context.Context, stmt Statement) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts = append(f.counts, stmt)
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.total, nil
}
