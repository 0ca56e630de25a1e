package listquery

import (
	"math"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, s *Schema, d Descriptor) Statements {
	t.Helper()
	stmts, err := Compile(s.Plan(d))
	require.NoError(t, err)
	return stmts
}

func TestCompileFullDescriptor(t *testing.T) {
	s := postsSchema(t)

	stmts := compile(t, s, Descriptor{
		Page:    2,
		Limit:   5,
		Select:  []string{"title"},
		Sort:    []SortTerm{{Field: "createdAt", Order: Desc}},
		Filter:  map[string]OperatorSet{"published": {OpEq: true}},
		Include: map[string][]string{"blog": {"name"}},
	})

	assert.Equal(t,
		`SELECT posts.title AS "title", blog.id AS "_blog", blog.name AS "blog__name" FROM posts `+
			`LEFT JOIN blogs AS blog ON blog.id = posts.blog_id WHERE posts.published = ? `+
			`ORDER BY posts.created_at DESC LIMIT 5 OFFSET 5`,
		stmts.Fetch.SQL)
	assert.Equal(t, []any{true}, stmts.Fetch.Args)

	assert.Equal(t, `SELECT COUNT(*) FROM posts WHERE posts.published = ?`, stmts.Count.SQL)
	assert.Equal(t, []any{true}, stmts.Count.Args)
}

func TestPlanOffsetSaturates(t *testing.T) {
	s := postsSchema(t)

	assert.Equal(t, uint64(0), s.Plan(Descriptor{Page: 1, Limit: 4}).Offset)
	assert.Equal(t, uint64(8), s.Plan(Descriptor{Page: 3, Limit: 4}).Offset)

	huge := s.Plan(Descriptor{Page: 4611686018427387905, Limit: 4})
	assert.Equal(t, uint64(math.MaxInt64), huge.Offset)
	assert.Equal(t, 4611686018427387905, huge.Page)
}

func TestCompileEmptyDescriptorSelectsEverything(t *testing.T) {
	stmts := compile(t, postsSchema(t), Descriptor{})

	assert.Equal(t,
		`SELECT posts.id AS "id", posts.title AS "title", posts.content AS "content", `+
			`posts.blog_id AS "blogId", posts.published AS "published", posts.created_at AS "createdAt", `+
			`posts.updated_at AS "updatedAt" FROM posts LIMIT 10 OFFSET 0`,
		stmts.Fetch.SQL)
	assert.Empty(t, stmts.Fetch.Args)
	assert.Equal(t, `SELECT COUNT(*) FROM posts`, stmts.Count.SQL)
}

func TestCompileRequiredFieldsSurviveSelect(t *testing.T) {
	cfg := postsConfig()
	cfg.Selectable = []string{"title", "content"}
	s, err := NewSchema(cfg)
	require.NoError(t, err)

	stmts := compile(t, s, Descriptor{Select: []string{"content"}})
	assert.Contains(t, stmts.Fetch.SQL, `posts.id AS "id"`)
	assert.Contains(t, stmts.Fetch.SQL, `posts.content AS "content"`)
	assert.NotContains(t, stmts.Fetch.SQL, `posts.title AS "title"`)
	assert.Contains(t, stmts.Fetch.SQL, `posts.published AS "published"`)
}

func TestCompilePredicateOrderIsCanonical(t *testing.T) {
	s := postsSchema(t)
	d := Descriptor{Filter: map[string]OperatorSet{
		"published": {OpNe: false},
		"title":     {OpLike: "%go%", OpEq: "x"},
	}}

	first := compile(t, s, d)
	for i := 0; i < 20; i++ {
		again := compile(t, s, d)
		require.Equal(t, first, again)
	}
	assert.Equal(t,
		`SELECT COUNT(*) FROM posts WHERE (posts.title = ? AND posts.title LIKE ? AND posts.published <> ?)`,
		first.Count.SQL)
	assert.Equal(t, []any{"x", "%go%", false}, first.Count.Args)
}

func TestCompileOperators(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter map[string]OperatorSet
		where  string
		args   []any
	}{
		{
			name:   "range",
			filter: map[string]OperatorSet{"createdAt": {OpLt: to, OpGte: from}},
			where:  `(posts.created_at >= ? AND posts.created_at < ?)`,
			args:   []any{from, to},
		},
		{
			name:   "gt lte",
			filter: map[string]OperatorSet{"updatedAt": {OpGt: from, OpLte: to}},
			where:  `(posts.updated_at > ? AND posts.updated_at <= ?)`,
			args:   []any{from, to},
		},
		{
			name:   "in",
			filter: map[string]OperatorSet{"blogId": {OpIn: []any{"a", "b"}}},
			where:  `posts.blog_id IN (?,?)`,
			args:   []any{"a", "b"},
		},
		{
			name:   "nin typed slice",
			filter: map[string]OperatorSet{"blogId": {OpNin: []string{"a"}}},
			where:  `posts.blog_id NOT IN (?)`,
			args:   []any{"a"},
		},
		{
			name:   "empty in matches nothing, empty nin matches everything",
			filter: map[string]OperatorSet{"blogId": {OpIn: []any{}, OpNin: []any{}}},
			where:  `((1=0) AND (1=1))`,
		},
		{
			name:   "null",
			filter: map[string]OperatorSet{"blogId": {OpEq: nil}},
			where:  `posts.blog_id IS NULL`,
		},
		{
			name:   "not null",
			filter: map[string]OperatorSet{"blogId": {OpNe: nil}},
			where:  `posts.blog_id IS NOT NULL`,
		},
		{
			name:   "ilike",
			filter: map[string]OperatorSet{"title": {OpILike: "%Go%"}},
			where:  `posts.title ILIKE ?`,
			args:   []any{"%Go%"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts := compile(t, postsSchema(t), Descriptor{Filter: tt.filter})
			assert.Equal(t, "SELECT COUNT(*) FROM posts WHERE "+tt.where, stmts.Count.SQL)
			if tt.args == nil {
				assert.Empty(t, stmts.Count.Args)
			} else {
				assert.Equal(t, tt.args, stmts.Count.Args)
			}
		})
	}
}

func TestCompileDropsWhatTheSchemaDisallows(t *testing.T) {
	s := postsSchema(t)

	stmts := compile(t, s, Descriptor{
		Page:    0,
		Limit:   1000,
		Select:  []string{"title", "secret"},
		Sort:    []SortTerm{{Field: "content", Order: Asc}, {Field: "secret", Order: Desc}},
		Filter:  map[string]OperatorSet{"content": {OpEq: "x"}, "secret": {OpEq: 1}, "title": {OpIn: "not a list", OpLike: 5}},
		Include: map[string][]string{"author": {"name"}, "blog": {"nope"}},
	})

	assert.Equal(t, `SELECT posts.title AS "title" FROM posts LIMIT 100 OFFSET 0`, stmts.Fetch.SQL)
	assert.Equal(t, `SELECT COUNT(*) FROM posts`, stmts.Count.SQL)
}

func TestCompileSortResolution(t *testing.T) {
	stmts := compile(t, postsSchema(t), Descriptor{Sort: []SortTerm{
		{Field: "title", Order: Asc, Index: 1},
		{Field: "createdAt", Order: Desc, Index: 0},
		{Field: "title", Order: Desc, Index: 2},
	}})

	assert.Contains(t, stmts.Fetch.SQL, `ORDER BY posts.created_at DESC, posts.title ASC LIMIT`)
}

func TestCompileLogicalFilter(t *testing.T) {
	d := Descriptor{
		Filter: map[string]OperatorSet{"published": {OpEq: true}},
		Logical: &Condition{
			Or: []*Condition{
				{Fields: map[string]OperatorSet{"title": {OpILike: "%go%"}}},
				{Fields: map[string]OperatorSet{"title": {OpILike: "%rust%"}}},
			},
			Not: &Condition{Fields: map[string]OperatorSet{"blogId": {OpEq: nil}}},
		},
	}

	stmts := compile(t, logicalSchema(t), d)
	assert.Equal(t,
		`SELECT COUNT(*) FROM posts WHERE (posts.published = ? AND `+
			`((posts.title ILIKE ? OR posts.title ILIKE ?) AND NOT (posts.blog_id IS NULL)))`,
		stmts.Count.SQL)
	assert.Equal(t, []any{true, "%go%", "%rust%"}, stmts.Count.Args)

	// ignored unless the endpoint opts in
	plain := compile(t, postsSchema(t), d)
	assert.Equal(t, `SELECT COUNT(*) FROM posts WHERE posts.published = ?`, plain.Count.SQL)
}

func TestCompileNestedAnd(t *testing.T) {
	d := Descriptor{Logical: &Condition{
		And: []*Condition{
			{Fields: map[string]OperatorSet{"published": {OpEq: true}}},
			{Or: []*Condition{
				{Fields: map[string]OperatorSet{"title": {OpEq: "a"}}},
				{Fields: map[string]OperatorSet{"title": {OpEq: "b"}}},
			}},
		},
	}}

	stmts := compile(t, logicalSchema(t), d)
	assert.Equal(t,
		`SELECT COUNT(*) FROM posts WHERE (posts.published = ? AND (posts.title = ? OR posts.title = ?))`,
		stmts.Count.SQL)
}

func TestCompileWithDollarPlaceholders(t *testing.T) {
	s := postsSchema(t)
	stmts, err := CompileWith(s.Plan(Descriptor{
		Filter: map[string]OperatorSet{"published": {OpEq: true}, "title": {OpLike: "a%"}},
	}), sq.Dollar)
	require.NoError(t, err)

	assert.Equal(t, `SELECT COUNT(*) FROM posts WHERE (posts.title LIKE $1 AND posts.published = $2)`, stmts.Count.SQL)
}

func TestCursorPlan(t *testing.T) {
	s := postsSchema(t)

	stmts, err := Compile(s.CursorPlan(CursorQuery{
		Descriptor: Descriptor{Limit: 2, Select: []string{"title"}},
		Cursor:     "6f1c0e2a-5b8e-4c1e-9a0e-2f7d8c9b0a11",
		Order:      Desc,
	}))
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT posts.id AS "id", posts.title AS "title" FROM posts WHERE posts.id < ? ORDER BY posts.id DESC LIMIT 3 OFFSET 0`,
		stmts.Fetch.SQL)
	assert.Equal(t, []any{"6f1c0e2a-5b8e-4c1e-9a0e-2f7d8c9b0a11"}, stmts.Fetch.Args)
}
