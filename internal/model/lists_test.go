package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Payphone-Digital/content-api/internal/listquery"
)

func TestListConfigsAreValid(t *testing.T) {
	for _, cfg := range []listquery.Config{BlogList(10, 100), PostList(10, 100), ProductList(10, 100)} {
		t.Run(cfg.Table, func(t *testing.T) {
			_, err := listquery.NewSchema(cfg)
			require.NoError(t, err)
		})
	}
}

func TestBlogIDIsAlwaysReturned(t *testing.T) {
	s, err := listquery.NewSchema(BlogList(10, 100))
	require.NoError(t, err)

	stmts, err := listquery.Compile(s.Plan(listquery.Descriptor{Select: []string{"name"}}))
	require.NoError(t, err)
	assert.Equal(t, `SELECT blogs.id AS "id", blogs.name AS "name" FROM blogs LIMIT 10 OFFSET 0`, stmts.Fetch.SQL)
}

func TestTimestampsAreNotShared(t *testing.T) {
	posts := PostList(10, 100)
	blogs := BlogList(10, 100)
	posts.Fields[len(posts.Fields)-1].Column = "changed"
	assert.Equal(t, "updated_at", blogs.Fields[len(blogs.Fields)-1].Column)
}
