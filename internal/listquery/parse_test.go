package listquery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Payphone-Digital/content-api/internal/errors"
	"github.com/Payphone-Digital/content-api/pkg/querystring"
)

func parse(t *testing.T, s *Schema, raw string) (Descriptor, error) {
	t.Helper()
	tree, err := querystring.Parse(raw)
	require.NoError(t, err)
	return ParseQuery(tree, s)
}

func issuePaths(t *testing.T, err error) []string {
	t.Helper()
	verr := apperrors.GetValidationError(err)
	require.NotNil(t, verr, "expected a validation error, got %v", err)
	assert.Equal(t, "query", verr.On)
	paths := make([]string, len(verr.Issues))
	for i, issue := range verr.Issues {
		paths[i] = issue.Path
	}
	return paths
}

func TestParseQueryDefaults(t *testing.T) {
	d, err := parse(t, postsSchema(t), "")
	require.NoError(t, err)
	assert.Equal(t, Descriptor{Page: 1, Limit: 10}, d)
}

func TestParseQueryFull(t *testing.T) {
	raw := "page=2&limit=25" +
		"&select=title,published&select=blogId" +
		"&sort[updatedAt][order]=desc&sort[updatedAt][index]=1&sort[title]=asc" +
		"&filter[published][eq]=true&filter[title][like]=%25go%25" +
		"&filter[blogId][in]=6F1C0E2A-5B8E-4C1E-9A0E-2F7D8C9B0A11,0b7c5a4e-8f61-4c3a-9d3b-1e2f3a4b5c6d" +
		"&filter[createdAt][gte]=2024-01-01" +
		"&include[blog][]=id&include[blog][]=name"

	d, err := parse(t, postsSchema(t), raw)
	require.NoError(t, err)

	assert.Equal(t, 2, d.Page)
	assert.Equal(t, 25, d.Limit)
	assert.Equal(t, []string{"title", "published", "blogId"}, d.Select)
	assert.Equal(t, []SortTerm{
		{Field: "updatedAt", Order: Desc, Index: 1},
		{Field: "title", Order: Asc, Index: 0},
	}, d.Sort)
	assert.Equal(t, map[string]OperatorSet{
		"published": {OpEq: true},
		"title":     {OpLike: "%go%"},
		"blogId":    {OpIn: []any{"6f1c0e2a-5b8e-4c1e-9a0e-2f7d8c9b0a11", "0b7c5a4e-8f61-4c3a-9d3b-1e2f3a4b5c6d"}},
		"createdAt": {OpGte: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}, d.Filter)
	assert.Nil(t, d.Logical)
	assert.Equal(t, map[string][]string{"blog": {"id", "name"}}, d.Include)
}

func TestParseQueryShorthandsAndNull(t *testing.T) {
	d, err := parse(t, postsSchema(t), "filter[published]=false&filter[blogId][ne]=null")
	require.NoError(t, err)
	assert.Equal(t, map[string]OperatorSet{
		"published": {OpEq: false},
		"blogId":    {OpNe: nil},
	}, d.Filter)
}

func TestParseQueryRejects(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		paths []string
	}{
		{"unknown key", "offset=3", []string{"offset"}},
		{"page zero", "page=0", []string{"page"}},
		{"page not a number", "page=two", []string{"page"}},
		{"page above max", "page=4611686018427387905", []string{"page"}},
		{"limit above max", "limit=101", []string{"limit"}},
		{"limit list", "limit=1&limit=2", []string{"limit"}},
		{"unknown select", "select=title,secret", []string{"select[1]"}},
		{"duplicate select", "select=title,title", []string{"select"}},
		{"unsortable", "sort[content][order]=asc", []string{"sort.content"}},
		{"bad order", "sort[title][order]=up", []string{"sort.title.order"}},
		{"bad index", "sort[title][index]=first", []string{"sort.title.index"}},
		{"unknown sort option", "sort[title][nulls]=last", []string{"sort.title.nulls"}},
		{"unfilterable", "filter[content][eq]=x", []string{"filter.content"}},
		{"unknown operator", "filter[title][contains]=x", []string{"filter.title.contains"}},
		{"bad bool", "filter[published][eq]=maybe", []string{"filter.published.eq"}},
		{"bad uuid", "filter[blogId][in]=abc,6f1c0e2a-5b8e-4c1e-9a0e-2f7d8c9b0a11", []string{"filter.blogId.in[0]"}},
		{"bad date", "filter[createdAt][lt]=yesterday", []string{"filter.createdAt.lt"}},
		{"like on non-text", "filter[published][like]=t%25", []string{"filter.published.like"}},
		{"logical keys need opt-in", "filter[or][0][title]=x", []string{"filter.or"}},
		{"unknown relation", "include[author][]=name", []string{"include.author"}},
		{"unknown relation field", "include[blog][]=secret", []string{"include.blog[0]"}},
		{"duplicate relation field", "include[blog]=name,name", []string{"include.blog"}},
		{"several at once", "page=0&limit=0&select=nope", []string{"page", "limit", "select[0]"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, postsSchema(t), tt.raw)
			require.Error(t, err)
			assert.Equal(t, tt.paths, issuePaths(t, err))
		})
	}
}

func TestParseQueryIssueCarriesMessageAndValue(t *testing.T) {
	_, err := parse(t, postsSchema(t), "sort[secret][order]=asc")
	verr := apperrors.GetValidationError(err)
	require.NotNil(t, verr)
	require.Len(t, verr.Issues, 1)
	assert.Equal(t, "sort.secret must be one of [title, createdAt, updatedAt]", verr.Issues[0].Message)
	assert.Equal(t, "secret", verr.Issues[0].Value)
	assert.Equal(t, map[string]any{"sort": map[string]any{"secret": map[string]any{"order": "asc"}}}, verr.Found)
}

func TestParseQueryLogical(t *testing.T) {
	raw := "filter[published]=true" +
		"&filter[or][0][title][ilike]=%25go%25&filter[or][1][title][ilike]=%25rust%25" +
		"&filter[not][blogId]=null"

	d, err := parse(t, logicalSchema(t), raw)
	require.NoError(t, err)

	assert.Equal(t, map[string]OperatorSet{"published": {OpEq: true}}, d.Filter)
	assert.Equal(t, &Condition{
		Or: []*Condition{
			{Fields: map[string]OperatorSet{"title": {OpILike: "%go%"}}},
			{Fields: map[string]OperatorSet{"title": {OpILike: "%rust%"}}},
		},
		Not: &Condition{Fields: map[string]OperatorSet{"blogId": {OpEq: nil}}},
	}, d.Logical)
}

func TestParseQueryLogicalRejects(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		paths []string
	}{
		{"or needs a list", "filter[or]=x", []string{"filter.or"}},
		{"empty condition", "filter[not]=", []string{"filter.not"}},
		{"unknown field inside", "filter[and][0][secret]=1", []string{"filter.and[0].secret"}},
		{"bad value inside", "filter[or][0][not][published]=perhaps", []string{"filter.or[0].not.published"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, logicalSchema(t), tt.raw)
			require.Error(t, err)
			assert.Equal(t, tt.paths, issuePaths(t, err))
		})
	}
}

func TestParseCursorQuery(t *testing.T) {
	s := postsSchema(t)

	tree, err := querystring.Parse("cursor=6F1C0E2A-5B8E-4C1E-9A0E-2F7D8C9B0A11&order=desc&limit=3&select=title")
	require.NoError(t, err)
	q, err := ParseCursorQuery(tree, s)
	require.NoError(t, err)
	assert.Equal(t, CursorQuery{
		Descriptor: Descriptor{Limit: 3, Select: []string{"title"}},
		Cursor:     "6f1c0e2a-5b8e-4c1e-9a0e-2f7d8c9b0a11",
		Order:      Desc,
	}, q)

	tree, err = querystring.Parse("cursor=42&order=sideways&page=2&sort[title]=asc")
	require.NoError(t, err)
	_, err = ParseCursorQuery(tree, s)
	assert.Equal(t, []string{"cursor", "order", "page", "sort"}, issuePaths(t, err))
}
