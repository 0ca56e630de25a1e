package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Payphone-Digital/content-api/internal/dto"
	apperrors "github.com/Payphone-Digital/content-api/internal/errors"
	"github.com/Payphone-Digital/content-api/internal/listquery"
	"github.com/Payphone-Digital/content-api/internal/model"
	"github.com/Payphone-Digital/content-api/internal/repository"
	"github.com/Payphone-Digital/content-api/pkg/cache"
)

type services struct {
	lists    *ListCache
	blogs    *BlogService
	posts    *PostService
	products *ProductService
}

func newServices(t *testing.T, cacheEnabled bool) *services {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(model.All()...))

	blogRepo, err := repository.NewBlogRepository(db, 10, 100)
	require.NoError(t, err)
	postRepo, err := repository.NewPostRepository(db, 10, 100)
	require.NoError(t, err)
	productRepo, err := repository.NewProductRepository(db, 10, 100)
	require.NoError(t, err)

	lists := NewListCache(
		cache.NewMemory[*listquery.Envelope](0),
		cache.NewMemory[*listquery.CursorEnvelope](0),
		ListCacheOptions{Enabled: cacheEnabled, TTL: time.Minute, Backend: "memory"},
	)
	t.Cleanup(func() { _ = lists.Close() })

	return &services{
		lists:    lists,
		blogs:    NewBlogService(blogRepo, lists),
		posts:    NewPostService(postRepo, blogRepo, lists),
		products: NewProductService(productRepo, lists),
	}
}

func ptr[T any](v T) *T { return &v }

func TestListIsCachedUntilWrite(t *testing.T) {
	s := newServices(t, true)
	ctx := context.Background()
	d := listquery.Descriptor{Page: 1, Limit: 10}

	_, err := s.blogs.Create(ctx, dto.CreateBlogRequest{Name: "first"})
	require.NoError(t, err)

	env, hit, err := s.blogs.List(ctx, d)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, int64(1), env.Meta.Total)

	_, hit, err = s.blogs.List(ctx, d)
	require.NoError(t, err)
	assert.True(t, hit)

	_, err = s.blogs.Create(ctx, dto.CreateBlogRequest{Name: "second"})
	require.NoError(t, err)

	env, hit, err = s.blogs.List(ctx, d)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, int64(2), env.Meta.Total)

	stats := s.lists.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Nil(t, stats.Breaker)
}

func TestBlogRenameRefreshesPostLists(t *testing.T) {
	s := newServices(t, true)
	ctx := context.Background()

	blog, err := s.blogs.Create(ctx, dto.CreateBlogRequest{Name: "old"})
	require.NoError(t, err)
	blogID := blog.ID.String()
	_, err = s.posts.Create(ctx, dto.CreatePostRequest{Title: "p", Content: "c", BlogID: &blogID})
	require.NoError(t, err)

	d := listquery.Descriptor{Include: map[string][]string{"blog": {"name"}}}
	env, _, err := s.posts.List(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, listquery.Row{"name": "old"}, env.Data[0]["blog"])

	_, err = s.blogs.Update(ctx, blog.ID, dto.UpdateBlogRequest{Name: ptr("new")})
	require.NoError(t, err)

	env, hit, err := s.posts.List(ctx, d)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, listquery.Row{"name": "new"}, env.Data[0]["blog"])
}

func TestPostBlogReference(t *testing.T) {
	s := newServices(t, false)
	ctx := context.Background()

	_, err := s.posts.Create(ctx, dto.CreatePostRequest{Title: "p", Content: "c", BlogID: ptr(uuid.NewString())})
	assert.True(t, errors.Is(err, apperrors.ErrBlogNotFound))

	blog, err := s.blogs.Create(ctx, dto.CreateBlogRequest{Name: "b"})
	require.NoError(t, err)
	post, err := s.posts.Create(ctx, dto.CreatePostRequest{Title: "p", Content: "c", BlogID: ptr(blog.ID.String()), Published: ptr(true)})
	require.NoError(t, err)
	require.NotNil(t, post.BlogID)
	assert.Equal(t, blog.ID, *post.BlogID)
	assert.True(t, post.Published)

	detached, err := s.posts.Update(ctx, post.ID, dto.UpdatePostRequest{BlogID: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, detached.BlogID)
	assert.Equal(t, "p", detached.Title)
}

func TestNotFoundMapping(t *testing.T) {
	s := newServices(t, false)
	ctx := context.Background()
	missing := uuid.New()

	_, err := s.blogs.GetByID(ctx, missing)
	assert.True(t, errors.Is(err, apperrors.ErrBlogNotFound))
	assert.Equal(t, http.StatusNotFound, apperrors.ToHTTPStatus(err))

	_, err = s.posts.Update(ctx, missing, dto.UpdatePostRequest{Title: ptr("x")})
	assert.Equal(t, http.StatusNotFound, apperrors.ToHTTPStatus(err))

	err = s.products.Delete(ctx, missing)
	assert.Equal(t, "Product not found", apperrors.GetErrorMessage(err))
}

func TestProductSKUConflicts(t *testing.T) {
	s := newServices(t, false)
	ctx := context.Background()

	mug, err := s.products.Create(ctx, dto.CreateProductRequest{
		Name: "Mug", Price: "9.5", SKU: "MUG-1",
		Attributes: []byte(`{"color":"red"}`),
	})
	require.NoError(t, err)
	assert.True(t, mug.InStock)

	_, err = s.products.Create(ctx, dto.CreateProductRequest{Name: "Other", Price: "1.25", SKU: "MUG-1"})
	assert.Equal(t, http.StatusConflict, apperrors.ToHTTPStatus(err))
	assert.Equal(t, apperrors.ErrDuplicateSKU.Message, apperrors.GetErrorMessage(err))

	pan, err := s.products.Create(ctx, dto.CreateProductRequest{Name: "Pan", Price: "30.25", SKU: "PAN-1", InStock: ptr(false)})
	require.NoError(t, err)
	assert.False(t, pan.InStock)

	_, err = s.products.Update(ctx, pan.ID, dto.UpdateProductRequest{SKU: ptr("MUG-1")})
	assert.Equal(t, http.StatusConflict, apperrors.ToHTTPStatus(err))

	// keeping its own SKU is not a conflict
	updated, err := s.products.Update(ctx, mug.ID, dto.UpdateProductRequest{SKU: ptr("MUG-1"), Name: ptr("Big mug")})
	require.NoError(t, err)
	assert.Equal(t, "Big mug", updated.Name)
}

func TestDisabledCachePassesThrough(t *testing.T) {
	s := newServices(t, false)
	ctx := context.Background()

	for range 2 {
		_, hit, err := s.products.List(ctx, listquery.Descriptor{})
		require.NoError(t, err)
		assert.False(t, hit)
	}
	n, err := s.lists.Invalidate(ctx, "products")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, s.lists.Stats().Misses)
}

func TestInvalidateCountsPagesAndCursors(t *testing.T) {
	s := newServices(t, true)
	ctx := context.Background()

	_, _, err := s.posts.List(ctx, listquery.Descriptor{Page: 1})
	require.NoError(t, err)
	_, _, err = s.posts.List(ctx, listquery.Descriptor{Page: 2})
	require.NoError(t, err)
	_, _, err = s.posts.ListAfter(ctx, listquery.CursorQuery{Order: listquery.Asc})
	require.NoError(t, err)
	_, _, err = s.blogs.List(ctx, listquery.Descriptor{})
	require.NoError(t, err)

	n, err := s.lists.Invalidate(ctx, "posts")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestInvalidateDuringLoadDropsStalePage(t *testing.T) {
	s := newServices(t, true)
	ctx := context.Background()
	d := listquery.Descriptor{Page: 1}

	page := func(total int64) *listquery.Envelope {
		return &listquery.Envelope{Data: []listquery.Row{}, Meta: listquery.Meta{Page: 1, Limit: 10, Total: total}}
	}

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, err := s.lists.List(ctx, "blogs", d, func(context.Context) (*listquery.Envelope, error) {
			close(started)
			<-release
			return page(0), nil
		})
		assert.NoError(t, err)
	}()
	<-started

	_, err := s.lists.Invalidate(ctx, "blogs")
	require.NoError(t, err)
	close(release)
	<-done

	env, hit, err := s.lists.List(ctx, "blogs", d, func(context.Context) (*listquery.Envelope, error) {
		return page(1), nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, int64(1), env.Meta.Total)

	_, hit, err = s.lists.List(ctx, "blogs", d, func(context.Context) (*listquery.Envelope, error) {
		return page(2), nil
	})
	require.NoError(t, err)
	assert.True(t, hit)
}
