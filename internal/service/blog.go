package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Payphone-Digital/content-api/internal/constants"
	"github.com/Payphone-Digital/content-api/internal/dto"
	apperrors "github.com/Payphone-Digital/content-api/internal/errors"
	"github.com/Payphone-Digital/content-api/internal/listquery"
	"github.com/Payphone-Digital/content-api/internal/model"
	"github.com/Payphone-Digital/content-api/internal/repository"
	"github.com/Payphone-Digital/content-api/pkg/logger"
)

type BlogService struct {
	repo  *repository.BlogRepository
	lists *ListCache
}

func NewBlogService(repo *repository.BlogRepository, lists *ListCache) *BlogService {
	return &BlogService{repo: repo, lists: lists}
}

// Schema is the list schema requests are validated against
func (s *BlogService) Schema() *listquery.Schema {
	return s.repo.Builder().Schema()
}

func (s *BlogService) List(ctx context.Context, d listquery.Descriptor) (*listquery.Envelope, bool, error) {
	ctx = serviceScope(ctx, "ListBlogs")

	env, hit, err := s.lists.List(ctx, constants.EntityBlogs, d, func(ctx context.Context) (*listquery.Envelope, error) {
		return s.repo.List(ctx, d)
	})
	if err != nil {
		return nil, false, storeError(err, apperrors.ErrBlogNotFound)
	}
	return env, hit, nil
}

func (s *BlogService) GetByID(ctx context.Context, id uuid.UUID) (*model.Blog, error) {
	ctx = serviceScope(ctx, "GetBlog")

	blog, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, apperrors.ErrBlogNotFound)
	}
	return blog, nil
}

func (s *BlogService) Create(ctx context.Context, req dto.CreateBlogRequest) (*model.Blog, error) {
	ctx = serviceScope(ctx, "CreateBlog")

	blog := &model.Blog{Name: req.Name, Artiom: req.Artiom}
	if err := s.repo.Create(ctx, blog); err != nil {
		return nil, storeError(err, apperrors.ErrBlogNotFound)
	}

	logger.InfoWithContext(ctx, "Blog created").
		String("blog_id", blog.ID.String()).
		String("name", blog.Name).
		Log()

	invalidate(ctx, s.lists, constants.EntityBlogs)
	return blog, nil
}

func (s *BlogService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateBlogRequest) (*model.Blog, error) {
	ctx = serviceScope(ctx, "UpdateBlog")

	columns := make(map[string]any)
	if req.Name != nil {
		columns["name"] = *req.Name
	}
	if req.Artiom != nil {
		columns["artiom"] = *req.Artiom
	}

	blog, err := s.repo.Update(ctx, id, columns)
	if err != nil {
		return nil, storeError(err, apperrors.ErrBlogNotFound)
	}

	// post lists embed the blog name
	invalidate(ctx, s.lists, constants.EntityBlogs, constants.EntityPosts)
	return blog, nil
}

func (s *BlogService) Delete(ctx context.Context, id uuid.UUID) error {
	ctx = serviceScope(ctx, "DeleteBlog")

	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, apperrors.ErrBlogNotFound)
	}

	logger.InfoWithContext(ctx, "Blog deleted").
		String("blog_id", id.String()).
		Log()

	invalidate(ctx, s.lists, constants.EntityBlogs, constants.EntityPosts)
	return nil
}
