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

type PostService struct {
	repo  *repository.PostRepository
	blogs *repository.BlogRepository
	lists *ListCache
}

func NewPostService(repo *repository.PostRepository, blogs *repository.BlogRepository, lists *ListCache) *PostService {
	return &PostService{repo: repo, blogs: blogs, lists: lists}
}

func (s *PostService) Schema() *listquery.Schema {
	return s.repo.Builder().Schema()
}

func (s *PostService) List(ctx context.Context, d listquery.Descriptor) (*listquery.Envelope, bool, error) {
	ctx = serviceScope(ctx, "ListPosts")

	env, hit, err := s.lists.List(ctx, constants.EntityPosts, d, func(ctx context.Context) (*listquery.Envelope, error) {
		return s.repo.List(ctx, d)
	})
	if err != nil {
		return nil, false, storeError(err, apperrors.ErrPostNotFound)
	}
	return env, hit, nil
}

// ListAfter pages posts by id
func (s *PostService) ListAfter(ctx context.Context, q listquery.CursorQuery) (*listquery.CursorEnvelope, bool, error) {
	ctx = serviceScope(ctx, "ListPostsAfter")

	env, hit, err := s.lists.ListAfter(ctx, constants.EntityPosts, q, func(ctx context.Context) (*listquery.CursorEnvelope, error) {
		return s.repo.ListAfter(ctx, q)
	})
	if err != nil {
		return nil, false, storeError(err, apperrors.ErrPostNotFound)
	}
	return env, hit, nil
}

func (s *PostService) GetByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	ctx = serviceScope(ctx, "GetPost")

	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, apperrors.ErrPostNotFound)
	}
	return post, nil
}

func (s *PostService) Create(ctx context.Context, req dto.CreatePostRequest) (*model.Post, error) {
	ctx = serviceScope(ctx, "CreatePost")

	blogID, err := s.resolveBlog(ctx, req.BlogID)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		Title:   req.Title,
		Content: req.Content,
		BlogID:  blogID,
	}
	if req.Published != nil {
		post.Published = *req.Published
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, storeError(err, apperrors.ErrPostNotFound)
	}

	logger.InfoWithContext(ctx, "Post created").
		String("post_id", post.ID.String()).
		Bool("published", post.Published).
		Log()

	invalidate(ctx, s.lists, constants.EntityPosts)
	return post, nil
}

func (s *PostService) Update(ctx context.Context, id uuid.UUID, req dto.UpdatePostRequest) (*model.Post, error) {
	ctx = serviceScope(ctx, "UpdatePost")

	columns := make(map[string]any)
	if req.Title != nil {
		columns["title"] = *req.Title
	}
	if req.Content != nil {
		columns["content"] = *req.Content
	}
	if req.Published != nil {
		columns["published"] = *req.Published
	}
	if req.BlogID != nil {
		// an empty blogId detaches the post
		blogID, err := s.resolveBlog(ctx, req.BlogID)
		if err != nil {
			return nil, err
		}
		if blogID == nil {
			columns["blog_id"] = nil
		} else {
			columns["blog_id"] = *blogID
		}
	}

	post, err := s.repo.Update(ctx, id, columns)
	if err != nil {
		return nil, storeError(err, apperrors.ErrPostNotFound)
	}

	invalidate(ctx, s.lists, constants.EntityPosts)
	return post, nil
}

func (s *PostService) Delete(ctx context.Context, id uuid.UUID) error {
	ctx = serviceScope(ctx, "DeletePost")

	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, apperrors.ErrPostNotFound)
	}

	logger.InfoWithContext(ctx, "Post deleted").
		String("post_id", id.String()).
		Log()

	invalidate(ctx, s.lists, constants.EntityPosts)
	return nil
}

// resolveBlog checks that a referenced blog exists. Nil or empty means no blog.
func (s *PostService) resolveBlog(ctx context.Context, raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "blogId must be a valid UUID")
	}
	if _, err := s.blogs.GetByID(ctx, id); err != nil {
		return nil, storeError(err, apperrors.ErrBlogNotFound)
	}
	return &id, nil
}
