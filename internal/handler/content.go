package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Payphone-Digital/content-api/internal/constants"
	"github.com/Payphone-Digital/content-api/internal/dto"
	apperrors "github.com/Payphone-Digital/content-api/internal/errors"
	"github.com/Payphone-Digital/content-api/internal/listquery"
	"github.com/Payphone-Digital/content-api/internal/middleware"
	"github.com/Payphone-Digital/content-api/internal/model"
	"github.com/Payphone-Digital/content-api/internal/service"
	ctxutil "github.com/Payphone-Digital/content-api/pkg/context"
	"github.com/Payphone-Digital/content-api/pkg/logger"
)

// ContentService is what the CRUD endpoints of one entity need
type ContentService[T, C, U any] interface {
	List(ctx context.Context, d listquery.Descriptor) (*listquery.Envelope, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*T, error)
	Create(ctx context.Context, req C) (*T, error)
	Update(ctx context.Context, id uuid.UUID, req U) (*T, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ContentHandler serves list, get, create, update and delete of one entity.
// Request bodies, ids and list queries arrive already validated by middleware.
type ContentHandler[T, C, U any] struct {
	responder
	service ContentService[T, C, U]
	entity  string
}

func NewContentHandler[T, C, U any](svc ContentService[T, C, U], entity, env string) *ContentHandler[T, C, U] {
	return &ContentHandler[T, C, U]{responder: responder{env: env}, service: svc, entity: entity}
}

type (
	BlogHandler    = ContentHandler[model.Blog, dto.CreateBlogRequest, dto.UpdateBlogRequest]
	ProductHandler = ContentHandler[model.Product, dto.CreateProductRequest, dto.UpdateProductRequest]
)

func NewBlogHandler(svc *service.BlogService, env string) *BlogHandler {
	return NewContentHandler[model.Blog, dto.CreateBlogRequest, dto.UpdateBlogRequest](svc, constants.EntityBlogs, env)
}

func NewProductHandler(svc *service.ProductService, env string) *ProductHandler {
	return NewContentHandler[model.Product, dto.CreateProductRequest, dto.UpdateProductRequest](svc, constants.EntityProducts, env)
}

func (h *ContentHandler[T, C, U]) requestContext(c *gin.Context, function string) context.Context {
	return ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", function)
}

func (h *ContentHandler[T, C, U]) List(c *gin.Context) {
	ctx := h.requestContext(c, "List")

	d, ok := middleware.ListDescriptor(c)
	if !ok {
		h.fail(c, ctx, apperrors.WithMessage(apperrors.ErrInternal, "list query was not validated"), "List query missing")
		return
	}

	env, hit, err := h.service.List(ctx, d)
	if err != nil {
		h.fail(c, ctx, err, "Failed to list "+h.entity)
		return
	}

	logger.DebugWithContext(ctx, "List served").
		String("entity", h.entity).
		Int("page", env.Meta.Page).
		Int("limit", env.Meta.Limit).
		Int64("total", env.Meta.Total).
		Int("total_pages", env.Meta.TotalPages()).
		Bool("has_next_page", env.Meta.HasNextPage()).
		Bool("has_previous_page", env.Meta.HasPreviousPage()).
		Bool("cache_hit", hit).
		Log()

	cacheHeader(c, hit)
	c.JSON(http.StatusOK, env)
}

func (h *ContentHandler[T, C, U]) GetByID(c *gin.Context) {
	ctx := h.requestContext(c, "GetByID")
	id, _ := middleware.ResourceID(c)

	item, err := h.service.GetByID(ctx, id)
	if err != nil {
		h.fail(c, ctx, err, "Failed to fetch "+h.entity)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ContentHandler[T, C, U]) Create(c *gin.Context) {
	ctx := h.requestContext(c, "Create")

	req, ok := middleware.RequestBody[C](c)
	if !ok {
		h.fail(c, ctx, apperrors.WithMessage(apperrors.ErrInternal, "request body was not validated"), "Request body missing")
		return
	}

	item, err := h.service.Create(ctx, *req)
	if err != nil {
		h.fail(c, ctx, err, "Failed to create "+h.entity)
		return
	}
	c.JSON(http.StatusCreated, constants.BuildDataResponse(constants.MsgCreated, item))
}

func (h *ContentHandler[T, C, U]) Update(c *gin.Context) {
	ctx := h.requestContext(c, "Update")
	id, _ := middleware.ResourceID(c)

	req, ok := middleware.RequestBody[U](c)
	if !ok {
		h.fail(c, ctx, apperrors.WithMessage(apperrors.ErrInternal, "request body was not validated"), "Request body missing")
		return
	}

	item, err := h.service.Update(ctx, id, *req)
	if err != nil {
		h.fail(c, ctx, err, "Failed to update "+h.entity)
		return
	}
	c.JSON(http.StatusOK, constants.BuildDataResponse(constants.MsgUpdated, item))
}

func (h *ContentHandler[T, C, U]) Delete(c *gin.Context) {
	ctx := h.requestContext(c, "Delete")
	id, _ := middleware.ResourceID(c)

	if err := h.service.Delete(ctx, id); err != nil {
		h.fail(c, ctx, err, "Failed to delete "+h.entity)
		return
	}
	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgDeleted))
}

// PostHandler adds keyset pagination to the post endpoints
type PostHandler struct {
	*ContentHandler[model.Post, dto.CreatePostRequest, dto.UpdatePostRequest]
	posts *service.PostService
}

func NewPostHandler(svc *service.PostService, env string) *PostHandler {
	return &PostHandler{
		ContentHandler: NewContentHandler[model.Post, dto.CreatePostRequest, dto.UpdatePostRequest](svc, constants.EntityPosts, env),
		posts:          svc,
	}
}

func (h *PostHandler) ListAfter(c *gin.Context) {
	ctx := h.requestContext(c, "ListAfter")

	q, ok := middleware.CursorDescriptor(c)
	if !ok {
		h.fail(c, ctx, apperrors.WithMessage(apperrors.ErrInternal, "cursor query was not validated"), "Cursor query missing")
		return
	}

	env, hit, err := h.posts.ListAfter(ctx, q)
	if err != nil {
		h.fail(c, ctx, err, "Failed to list posts after cursor")
		return
	}

	cacheHeader(c, hit)
	c.JSON(http.StatusOK, env)
}
