package handler

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/Payphone-Digital/content-api/internal/constants"
	apperrors "github.com/Payphone-Digital/content-api/internal/errors"
	"github.com/Payphone-Digital/content-api/internal/service"
	ctxutil "github.com/Payphone-Digital/content-api/pkg/context"
	"github.com/Payphone-Digital/content-api/pkg/logger"
	"github.com/Payphone-Digital/content-api/pkg/validation"
)

var cacheableEntities = []string{constants.EntityBlogs, constants.EntityPosts, constants.EntityProducts}

type CacheHandler struct {
	responder
	lists *service.ListCache
}

func NewCacheHandler(lists *service.ListCache, env string) *CacheHandler {
	return &CacheHandler{responder: responder{env: env}, lists: lists}
}

// InvalidateLists drops the cached list pages of one entity
func (h *CacheHandler) InvalidateLists(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "InvalidateLists")
	entity := c.Param("entity")

	if !slices.Contains(cacheableEntities, entity) {
		h.fail(c, ctx, apperrors.NewValidationError("params", map[string]string{"entity": entity}, []*apperrors.FieldError{{
			Path:    "entity",
			Message: validation.DefaultMessage("entity", "oneof", "blogs posts products"),
			Value:   entity,
		}}), "Unknown cache entity")
		return
	}

	deleted, err := h.lists.Invalidate(ctx, entity)
	if err != nil {
		h.fail(c, ctx, apperrors.WrapError(apperrors.ErrServiceUnavailable, err), "Failed to invalidate list cache")
		return
	}

	logger.InfoWithContext(ctx, "List cache invalidated on request").
		String("entity", entity).
		Int("deleted_count", deleted).
		Log()

	c.JSON(http.StatusOK, constants.BuildDataResponse(constants.MsgSuccess, gin.H{
		"entity":  entity,
		"deleted": deleted,
	}))
}

func (h *CacheHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.lists.Stats())
}
