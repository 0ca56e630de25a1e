package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Payphone-Digital/content-api/internal/constants"
	apperrors "github.com/Payphone-Digital/content-api/internal/errors"
	"github.com/Payphone-Digital/content-api/pkg/logger"
	"github.com/Payphone-Digital/content-api/pkg/reporting"
)

// responder renders errors the same way for every handler
type responder struct {
	env string
}

func (r responder) fail(c *gin.Context, ctx context.Context, err error, message string) {
	if verr := apperrors.GetValidationError(err); verr != nil {
		c.JSON(http.StatusBadRequest, constants.BuildValidationErrorResponse(verr))
		return
	}

	status := apperrors.ToHTTPStatus(err)
	log := logger.WarnWithContext(ctx, message)
	if status >= http.StatusInternalServerError {
		log = logger.ErrorWithContext(ctx, message)
		reporting.CaptureError(ctx, err)
	}
	log.Int("http_status", status).Err(err).Log()

	var details any
	if domainErr := apperrors.GetDomainError(err); domainErr != nil {
		details = constants.ErrorDetails(domainErr.Err, r.env)
	} else {
		details = constants.ErrorDetails(err, r.env)
	}
	c.JSON(status, constants.BuildErrorResponse(apperrors.GetErrorMessage(err), details))
}

func cacheHeader(c *gin.Context, hit bool) {
	if hit {
		c.Header(constants.HeaderXCache, "HIT")
	} else {
		c.Header(constants.HeaderXCache, "MISS")
	}
}
