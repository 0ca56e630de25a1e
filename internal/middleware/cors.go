package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Payphone-Digital/content-api/internal/constants"
	"github.com/Payphone-Digital/content-api/pkg/logger"
)

var (
	corsAllowHeaders = strings.Join([]string{
		"Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "Accept", "Origin",
		"Cache-Control", "X-Requested-With",
		constants.HeaderXRequestID, constants.HeaderXTraceID, constants.HeaderXCorrelationID,
	}, ", ")
	corsExposeHeaders = strings.Join([]string{
		constants.HeaderXRequestID, constants.HeaderXCorrelationID, constants.HeaderXCache,
		"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset",
	}, ", ")
)

func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			logger.GetLogger().Debug("Middleware: CORS preflight request handled",
				zap.String("client_ip", c.ClientIP()),
				zap.String("origin", c.GetHeader("Origin")),
			)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
