package middleware

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Payphone-Digital/content-api/internal/constants"
	apperrors "github.com/Payphone-Digital/content-api/internal/errors"
	"github.com/Payphone-Digital/content-api/pkg/logger"
	"github.com/Payphone-Digital/content-api/pkg/reporting"
)

const slowRequestThreshold = 2 * time.Second

// LoggingMiddleware routes gin's access log through zap
func LoggingMiddleware() gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			logger.LogRequest(
				param.Method,
				param.Path,
				param.StatusCode,
				param.Latency.Milliseconds(),
				param.ClientIP,
				param.Request.UserAgent(),
			)

			if param.ErrorMessage != "" {
				logger.GetLogger().Error("Request error",
					zap.String("error", param.ErrorMessage),
					zap.String("method", param.Method),
					zap.String("path", param.Path),
					zap.String("client_ip", param.ClientIP),
					zap.Int("status_code", param.StatusCode),
					zap.Duration("latency", param.Latency),
				)
			}

			if param.Latency > slowRequestThreshold {
				logger.GetLogger().Warn("Slow request detected",
					zap.String("method", param.Method),
					zap.String("path", param.Path),
					zap.Duration("latency", param.Latency),
					zap.String("client_ip", param.ClientIP),
				)
			}

			return ""
		},
		Output: io.Discard,
	})
}

// RequestResponseMiddleware logs each request once it has been served, at a
// level chosen by its status
func RequestResponseMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		var requestBody []byte
		if gin.Mode() == gin.DebugMode && c.Request.Body != nil && c.Request.ContentLength < 1024*1024 {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		c.Next()

		latency := time.Since(startTime)
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.Int("status_code", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.Int("response_size", c.Writer.Size()),
		}
		if cache := c.Writer.Header().Get(constants.HeaderXCache); cache != "" {
			fields = append(fields, zap.String("cache", cache))
		}
		if len(requestBody) > 0 {
			fields = append(fields, zap.ByteString("request_body", requestBody))
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.GetLogger().Error("Server error", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			logger.GetLogger().Warn("Client error", fields...)
		case latency > slowRequestThreshold:
			logger.GetLogger().Warn("Slow request", fields...)
		default:
			logger.GetLogger().Debug("Request completed", fields...)
		}
	}
}

// RecoveryMiddleware turns panics into 500 responses and reports them
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.LogPanic(recovered)
		reporting.CapturePanic(c.Request.Context(), recovered, c.Request)

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"message": constants.MsgInternalError,
			"code":    apperrors.CodeInternal,
		})
	})
}
