package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Payphone-Digital/content-api/internal/constants"
	ctxutil "github.com/Payphone-Digital/content-api/pkg/context"
	"github.com/Payphone-Digital/content-api/pkg/logger"
)

// CorrelationMiddleware assigns request, trace and correlation ids. Incoming
// headers win; a fresh UUID fills any gap. The ids are echoed back.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(constants.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		traceID := c.GetHeader(constants.HeaderXTraceID)
		if traceID == "" {
			traceID = requestID
		}
		correlationID := c.GetHeader(constants.HeaderXCorrelationID)
		if correlationID == "" {
			correlationID = requestID
		}

		ctx := ctxutil.WithRequestIDs(c.Request.Context(), requestID, traceID, correlationID)
		c.Request = c.Request.WithContext(ctx)

		c.Header(constants.HeaderXRequestID, requestID)
		c.Header(constants.HeaderXCorrelationID, correlationID)
		c.Next()
	}
}

// ContextMiddleware attaches request metadata and a deadline to the request
// context and logs the request boundaries
func ContextMiddleware(module string, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, module, c.FullPath())

		var cancel context.CancelFunc = func() {}
		if timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, timeout)
		}
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		logger.DebugWithContext(ctx, "Request started").
			String("method", c.Request.Method).
			String("path", c.Request.URL.Path).
			String("query", c.Request.URL.RawQuery).
			Log()

		c.Next()

		logger.DebugWithContext(c.Request.Context(), "Request completed").
			String("method", c.Request.Method).
			String("path", c.Request.URL.Path).
			Int("status_code", c.Writer.Status()).
			Int("response_size", c.Writer.Size()).
			Duration(ctxutil.GetDuration(ctx)).
			Log()
	}
}

// SecurityContextMiddleware flags requests that look like scanners
func SecurityContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSuspiciousRequest(c) {
			logger.WarnWithContext(c.Request.Context(), "Suspicious request detected").
				String("client_ip", c.ClientIP()).
				String("user_agent", c.Request.UserAgent()).
				String("method", c.Request.Method).
				String("path", c.Request.URL.Path).
				Log()
		}
		c.Next()
	}
}

var (
	suspiciousAgents  = []string{"sqlmap", "nikto", "nmap", "masscan", "scanner"}
	suspiciousPaths   = []string{"/admin", "/wp-admin", "/.env", "/.git"}
	suspiciousMethods = []string{"TRACE", "TRACK"}
)

func isSuspiciousRequest(c *gin.Context) bool {
	agent := strings.ToLower(c.Request.UserAgent())
	for _, pattern := range suspiciousAgents {
		if strings.Contains(agent, pattern) {
			return true
		}
	}
	for _, prefix := range suspiciousPaths {
		if strings.HasPrefix(c.Request.URL.Path, prefix) {
			return true
		}
	}
	for _, method := range suspiciousMethods {
		if c.Request.Method == method {
			return true
		}
	}
	return false
}

// DefaultContextMiddleware is the context chain every route group starts with
func DefaultContextMiddleware(module string, timeout time.Duration) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		CorrelationMiddleware(),
		SecurityContextMiddleware(),
		ContextMiddleware(module, timeout),
	}
}
