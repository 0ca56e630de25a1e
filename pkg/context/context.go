package ctxutil

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Payphone-Digital/content-api/internal/constants"
)

type ContextKey = constants.ContextKey

const (
	RequestIDKey     = constants.CtxKeyRequestID
	UserIDKey        = constants.CtxKeyUserID
	ClientIPKey      = constants.CtxKeyClientIP
	UserAgentKey     = constants.CtxKeyUserAgent
	TraceIDKey       = constants.CtxKeyTraceID
	CorrelationIDKey = constants.CtxKeyCorrelationID
	StartTimeKey     = constants.CtxKeyStartTime
	ModuleKey        = constants.CtxKeyModule
	FunctionKey      = constants.CtxKeyFunction
	UserLoginKey     = constants.CtxKeyUserLogin
)

// WithValue adds a value to context
func WithValue(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}

// WithUserID records the authenticated subject
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func WithUserLogin(ctx context.Context, login string) context.Context {
	return context.WithValue(ctx, UserLoginKey, login)
}

// WithRequestIDs stores the tracking ids assigned by the correlation middleware
func WithRequestIDs(ctx context.Context, requestID, traceID, correlationID string) context.Context {
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	ctx = context.WithValue(ctx, TraceIDKey, traceID)
	return context.WithValue(ctx, CorrelationIDKey, correlationID)
}

func getString(ctx context.Context, key ContextKey) string {
	if ctx == nil {
		return ""
	}
	if val, ok := ctx.Value(key).(string); ok {
		return val
	}
	return ""
}

func GetRequestID(ctx context.Context) string     { return getString(ctx, RequestIDKey) }
func GetTraceID(ctx context.Context) string       { return getString(ctx, TraceIDKey) }
func GetCorrelationID(ctx context.Context) string { return getString(ctx, CorrelationIDKey) }
func GetClientIP(ctx context.Context) string      { return getString(ctx, ClientIPKey) }
func GetUserAgent(ctx context.Context) string     { return getString(ctx, UserAgentKey) }
func GetUserID(ctx context.Context) string        { return getString(ctx, UserIDKey) }
func GetModule(ctx context.Context) string        { return getString(ctx, ModuleKey) }
func GetFunction(ctx context.Context) string      { return getString(ctx, FunctionKey) }
func GetUserLogin(ctx context.Context) string     { return getString(ctx, UserLoginKey) }

func GetStartTime(ctx context.Context) time.Time {
	if ctx == nil {
		return time.Time{}
	}
	if val, ok := ctx.Value(StartTimeKey).(time.Time); ok {
		return val
	}
	return time.Time{}
}

// GetDuration is the time elapsed since the request started, zero when unknown
func GetDuration(ctx context.Context) time.Duration {
	startTime := GetStartTime(ctx)
	if !startTime.IsZero() {
		return time.Since(startTime)
	}
	return 0
}

// NewContextWithRequest derives the context handed to services from an
// incoming request. Ids already placed on the request context by middleware
// are kept; missing ones are read from the tracking headers.
func NewContextWithRequest(ctx context.Context, req *http.Request, module, function string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx = context.WithValue(ctx, ModuleKey, module)
	ctx = context.WithValue(ctx, FunctionKey, function)

	if req != nil {
		if GetRequestID(ctx) == "" {
			if id := req.Header.Get(constants.HeaderXRequestID); id != "" {
				ctx = context.WithValue(ctx, RequestIDKey, id)
			}
		}
		if GetTraceID(ctx) == "" {
			if id := req.Header.Get(constants.HeaderXTraceID); id != "" {
				ctx = context.WithValue(ctx, TraceIDKey, id)
			}
		}
		if GetCorrelationID(ctx) == "" {
			if id := req.Header.Get(constants.HeaderXCorrelationID); id != "" {
				ctx = context.WithValue(ctx, CorrelationIDKey, id)
			}
		}
		if GetClientIP(ctx) == "" {
			ctx = context.WithValue(ctx, ClientIPKey, ClientIP(req))
		}
		if GetUserAgent(ctx) == "" {
			ctx = context.WithValue(ctx, UserAgentKey, req.UserAgent())
		}
	}

	if GetStartTime(ctx).IsZero() {
		ctx = context.WithValue(ctx, StartTimeKey, time.Now())
	}

	return ctx
}

// ClientIP prefers proxy headers over the socket address
func ClientIP(req *http.Request) string {
	if ip := req.Header.Get(constants.HeaderCFConnectingIP); ip != "" {
		return ip
	}
	if forwarded := req.Header.Get(constants.HeaderXForwardedFor); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if ip := req.Header.Get(constants.HeaderXRealIP); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}

// ContextToMap flattens the tracking values for logging and error reports
func ContextToMap(ctx context.Context) map[string]any {
	result := make(map[string]any)

	if requestID := GetRequestID(ctx); requestID != "" {
		result["request_id"] = requestID
	}
	if traceID := GetTraceID(ctx); traceID != "" {
		result["trace_id"] = traceID
	}
	if correlationID := GetCorrelationID(ctx); correlationID != "" {
		result["correlation_id"] = correlationID
	}
	if clientIP := GetClientIP(ctx); clientIP != "" {
		result["client_ip"] = clientIP
	}
	if userAgent := GetUserAgent(ctx); userAgent != "" {
		result["user_agent"] = userAgent
	}
	if module := GetModule(ctx); module != "" {
		result["module"] = module
	}
	if function := GetFunction(ctx); function != "" {
		result["function"] = function
	}
	if userID := GetUserID(ctx); userID != "" {
		result["user_id"] = userID
	}
	if startTime := GetStartTime(ctx); !startTime.IsZero() {
		result["start_time"] = startTime
		result["duration"] = time.Since(startTime)
	}

	return result
}
