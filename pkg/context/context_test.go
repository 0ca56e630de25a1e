package ctxutil

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewContextWithRequestReadsHeaders(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/posts", nil)
	req.RemoteAddr = "10.0.0.7:5123"
	req.Header.Set("X-Request-ID", "req-1")
	req.Header.Set("X-Correlation-ID", "corr-1")
	req.Header.Set("User-Agent", "curl/8")

	ctx := NewContextWithRequest(context.Background(), req, "posts", "List")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "corr-1", GetCorrelationID(ctx))
	assert.Equal(t, "", GetTraceID(ctx))
	assert.Equal(t, "10.0.0.7", GetClientIP(ctx))
	assert.Equal(t, "curl/8", GetUserAgent(ctx))
	assert.Equal(t, "posts", GetModule(ctx))
	assert.Equal(t, "List", GetFunction(ctx))
	assert.False(t, GetStartTime(ctx).IsZero())
}

func TestNewContextWithRequestKeepsMiddlewareIDs(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "from-header")

	base := WithRequestIDs(context.Background(), "from-middleware", "trace", "corr")
	ctx := NewContextWithRequest(base, req, "blogs", "Get")

	assert.Equal(t, "from-middleware", GetRequestID(ctx))
	assert.Equal(t, "trace", GetTraceID(ctx))
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"cloudflare first", map[string]string{"CF-Connecting-IP": "1.1.1.1", "X-Forwarded-For": "2.2.2.2"}, "3.3.3.3:1", "1.1.1.1"},
		{"first forwarded hop", map[string]string{"X-Forwarded-For": "2.2.2.2, 4.4.4.4"}, "3.3.3.3:1", "2.2.2.2"},
		{"real ip", map[string]string{"X-Real-IP": "5.5.5.5"}, "3.3.3.3:1", "5.5.5.5"},
		{"socket", nil, "3.3.3.3:1", "3.3.3.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}

func TestContextToMap(t *testing.T) {
	ctx := WithUserID(context.Background(), "user-9")
	ctx = WithRequestIDs(ctx, "r", "", "c")

	m := ContextToMap(ctx)
	assert.Equal(t, "user-9", m["user_id"])
	assert.Equal(t, "r", m["request_id"])
	assert.Equal(t, "c", m["correlation_id"])
	assert.NotContains(t, m, "trace_id")
	assert.NotContains(t, m, "duration")
}

func TestGettersTolerateNilContext(t *testing.T) {
	assert.Equal(t, "", GetRequestID(nil))
	assert.True(t, GetStartTime(nil).IsZero())
}
