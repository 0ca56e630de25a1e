package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Payphone-Digital/content-api/internal/constants"
	"github.com/Payphone-Digital/content-api/internal/dto"
	"github.com/Payphone-Digital/content-api/internal/listquery"
	"github.com/Payphone-Digital/content-api/internal/model"
	"github.com/Payphone-Digital/content-api/internal/service"
	ctxutil "github.com/Payphone-Digital/content-api/pkg/context"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type validationBody struct {
	Type    string `json:"type"`
	On      string `json:"on"`
	Message string `json:"message"`
	Found   any    `json:"found"`
	Errors  []struct {
		Path    string `json:"path"`
		Message string `json:"message"`
		Value   any    `json:"value"`
	} `json:"errors"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func serve(r *gin.Engine, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header[http.CanonicalHeaderKey(k)] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestValidateRequestBody(t *testing.T) {
	m := NewValidationMiddleware()
	r := gin.New()
	r.POST("/products", m.ValidateRequestBody(func() any { return &dto.CreateProductRequest{} }), func(c *gin.Context) {
		body, ok := RequestBody[dto.CreateProductRequest](c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"sku": body.SKU})
	})

	t.Run("valid", func(t *testing.T) {
		w := serve(r, http.MethodPost, "/products", `{"name":"Mug","price":"9.50","sku":"MUG-1"}`, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"sku":"MUG-1"}`, w.Body.String())
	})

	t.Run("field errors use json names", func(t *testing.T) {
		w := serve(r, http.MethodPost, "/products", `{"name":"Mug","price":"cheap"}`, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decode[validationBody](t, w)
		assert.Equal(t, "validation", body.Type)
		assert.Equal(t, "body", body.On)
		require.Len(t, body.Errors, 2)
		assert.Equal(t, "price", body.Errors[0].Path)
		assert.Equal(t, "price must be a decimal number", body.Errors[0].Message)
		assert.Equal(t, "sku", body.Errors[1].Path)
		assert.Equal(t, "sku is required", body.Errors[1].Message)
		assert.Equal(t, body.Errors[0].Message, body.Message)
	})

	t.Run("wrong type", func(t *testing.T) {
		w := serve(r, http.MethodPost, "/products", `{"name":1}`, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decode[validationBody](t, w)
		require.Len(t, body.Errors, 1)
		assert.Equal(t, "name", body.Errors[0].Path)
	})

	for _, raw := range []string{``, `not json`, `[1,2]`} {
		t.Run("not an object "+raw, func(t *testing.T) {
			w := serve(r, http.MethodPost, "/products", raw, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "body", decode[validationBody](t, w).On)
		})
	}
}

func TestValidateIDParam(t *testing.T) {
	m := NewValidationMiddleware()
	r := gin.New()
	r.GET("/blogs/:id", m.ValidateIDParam("id"), func(c *gin.Context) {
		id, ok := ResourceID(c)
		require.True(t, ok)
		c.String(http.StatusOK, id.String())
	})

	id := uuid.NewString()
	w := serve(r, http.MethodGet, "/blogs/"+id, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, w.Body.String())

	w = serve(r, http.MethodGet, "/blogs/42", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[validationBody](t, w)
	assert.Equal(t, "params", body.On)
	assert.Equal(t, "id must be a valid UUID", body.Message)
}

func postSchema(t *testing.T) *listquery.Schema {
	t.Helper()
	s, err := listquery.NewSchema(model.PostList(10, 100))
	require.NoError(t, err)
	return s
}

func TestListQuery(t *testing.T) {
	m := NewValidationMiddleware()
	r := gin.New()
	r.GET("/posts", m.ListQuery(postSchema(t)), func(c *gin.Context) {
		d, ok := ListDescriptor(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, d)
	})

	w := serve(r, http.MethodGet, "/posts?page=2&limit=5&sort[title]=desc&filter[published][eq]=true&include[blog]=name", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	d := decode[listquery.Descriptor](t, w)
	assert.Equal(t, 2, d.Page)
	assert.Equal(t, 5, d.Limit)
	require.Len(t, d.Sort, 1)
	assert.Equal(t, listquery.Desc, d.Sort[0].Order)
	assert.Equal(t, []string{"name"}, d.Include["blog"])

	w = serve(r, http.MethodGet, "/posts?limit=500&sort[secret]=asc", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[validationBody](t, w)
	assert.Equal(t, "query", body.On)
	assert.Len(t, body.Errors, 2)

	w = serve(r, http.MethodGet, "/posts?filter[title]=%zz", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCursorQuery(t *testing.T) {
	m := NewValidationMiddleware()
	r := gin.New()
	r.GET("/posts/cursor", m.CursorQuery(postSchema(t)), func(c *gin.Context) {
		q, ok := CursorDescriptor(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, q)
	})

	w := serve(r, http.MethodGet, "/posts/cursor?order=desc&limit=3", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	q := decode[listquery.CursorQuery](t, w)
	assert.Equal(t, listquery.Desc, q.Order)
	assert.Equal(t, 3, q.Limit)

	w = serve(r, http.MethodGet, "/posts/cursor?page=2", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequireAuth(t *testing.T) {
	jwtService := service.NewJWTService("secret", time.Hour)
	m := NewJWTMiddleware(jwtService)
	r := gin.New()
	r.POST("/posts", m.RequireAuth(), func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{
			"sub":  claims.Subject,
			"user": c.GetString(constants.GinKeyUserID),
			"ctx":  ctxutil.GetUserID(c.Request.Context()),
		})
	})

	token, err := jwtService.GenerateToken("user-1", "a@example.com", "Ada", false)
	require.NoError(t, err)

	w := serve(r, http.MethodPost, "/posts", "", http.Header{"Authorization": {"Bearer " + token}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sub":"user-1","user":"user-1","ctx":"user-1"}`, w.Body.String())

	for name, header := range map[string]string{
		"missing":  "",
		"scheme":   "Basic " + token,
		"bad sig":  "Bearer " + token + "x",
		"no token": "Bearer ",
	} {
		t.Run(name, func(t *testing.T) {
			w := serve(r, http.MethodPost, "/posts", "", http.Header{"Authorization": {header}})
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.NotEmpty(t, w.Header().Get(constants.HeaderWWWAuthenticate))
		})
	}
}

func TestOptionalAuthNeverRejects(t *testing.T) {
	m := NewJWTMiddleware(service.NewJWTService("secret", time.Hour))
	r := gin.New()
	r.GET("/", m.OptionalAuth(), func(c *gin.Context) {
		_, ok := CurrentClaims(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})

	w := serve(r, http.MethodGet, "/", "", http.Header{"Authorization": {"Bearer junk"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authenticated":false}`, w.Body.String())
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.GET("/", rl.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", "", nil).Code)
	w := serve(r, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodGet, "/", "", nil).Code)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, rl.Prune())
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", "", nil).Code)
}

func TestCorrelationMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(DefaultContextMiddleware("test", time.Second)...)
	r.GET("/", func(c *gin.Context) {
		ctx := c.Request.Context()
		_, hasDeadline := ctx.Deadline()
		c.JSON(http.StatusOK, gin.H{
			"request":     ctxutil.GetRequestID(ctx),
			"correlation": ctxutil.GetCorrelationID(ctx),
			"module":      ctxutil.GetModule(ctx),
			"deadline":    hasDeadline,
		})
	})

	w := serve(r, http.MethodGet, "/", "", http.Header{constants.HeaderXRequestID: {"req-1"}})
	assert.JSONEq(t, `{"request":"req-1","correlation":"req-1","module":"test","deadline":true}`, w.Body.String())
	assert.Equal(t, "req-1", w.Header().Get(constants.HeaderXRequestID))

	w = serve(r, http.MethodGet, "/", "", nil)
	_, err := uuid.Parse(w.Header().Get(constants.HeaderXRequestID))
	assert.NoError(t, err)
}

func TestRecoveryAndCORS(t *testing.T) {
	r := gin.New()
	r.Use(RecoveryMiddleware(), CORS())
	r.GET("/panic", func(*gin.Context) { panic("boom") })

	w := serve(r, http.MethodGet, "/panic", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")

	w = serve(r, http.MethodOptions, "/panic", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
