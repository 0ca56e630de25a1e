package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Payphone-Digital/content-api/internal/constants"
	apperrors "github.com/Payphone-Digital/content-api/internal/errors"
	"github.com/Payphone-Digital/content-api/internal/listquery"
	"github.com/Payphone-Digital/content-api/pkg/logger"
	"github.com/Payphone-Digital/content-api/pkg/querystring"
	"github.com/Payphone-Digital/content-api/pkg/validation"
)

type ValidationMiddleware struct {
	validate *validator.Validate
}

func NewValidationMiddleware() *ValidationMiddleware {
	validate := validator.New()
	// report body fields by their JSON names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return &ValidationMiddleware{validate: validate}
}

func rejectValidation(c *gin.Context, verr *apperrors.ValidationError) {
	logger.GetLogger().Warn("Middleware: Request validation failed",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
		zap.String("on", verr.On),
		zap.Int("error_count", len(verr.Issues)),
	)
	c.AbortWithStatusJSON(http.StatusBadRequest, constants.BuildValidationErrorResponse(verr))
}

// ValidateRequestBody decodes the JSON body into factory() and validates it.
// The decoded value is stored under constants.GinKeyBody.
func (m *ValidationMiddleware) ValidateRequestBody(factory func() any) gin.HandlerFunc {
	return func(c *gin.Context) {
		var bodyBytes []byte
		if c.Request.Body != nil {
			var err error
			bodyBytes, err = io.ReadAll(c.Request.Body)
			if err != nil {
				logger.GetLogger().Error("Middleware: Failed to read request body",
					zap.String("client_ip", c.ClientIP()),
					zap.String("path", c.Request.URL.Path),
					zap.Error(err),
				)
				c.AbortWithStatusJSON(http.StatusBadRequest, constants.BuildErrorResponse("Failed to read request body", nil))
				return
			}
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var found any
		if err := json.Unmarshal(bodyBytes, &found); err != nil {
			rejectValidation(c, apperrors.NewValidationError("body", string(bodyBytes), []*apperrors.FieldError{
				{Path: "", Message: "request body must be valid JSON"},
			}))
			return
		}
		if _, ok := found.(map[string]any); !ok {
			rejectValidation(c, apperrors.NewValidationError("body", found, []*apperrors.FieldError{
				{Path: "", Message: "request body must be a JSON object"},
			}))
			return
		}

		request := factory()
		if err := json.Unmarshal(bodyBytes, request); err != nil {
			issue := &apperrors.FieldError{Message: "request body has a field of the wrong type"}
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				issue.Path = typeErr.Field
				issue.Message = typeErr.Field + " must be of type " + typeErr.Type.String()
			}
			rejectValidation(c, apperrors.NewValidationError("body", found, []*apperrors.FieldError{issue}))
			return
		}

		if err := m.validate.Struct(request); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				c.AbortWithStatusJSON(http.StatusInternalServerError, constants.BuildErrorResponse(constants.MsgInternalError, nil))
				return
			}
			issues := make([]*apperrors.FieldError, 0, len(verrs))
			for _, e := range verrs {
				msg := validation.DefaultMessage(e.Field(), e.Tag(), e.Param())
				if custom, ok := validation.CustomMessage(e.StructField())[e.Tag()]; ok {
					msg = custom
				}
				issues = append(issues, &apperrors.FieldError{
					Path:    e.Field(),
					Message: msg,
					Value:   e.Value(),
				})
			}
			rejectValidation(c, apperrors.NewValidationError("body", found, issues))
			return
		}

		c.Set(constants.GinKeyBody, request)
		c.Next()
	}
}

// ValidateIDParam requires the named path parameter to be a UUID. The parsed
// value is stored under constants.GinKeyID.
func (m *ValidationMiddleware) ValidateIDParam(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param(name)
		id, err := uuid.Parse(raw)
		if err != nil {
			rejectValidation(c, apperrors.NewValidationError("params", map[string]string{name: raw}, []*apperrors.FieldError{
				{Path: name, Message: validation.DefaultMessage(name, "uuid", ""), Value: raw},
			}))
			return
		}
		c.Set(constants.GinKeyID, id)
		c.Next()
	}
}

func parseRawQuery(c *gin.Context) (*querystring.Node, bool) {
	tree, err := querystring.Parse(c.Request.URL.RawQuery)
	if err != nil {
		rejectValidation(c, apperrors.NewValidationError("query", c.Request.URL.RawQuery, []*apperrors.FieldError{
			{Path: "", Message: err.Error()},
		}))
		return nil, false
	}
	return tree, true
}

func rejectQuery(c *gin.Context, err error) {
	if verr := apperrors.GetValidationError(err); verr != nil {
		rejectValidation(c, verr)
		return
	}
	c.AbortWithStatusJSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
}

// ListQuery validates page, limit, select, sort, filter and include against
// schema and stores the descriptor under constants.GinKeyListQuery.
func (m *ValidationMiddleware) ListQuery(schema *listquery.Schema) gin.HandlerFunc {
	return func(c *gin.Context) {
		tree, ok := parseRawQuery(c)
		if !ok {
			return
		}
		d, err := listquery.ParseQuery(tree, schema)
		if err != nil {
			rejectQuery(c, err)
			return
		}
		c.Set(constants.GinKeyListQuery, d)
		c.Next()
	}
}

// CursorQuery is ListQuery for keyset pagination
func (m *ValidationMiddleware) CursorQuery(schema *listquery.Schema) gin.HandlerFunc {
	return func(c *gin.Context) {
		tree, ok := parseRawQuery(c)
		if !ok {
			return
		}
		q, err := listquery.ParseCursorQuery(tree, schema)
		if err != nil {
			rejectQuery(c, err)
			return
		}
		c.Set(constants.GinKeyCursorQuery, q)
		c.Next()
	}
}

// RequestBody returns the body stored by ValidateRequestBody
func RequestBody[T any](c *gin.Context) (*T, bool) {
	v, ok := c.Get(constants.GinKeyBody)
	if !ok {
		return nil, false
	}
	body, ok := v.(*T)
	return body, ok
}

// ResourceID returns the id stored by ValidateIDParam
func ResourceID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(constants.GinKeyID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// ListDescriptor returns the descriptor stored by ListQuery
func ListDescriptor(c *gin.Context) (listquery.Descriptor, bool) {
	v, ok := c.Get(constants.GinKeyListQuery)
	if !ok {
		return listquery.Descriptor{}, false
	}
	d, ok := v.(listquery.Descriptor)
	return d, ok
}

// CursorDescriptor returns the query stored by CursorQuery
func CursorDescriptor(c *gin.Context) (listquery.CursorQuery, bool) {
	v, ok := c.Get(constants.GinKeyCursorQuery)
	if !ok {
		return listquery.CursorQuery{}, false
	}
	q, ok := v.(listquery.CursorQuery)
	return q, ok
}
