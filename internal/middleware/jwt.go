package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Payphone-Digital/content-api/internal/constants"
	"github.com/Payphone-Digital/content-api/internal/service"
	ctxutil "github.com/Payphone-Digital/content-api/pkg/context"
	"github.com/Payphone-Digital/content-api/pkg/logger"
)

type JWTMiddleware struct {
	jwtService *service.JWTService
}

func NewJWTMiddleware(jwtService *service.JWTService) *JWTMiddleware {
	return &JWTMiddleware{jwtService: jwtService}
}

func bearerToken(c *gin.Context) (string, bool) {
	scheme, token, ok := strings.Cut(c.GetHeader(constants.HeaderAuthorization), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func unauthorized(c *gin.Context) {
	c.Header(constants.HeaderWWWAuthenticate, `Bearer realm="content-api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, constants.BuildErrorResponse(constants.MsgUnauthorized, nil))
}

// setClaims exposes the token identity to handlers and to context logging
func setClaims(c *gin.Context, claims *service.Claims) {
	c.Set(constants.GinKeyClaims, claims)
	c.Set(constants.GinKeyUserID, claims.Subject)
	c.Set(constants.GinKeyEmail, claims.Email)
	c.Set(constants.GinKeyName, claims.Name)

	ctx := ctxutil.WithUserID(c.Request.Context(), claims.Subject)
	if claims.Email != "" {
		ctx = ctxutil.WithUserLogin(ctx, claims.Email)
	}
	c.Request = c.Request.WithContext(ctx)
}

// RequireAuth validates the bearer token and rejects the request without one
func (m *JWTMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			logger.GetLogger().Warn("Missing or malformed Authorization header",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method))
			logger.LogAuth("", "authenticate", false, zap.String("reason", "missing_token"))
			unauthorized(c)
			return
		}

		claims, err := m.jwtService.ValidateToken(token)
		if err != nil {
			logger.GetLogger().Warn("Invalid or expired token",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.Error(err))
			logger.LogAuth("", "authenticate", false, zap.String("reason", "invalid_token"))
			unauthorized(c)
			return
		}

		setClaims(c, claims)

		logger.GetLogger().Debug("User authenticated successfully",
			zap.String("user_id", claims.Subject),
			zap.String("email", claims.Email),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method))

		c.Next()
	}
}

// OptionalAuth records the identity of a valid token but never rejects
func (m *JWTMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}
		if claims, err := m.jwtService.ValidateToken(token); err == nil {
			setClaims(c, claims)
		}
		c.Next()
	}
}

// CurrentClaims returns the claims stored by RequireAuth or OptionalAuth
func CurrentClaims(c *gin.Context) (*service.Claims, bool) {
	v, ok := c.Get(constants.GinKeyClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*service.Claims)
	return claims, ok
}
