package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Payphone-Digital/content-api/config"
	"github.com/Payphone-Digital/content-api/internal/constants"
	"github.com/Payphone-Digital/content-api/internal/handler"
	"github.com/Payphone-Digital/content-api/internal/listquery"
	"github.com/Payphone-Digital/content-api/internal/middleware"
)

// Schemas are the list schemas the list endpoints validate against
type Schemas struct {
	Blogs    *listquery.Schema
	Posts    *listquery.Schema
	Products *listquery.Schema
}

type Router struct {
	blogHandler    *handler.BlogHandler
	postHandler    *handler.PostHandler
	productHandler *handler.ProductHandler
	cacheHandler   *handler.CacheHandler
	healthHandler  *handler.HealthHandler
	// cronHandler is nil when the scheduler is disabled
	cronHandler *handler.CronHandler

	schemas     Schemas
	validMw     *middleware.ValidationMiddleware
	jwtMw       *middleware.JWTMiddleware
	rateLimiter *middleware.RateLimiter
	Config      *config.Config
}

type Handlers struct {
	Blog    *handler.BlogHandler
	Post    *handler.PostHandler
	Product *handler.ProductHandler
	Cache   *handler.CacheHandler
	Health  *handler.HealthHandler
	Cron    *handler.CronHandler
}

func NewRouter(
	handlers Handlers,
	schemas Schemas,
	validMw *middleware.ValidationMiddleware,
	jwtMw *middleware.JWTMiddleware,
	rateLimiter *middleware.RateLimiter,
	config *config.Config,
) *Router {
	return &Router{
		blogHandler:    handlers.Blog,
		postHandler:    handlers.Post,
		productHandler: handlers.Product,
		cacheHandler:   handlers.Cache,
		healthHandler:  handlers.Health,
		cronHandler:    handlers.Cron,

		schemas:     schemas,
		validMw:     validMw,
		jwtMw:       jwtMw,
		rateLimiter: rateLimiter,
		Config:      config,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware())
	if r.Config.App.Environment == constants.EnvProduction {
		router.Use(middleware.LoggingMiddleware())
	} else {
		router.Use(middleware.RequestResponseMiddleware())
	}
	router.Use(middleware.CORS())
	router.Use(middleware.DefaultContextMiddleware("api", r.Config.App.Timeout)...)

	api := router.Group("/api")
	{
		r.healthRoutes(api)

		v1 := api.Group("/v1")
		{
			if r.rateLimiter != nil {
				v1.Use(r.rateLimiter.Handler())
			}

			r.blogRoutes(v1)
			r.postRoutes(v1)
			r.productRoutes(v1)
			r.cacheRoutes(v1)
			r.cronRoutes(v1)
		}
	}

	return router
}

func (r *Router) healthRoutes(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	{
		health.GET("", r.healthHandler.BasicHealth)
		health.GET("/ready", r.healthHandler.Readiness)
	}
}
