package router

import "github.com/gin-gonic/gin"

// cacheRoutes are the list cache management endpoints
func (r *Router) cacheRoutes(version *gin.RouterGroup) {
	cache := version.Group("/cache")
	cache.Use(r.jwtMw.RequireAuth())
	{
		cache.GET("/stats", r.cacheHandler.Stats)
		cache.DELETE("/lists/:entity", r.cacheHandler.InvalidateLists)
	}
}

func (r *Router) cronRoutes(version *gin.RouterGroup) {
	if r.cronHandler == nil {
		return
	}

	cron := version.Group("/cron")
	cron.Use(r.jwtMw.RequireAuth())
	{
		cron.GET("", r.cronHandler.List)
		cron.GET("/:name", r.cronHandler.Get)
		cron.POST("/:name/stop", r.cronHandler.Stop)
		cron.POST("/:name/start", r.cronHandler.Start)
		cron.POST("/:name/trigger", r.cronHandler.Trigger)
	}
}
