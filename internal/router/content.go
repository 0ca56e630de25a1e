package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Payphone-Digital/content-api/internal/dto"
)

func (r *Router) blogRoutes(version *gin.RouterGroup) {
	id := r.validMw.ValidateIDParam("id")

	blogs := version.Group("/blogs")
	{
		blogs.GET("", r.validMw.ListQuery(r.schemas.Blogs), r.blogHandler.List)
		blogs.GET("/:id", id, r.blogHandler.GetByID)
		blogs.POST("", r.validMw.ValidateRequestBody(func() any { return &dto.CreateBlogRequest{} }), r.blogHandler.Create)
		blogs.PUT("/:id", id, r.validMw.ValidateRequestBody(func() any { return &dto.UpdateBlogRequest{} }), r.blogHandler.Update)
		blogs.DELETE("/:id", id, r.blogHandler.Delete)
	}
}

func (r *Router) postRoutes(version *gin.RouterGroup) {
	id := r.validMw.ValidateIDParam("id")

	posts := version.Group("/posts")
	{
		posts.GET("", r.validMw.ListQuery(r.schemas.Posts), r.postHandler.List)
		posts.GET("/cursor", r.validMw.CursorQuery(r.schemas.Posts), r.postHandler.ListAfter)
		posts.GET("/:id", id, r.postHandler.GetByID)

		// Writes require a bearer token
		protected := posts.Group("")
		protected.Use(r.jwtMw.RequireAuth())
		{
			protected.POST("", r.validMw.ValidateRequestBody(func() any { return &dto.CreatePostRequest{} }), r.postHandler.Create)
			protected.PUT("/:id", id, r.validMw.ValidateRequestBody(func() any { return &dto.UpdatePostRequest{} }), r.postHandler.Update)
			protected.DELETE("/:id", id, r.postHandler.Delete)
		}
	}
}

func (r *Router) productRoutes(version *gin.RouterGroup) {
	id := r.validMw.ValidateIDParam("id")

	products := version.Group("/products")
	{
		products.GET("", r.validMw.ListQuery(r.schemas.Products), r.productHandler.List)
		products.GET("/:id", id, r.productHandler.GetByID)

		protected := products.Group("")
		protected.Use(r.jwtMw.RequireAuth())
		{
			protected.POST("", r.validMw.ValidateRequestBody(func() any { return &dto.CreateProductRequest{} }), r.productHandler.Create)
			protected.PUT("/:id", id, r.validMw.ValidateRequestBody(func() any { return &dto.UpdateProductRequest{} }), r.productHandler.Update)
			protected.DELETE("/:id", id, r.productHandler.Delete)
		}
	}
}
