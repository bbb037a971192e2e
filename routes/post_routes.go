package routes

import (
	"socialhub/controllers"
	"socialhub/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterPostRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc, limiter *middleware.RateLimiter, pc *controllers.PostController) {
	posts := rg.Group("/posts")
	posts.Use(auth)
	{
		posts.POST("", limiter.Middleware(), pc.Create)
		posts.POST("/media", limiter.Middleware(), pc.UploadMedia)
		posts.GET("/:id", middleware.ObjectIDParams("id"), pc.Get)

		actions := posts.Group("/:id")
		actions.Use(middleware.ObjectIDParams("id"), limiter.Middleware())
		{
			actions.POST("/like", pc.Like)
			actions.DELETE("/like", pc.Unlike)
			actions.POST("/comments", pc.AddComment)
			actions.DELETE("/comments/:commentId", middleware.ObjectIDParams("commentId"), pc.DeleteComment)
		}
	}
}
