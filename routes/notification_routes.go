package routes

import (
	"socialhub/controllers"
	"socialhub/middleware"
	"socialhub/models"

	"github.com/gin-gonic/gin"
)

func RegisterNotificationRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc, nc *controllers.NotificationController) {
	notifications := rg.Group("/notifications")
	notifications.Use(auth)
	{
		notifications.GET("", nc.List)
		notifications.GET("/unseen-count", nc.UnseenCount)
		notifications.POST("/seen", nc.MarkAllSeen)
		notifications.POST("/:id/read", middleware.ObjectIDParams("id"), nc.MarkRead)
		notifications.POST("/announcements", middleware.RequireRole(models.RoleAdmin), nc.Announce)
	}
}
