package routes

import (
	"socialhub/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterAuthRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc, authController *controllers.AuthController) {
	protected := rg.Group("/auth")
	protected.Use(auth)
	{
		protected.GET("/me", authController.GetUserProfile)
		protected.POST("/refresh", authController.RefreshToken)
		protected.GET("/validate", authController.ValidateToken)
	}
}
