package routes

import (
	"socialhub/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterRealtimeRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc, rc *controllers.RealtimeController) {
	rg.GET("/ws", auth, rc.Connect)
}
