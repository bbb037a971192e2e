package controllers

import (
	"net/http"

	"socialhub/middleware"
	"socialhub/utils"

	"github.com/gin-gonic/gin"
)

// SocketServer upgrades an authenticated request to a live connection.
type SocketServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID string) error
}

type RealtimeController struct {
	sockets SocketServer
}

func NewRealtimeController(sockets SocketServer) *RealtimeController {
	return &RealtimeController{sockets: sockets}
}

// Connect handles GET /ws. The handshake is rejected by the upgrader itself
// when it fails, so errors are only logged.
func (rc *RealtimeController) Connect(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	if err := rc.sockets.ServeWS(c.Writer, c.Request, userID.Hex()); err != nil {
		l := utils.Logger("realtime")
		l.Warn().Err(err).Str("user_id", userID.Hex()).Msg("websocket upgrade failed")
	}
}
