package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin policy is enforced by the CORS middleware in front.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// serveRoom upgrades the connection and hands it to the chat room manager.
// Auth already happened in the middleware (token query parameter for
// websocket clients).
func (h *Handler) serveRoom(c *gin.Context) {
	actor, ok := h.mustActor(c)
	if !ok {
		return
	}
	roomID := strings.TrimSpace(c.Param("room_id"))
	if roomID == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid room_id"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader already wrote the HTTP error.
		h.logger.Warn("Websocket upgrade failed",
			zap.String("roomID", roomID),
			zap.String("userID", actor.UserID.String()),
			zap.Error(err),
		)
		return
	}

	h.rooms.Join(conn, actor, roomID)
}
