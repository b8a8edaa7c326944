package handler

import (
	"net/http"

	"peerhaven/backend/internal/models"
	"peerhaven/backend/internal/synchub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allows connections from any origin. Lock down in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades a staff connection and registers it with the hub.
// The client then drives its own channel subscriptions over the socket.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	staff, err := h.staffFromRequest(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token or expired"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	client := &synchub.WebSocketClient{
		Hub:     h.Hub,
		StaffID: staff.ID,
		Conn:    conn,
		Send:    make(chan models.Event, 256),
	}

	h.Hub.RegisterCh <- client
	client.Run()
}
