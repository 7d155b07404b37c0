package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/ilmarsk/notehub/internal/logger"
	"github.com/ilmarsk/notehub/internal/response"
	ws "github.com/ilmarsk/notehub/internal/websocket"
)

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checks belong to the auth layer in front of this service.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler attaches websocket sessions to the update hub.
type WSHandler struct {
	hub *ws.Hub
}

// NewWSHandler creates the websocket handler.
func NewWSHandler(hub *ws.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// Attach upgrades the connection and registers the session so the user
// receives note change hints.
// GET /api/v1/ws?user_id=1
func (h *WSHandler) Attach(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Query("user_id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "user_id must be a positive integer")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnf("websocket upgrade failed: %v", err)
		return
	}

	client := ws.NewClient(uint(userID), conn, h.hub)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
