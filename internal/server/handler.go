package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	registry *Registry
	logger   *WebSocketLogger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(registry *Registry) *WebSocketHandler {
	return &WebSocketHandler{
		registry: registry,
		logger:   NewWebSocketLogger(),
	}
}

// Handle upgrades HTTP to WebSocket
func (h *WebSocketHandler) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "", c.Request.RemoteAddr, err)
		return
	}

	connID := uuid.New().String()
	client := NewClient(h.registry, conn, connID, *h.logger)

	h.registry.register <- client
}
