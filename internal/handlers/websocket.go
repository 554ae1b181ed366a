package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/koinonia-app/backend/internal/middleware"
	ws "github.com/koinonia-app/backend/internal/websocket"
)

type WebSocketHandler struct {
	hub      *ws.Hub
	intents  *SocketHandler
	upgrader websocket.Upgrader
}

func NewWebSocketHandler(hub *ws.Hub, intents *SocketHandler) *WebSocketHandler {
	return &WebSocketHandler{
		hub:     hub,
		intents: intents,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// TODO: restrict origin in prod
				return true
			},
		},
	}
}

// HandleWebSocket upgrades an authenticated request to a socket connection.
// The identity is taken from the verified token; the client completes the
// handshake with an auth intent carrying its profile snapshot.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(h.hub, conn, userID.(uuid.UUID))
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.intents)
}
