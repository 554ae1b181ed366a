package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/koinonia-app/backend/internal/broadcast"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	maxMessageSize = 64 * 1024
)

// IntentHandler reacts to decoded client frames. Returned errors are sent
// back to the originating connection as error events, never broadcast.
type IntentHandler interface {
	HandleIntent(client *Client, msg *ClientMessage) error
}

type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
	Rooms  map[uuid.UUID]bool
	Hub    *Hub
	mu     sync.RWMutex
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		ID:     uuid.New(),
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		Rooms:  make(map[uuid.UUID]bool),
		Hub:    hub,
	}
}

// ReadPump decodes frames and hands them to the handler until the connection
// drops, then unregisters the client.
func (c *Client) ReadPump(handler IntentHandler) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg ClientMessage
		if err := c.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("conn", c.ID.String()).Msg("websocket read error")
			}
			break
		}

		if msg.Type == IntentPong {
			c.Conn.SetReadDeadline(time.Now().Add(pongWait))
			continue
		}

		if handler == nil {
			continue
		}
		if err := handler.HandleIntent(c, &msg); err != nil {
			c.SendError(err.Error())
		}
	}
}

// WritePump drains the send queue onto the wire.
func (c *Client) WritePump() {
	ticker := time.NewTicker((pongWait * 9) / 10)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendEvent queues one event for this connection only.
func (c *Client) SendEvent(event broadcast.Event, payload interface{}) {
	if data, ok := encode(event, payload); ok {
		c.trySend(data)
	}
}

func (c *Client) SendError(errorMsg string) {
	c.SendEvent(broadcast.EventError, map[string]string{"error": errorMsg})
}

func (c *Client) trySend(data []byte) {
	select {
	case c.Send <- data:
	default:
		log.Warn().Str("conn", c.ID.String()).Msg("client send queue full, dropping event")
	}
}

func (c *Client) IsInRoom(roomID uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Rooms[roomID]
}
