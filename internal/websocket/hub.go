// Package websocket is the transport: it owns raw connections, per-room
// routing, and the write pumps. It implements broadcast.Publisher so the rest
// of the system never sees a *websocket.Conn.
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/koinonia-app/backend/internal/broadcast"
	"github.com/koinonia-app/backend/internal/metrics"
)

type Hub struct {
	clients     map[uuid.UUID]*Client
	userClients map[uuid.UUID]map[uuid.UUID]*Client
	rooms       map[uuid.UUID]map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client

	// onDisconnect runs after a client is dropped so the presence registry
	// can clean up. Set once before Run.
	onDisconnect func(connID uuid.UUID)

	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[uuid.UUID]map[uuid.UUID]*Client),
		rooms:       make(map[uuid.UUID]map[uuid.UUID]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (h *Hub) OnDisconnect(fn func(connID uuid.UUID)) { h.onDisconnect = fn }

func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case <-ticker.C:
			h.ping()
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range h.clients {
		close(client.Send)
		client.Conn.Close()
	}
}

func (h *Hub) Register(client *Client)   { h.register <- client }
func (h *Hub) Unregister(client *Client) { h.unregister <- client }

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	if _, ok := h.userClients[client.UserID]; !ok {
		h.userClients[client.UserID] = make(map[uuid.UUID]*Client)
	}
	h.userClients[client.UserID][client.ID] = client
	h.mu.Unlock()

	metrics.WsConnections.Inc()
	log.Debug().Str("conn", client.ID.String()).Str("user", client.UserID.String()).
		Msg("client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.ID]; !ok {
		h.mu.Unlock()
		return
	}
	for roomID := range client.Rooms {
		h.removeFromRoomUnsafe(client, roomID)
	}
	if userClients, ok := h.userClients[client.UserID]; ok {
		delete(userClients, client.ID)
		if len(userClients) == 0 {
			delete(h.userClients, client.UserID)
		}
	}
	delete(h.clients, client.ID)
	close(client.Send)
	h.mu.Unlock()

	metrics.WsConnections.Dec()
	log.Debug().Str("conn", client.ID.String()).Str("user", client.UserID.String()).
		Msg("client unregistered")

	if h.onDisconnect != nil {
		h.onDisconnect(client.ID)
	}
}

// JoinRoom subscribes the connection to the room's event stream.
func (h *Hub) JoinRoom(client *Client, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[uuid.UUID]*Client)
	}
	h.rooms[roomID][client.ID] = client

	client.mu.Lock()
	client.Rooms[roomID] = true
	client.mu.Unlock()
}

// LeaveRoom unsubscribes the connection from the room's event stream.
func (h *Hub) LeaveRoom(client *Client, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoomUnsafe(client, roomID)
}

func (h *Hub) removeFromRoomUnsafe(client *Client, roomID uuid.UUID) {
	room, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(room, client.ID)
	if len(room) == 0 {
		delete(h.rooms, roomID)
	}
	client.mu.Lock()
	delete(client.Rooms, roomID)
	client.mu.Unlock()
}

// PublishRoom sends the event to every connection subscribed to the room.
func (h *Hub) PublishRoom(roomID uuid.UUID, event broadcast.Event, payload interface{}) {
	data, ok := encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.rooms[roomID] {
		client.trySend(data)
	}
	metrics.EventsPublished.WithLabelValues(string(event)).Inc()
}

// PublishUser sends the event to every connection of one user.
func (h *Hub) PublishUser(userID uuid.UUID, event broadcast.Event, payload interface{}) {
	data, ok := encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.userClients[userID] {
		client.trySend(data)
	}
	metrics.EventsPublished.WithLabelValues(string(event)).Inc()
}

// PublishAll sends the event to every connection.
func (h *Hub) PublishAll(event broadcast.Event, payload interface{}) {
	data, ok := encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		client.trySend(data)
	}
	metrics.EventsPublished.WithLabelValues(string(event)).Inc()
}

func (h *Hub) ping() {
	data, ok := encode("ping", nil)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		client.trySend(data)
	}
}

func encode(event broadcast.Event, payload interface{}) ([]byte, bool) {
	data, err := json.Marshal(ServerEvent{Type: event, Payload: payload, Timestamp: time.Now()})
	if err != nil {
		log.Error().Err(err).Str("event", string(event)).Msg("failed to encode server event")
		return nil, false
	}
	return data, true
}
