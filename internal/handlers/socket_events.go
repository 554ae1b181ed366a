package handlers

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/koinonia-app/backend/internal/apperr"
	"github.com/koinonia-app/backend/internal/chat"
	"github.com/koinonia-app/backend/internal/handlers/dto"
	"github.com/koinonia-app/backend/internal/live"
	"github.com/koinonia-app/backend/internal/models"
	"github.com/koinonia-app/backend/internal/presence"
	ws "github.com/koinonia-app/backend/internal/websocket"
)

// SocketHandler turns decoded client intents into presence, live, and chat
// operations. Errors returned here reach only the originating connection.
type SocketHandler struct {
	registry    *presence.Registry
	roster      *presence.Roster
	coordinator *live.Coordinator
	relay       *chat.Relay
}

func NewSocketHandler(registry *presence.Registry, roster *presence.Roster, coordinator *live.Coordinator, relay *chat.Relay) *SocketHandler {
	return &SocketHandler{registry: registry, roster: roster, coordinator: coordinator, relay: relay}
}

func (h *SocketHandler) HandleIntent(client *ws.Client, msg *ws.ClientMessage) error {
	switch msg.Type {
	case ws.IntentAuth:
		return h.handleAuth(client, msg)
	case ws.IntentJoinRoom:
		return h.handleJoinRoom(client, msg)
	case ws.IntentLeaveRoom:
		return h.handleLeaveRoom(client, msg)
	case ws.IntentMinimizeRoom:
		return h.handleMinimize(client, msg)
	case ws.IntentToggleMic:
		return h.handleToggleMic(client, msg)
	case ws.IntentRoomMessage:
		return h.handleRoomMessage(client, msg)
	case ws.IntentDirectMsg:
		return h.handleDirectMessage(client, msg)
	case ws.IntentDeleteMsg:
		return h.handleDeleteMessage(client, msg)
	case ws.IntentStartLive:
		return h.handleLiveTransition(client, msg, h.coordinator.StartLive)
	case ws.IntentStopLive:
		return h.handleLiveTransition(client, msg, h.coordinator.StopLive)
	case ws.IntentSpeakerJoin:
		return h.handleLiveTransition(client, msg, h.coordinator.SpeakerJoin)
	case ws.IntentSpeakerLeave:
		return h.handleSpeakerLeave(client, msg)
	default:
		log.Debug().Str("type", string(msg.Type)).Msg("unknown intent")
		return nil
	}
}

// Disconnect is wired as the hub's disconnect hook.
func (h *SocketHandler) Disconnect(connID uuid.UUID) {
	h.registry.Disconnect(connID)
}

func (h *SocketHandler) handleAuth(client *ws.Client, msg *ws.ClientMessage) error {
	var payload dto.AuthPayload
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return apperr.New(apperr.Validation, "malformed auth payload")
		}
	}
	return h.registry.Authenticate(client.ID, presence.Identity{
		UserID:    client.UserID,
		Username:  payload.Username,
		AvatarURL: payload.AvatarURL,
	})
}

func (h *SocketHandler) handleJoinRoom(client *ws.Client, msg *ws.ClientMessage) error {
	if msg.RoomID == nil {
		return apperr.New(apperr.Validation, "room_id is required")
	}
	// Subscribe the transport first so the roster broadcast reaches the
	// joining connection too.
	client.Hub.JoinRoom(client, *msg.RoomID)
	if err := h.registry.JoinRoom(client.ID, *msg.RoomID); err != nil {
		client.Hub.LeaveRoom(client, *msg.RoomID)
		return err
	}
	return nil
}

func (h *SocketHandler) handleLeaveRoom(client *ws.Client, msg *ws.ClientMessage) error {
	if msg.RoomID == nil {
		return apperr.New(apperr.Validation, "room_id is required")
	}
	if err := h.registry.LeaveRoom(client.ID, *msg.RoomID); err != nil {
		return err
	}
	client.Hub.LeaveRoom(client, *msg.RoomID)
	return nil
}

func (h *SocketHandler) handleMinimize(client *ws.Client, msg *ws.ClientMessage) error {
	if msg.RoomID == nil {
		return apperr.New(apperr.Validation, "room_id is required")
	}
	var payload dto.MinimizePayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return apperr.New(apperr.Validation, "malformed minimize payload")
	}
	h.roster.SetMinimized(*msg.RoomID, client.UserID, payload.Minimized, payload.MicrophoneOn)
	return nil
}

func (h *SocketHandler) handleToggleMic(client *ws.Client, msg *ws.ClientMessage) error {
	if msg.RoomID == nil {
		return apperr.New(apperr.Validation, "room_id is required")
	}
	var payload dto.ToggleMicPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return apperr.New(apperr.Validation, "malformed toggle payload")
	}
	h.roster.SetMicrophone(*msg.RoomID, client.ID, payload.On)
	return nil
}

func (h *SocketHandler) handleRoomMessage(client *ws.Client, msg *ws.ClientMessage) error {
	if msg.RoomID == nil {
		return apperr.New(apperr.Validation, "room_id is required")
	}
	if !client.IsInRoom(*msg.RoomID) {
		return apperr.New(apperr.Forbidden, "join the room before sending messages")
	}
	ident, ok := h.registry.IdentityOf(client.ID)
	if !ok {
		return apperr.New(apperr.Unauthorized, "connection is not authenticated")
	}
	var payload dto.MessagePayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return apperr.New(apperr.Validation, "malformed message payload")
	}
	_, err := h.relay.SendRoomMessage(*msg.RoomID, snapshot(ident), payload.Content)
	return err
}

func (h *SocketHandler) handleDirectMessage(client *ws.Client, msg *ws.ClientMessage) error {
	if msg.ConversationID == nil {
		return apperr.New(apperr.Validation, "conversation_id is required")
	}
	ident, ok := h.registry.IdentityOf(client.ID)
	if !ok {
		return apperr.New(apperr.Unauthorized, "connection is not authenticated")
	}
	var payload dto.MessagePayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return apperr.New(apperr.Validation, "malformed message payload")
	}
	_, err := h.relay.SendDirectMessage(*msg.ConversationID, snapshot(ident), payload.Content)
	return err
}

func (h *SocketHandler) handleDeleteMessage(client *ws.Client, msg *ws.ClientMessage) error {
	if msg.RoomID == nil {
		return apperr.New(apperr.Validation, "room_id is required")
	}
	var payload dto.DeleteMessagePayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return apperr.New(apperr.Validation, "malformed delete payload")
	}
	return h.relay.DeleteMessage(payload.MessageID, client.UserID, *msg.RoomID)
}

func (h *SocketHandler) handleLiveTransition(client *ws.Client, msg *ws.ClientMessage,
	transition func(uuid.UUID, models.UserSnapshot) (*live.LivePayload, error)) error {
	if msg.RoomID == nil {
		return apperr.New(apperr.Validation, "room_id is required")
	}
	ident, ok := h.registry.IdentityOf(client.ID)
	if !ok {
		return apperr.New(apperr.Unauthorized, "connection is not authenticated")
	}
	_, err := transition(*msg.RoomID, snapshot(ident))
	return err
}

func (h *SocketHandler) handleSpeakerLeave(client *ws.Client, msg *ws.ClientMessage) error {
	if msg.RoomID == nil {
		return apperr.New(apperr.Validation, "room_id is required")
	}
	_, err := h.coordinator.SpeakerLeave(*msg.RoomID, client.UserID)
	return err
}

func snapshot(ident presence.Identity) models.UserSnapshot {
	return models.UserSnapshot{UserID: ident.UserID, Username: ident.Username, AvatarURL: ident.AvatarURL}
}
