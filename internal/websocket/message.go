package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/koinonia-app/backend/internal/broadcast"
)

// Intent names the discrete actions a connection can request.
type Intent string

const (
	IntentAuth         Intent = "auth"
	IntentJoinRoom     Intent = "join_room"
	IntentLeaveRoom    Intent = "leave_room"
	IntentMinimizeRoom Intent = "minimize_room"
	IntentToggleMic    Intent = "toggle_mic"
	IntentRoomMessage  Intent = "room_message"
	IntentDirectMsg    Intent = "direct_message"
	IntentDeleteMsg    Intent = "delete_message"
	IntentSpeakerJoin  Intent = "speaker_join"
	IntentStartLive    Intent = "start_live"
	IntentStopLive     Intent = "stop_live"
	IntentSpeakerLeave Intent = "speaker_leave"
	IntentPong         Intent = "pong"
)

// ClientMessage is the inbound wire frame.
type ClientMessage struct {
	Type           Intent          `json:"type"`
	RoomID         *uuid.UUID      `json:"room_id,omitempty"`
	ConversationID *uuid.UUID      `json:"conversation_id,omitempty"`
	Data           json.RawMessage `json:"data,omitempty"`
}

// ServerEvent is the outbound wire frame.
type ServerEvent struct {
	Type      broadcast.Event `json:"type"`
	Payload   interface{}     `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
