// Package broadcast abstracts real-time fan-out so the presence core never
// touches a concrete transport. The websocket hub implements Publisher for a
// single process; the NATS bridge relays the same calls across instances.
package broadcast

import "github.com/google/uuid"

type Event string

const (
	EventOnlineUsers    Event = "online_users"
	EventRoomRoster     Event = "room_roster"
	EventRoomLive       Event = "room_live"
	EventChatMessage    Event = "chat_message"
	EventMessageDeleted Event = "message_deleted"
	EventNotification   Event = "notification"
	EventError          Event = "error"
)

// Publisher delivers an event to a scope. Delivery is best-effort: callers
// persist first and never depend on a publish succeeding.
type Publisher interface {
	PublishRoom(roomID uuid.UUID, event Event, payload interface{})
	PublishUser(userID uuid.UUID, event Event, payload interface{})
	PublishAll(event Event, payload interface{})
}
