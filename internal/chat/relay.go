// Package chat persists and fans out room and direct messages.
package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/koinonia-app/backend/internal/apperr"
	"github.com/koinonia-app/backend/internal/broadcast"
	"github.com/koinonia-app/backend/internal/models"
)

// HistoryLimit caps history reads. This is a bounded read, not a cursor.
const HistoryLimit = 100

type Store interface {
	SaveRoomMessage(m *models.RoomMessage) error
	GetRoomMessage(id uuid.UUID) (*models.RoomMessage, error)
	DeleteRoomMessage(id uuid.UUID) error
	RoomHistory(roomID uuid.UUID, limit int) ([]models.RoomMessage, error)

	GetConversation(id uuid.UUID) (*models.Conversation, error)
	SaveDirectMessage(m *models.DirectMessage) error
	ConversationHistory(conversationID uuid.UUID, limit int) ([]models.DirectMessage, error)
}

// DeletedPayload is the message_deleted event body.
type DeletedPayload struct {
	MessageID uuid.UUID `json:"message_id"`
	RoomID    uuid.UUID `json:"room_id"`
}

type Relay struct {
	store Store
	pub   broadcast.Publisher
}

func NewRelay(store Store, pub broadcast.Publisher) *Relay {
	return &Relay{store: store, pub: pub}
}

// SendRoomMessage persists the message and broadcasts it to every connection
// in the room, the sender's own included.
func (r *Relay) SendRoomMessage(roomID uuid.UUID, sender models.UserSnapshot, text string) (*models.RoomMessage, error) {
	if sender.UserID == uuid.Nil || sender.Username == "" {
		return nil, apperr.New(apperr.Validation, "sender identity is required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperr.New(apperr.Validation, "message text is required")
	}

	msg := &models.RoomMessage{
		RoomID:       roomID,
		SenderID:     sender.UserID,
		SenderName:   sender.Username,
		SenderAvatar: sender.AvatarURL,
		Content:      text,
		CreatedAt:    time.Now(),
	}
	if err := r.store.SaveRoomMessage(msg); err != nil {
		return nil, apperr.Wrap(apperr.Persistence, err, "failed to save message")
	}

	r.pub.PublishRoom(roomID, broadcast.EventChatMessage, msg)
	return msg, nil
}

// SendDirectMessage resolves the conversation's other participant, persists
// the message tagged with both parties, and pushes it to each of them.
func (r *Relay) SendDirectMessage(conversationID uuid.UUID, sender models.UserSnapshot, text string) (*models.DirectMessage, error) {
	if sender.UserID == uuid.Nil || sender.Username == "" {
		return nil, apperr.New(apperr.Validation, "sender identity is required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperr.New(apperr.Validation, "message text is required")
	}

	conv, err := r.store.GetConversation(conversationID)
	if err != nil {
		return nil, err
	}
	receiver := conv.OtherParticipant(sender.UserID)
	if receiver == uuid.Nil {
		return nil, apperr.New(apperr.Forbidden, "sender is not part of this conversation")
	}

	msg := &models.DirectMessage{
		ConversationID: conversationID,
		SenderID:       sender.UserID,
		SenderName:     sender.Username,
		SenderAvatar:   sender.AvatarURL,
		ReceiverID:     receiver,
		Content:        text,
		CreatedAt:      time.Now(),
	}
	if err := r.store.SaveDirectMessage(msg); err != nil {
		return nil, apperr.Wrap(apperr.Persistence, err, "failed to save direct message")
	}

	r.pub.PublishUser(receiver, broadcast.EventChatMessage, msg)
	r.pub.PublishUser(sender.UserID, broadcast.EventChatMessage, msg)
	return msg, nil
}

// DeleteMessage removes a room message. Only the original sender may delete;
// the deletion event goes to the whole room, requester included, as the
// confirmation.
func (r *Relay) DeleteMessage(messageID, requesterID, roomID uuid.UUID) error {
	msg, err := r.store.GetRoomMessage(messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != requesterID {
		return apperr.New(apperr.Forbidden, "only the sender can delete a message")
	}
	if err := r.store.DeleteRoomMessage(messageID); err != nil {
		return apperr.Wrap(apperr.Persistence, err, "failed to delete message")
	}

	r.pub.PublishRoom(roomID, broadcast.EventMessageDeleted, DeletedPayload{
		MessageID: messageID,
		RoomID:    roomID,
	})
	return nil
}

// AuthorizeParticipant verifies userID belongs to the conversation.
func (r *Relay) AuthorizeParticipant(conversationID, userID uuid.UUID) error {
	conv, err := r.store.GetConversation(conversationID)
	if err != nil {
		return err
	}
	if conv.InitiatorID != userID && conv.RecipientID != userID {
		return apperr.New(apperr.Forbidden, "not a participant of this conversation")
	}
	return nil
}

// RoomHistory returns up to HistoryLimit most recent messages, oldest first.
func (r *Relay) RoomHistory(roomID uuid.UUID) ([]models.RoomMessage, error) {
	return r.store.RoomHistory(roomID, HistoryLimit)
}

// ConversationHistory returns up to HistoryLimit most recent direct messages,
// oldest first.
func (r *Relay) ConversationHistory(conversationID uuid.UUID) ([]models.DirectMessage, error) {
	return r.store.ConversationHistory(conversationID, HistoryLimit)
}
