package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/koinonia-app/backend/internal/apperr"
	"github.com/koinonia-app/backend/internal/chat"
	"github.com/koinonia-app/backend/internal/middleware"
)

// MessageHandler serves bounded chat history over HTTP. Sending happens on
// the socket; history is a plain read.
type MessageHandler struct {
	relay *chat.Relay
}

func NewMessageHandler(relay *chat.Relay) *MessageHandler {
	return &MessageHandler{relay: relay}
}

func (h *MessageHandler) GetRoomHistory(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	messages, err := h.relay.RoomHistory(roomID)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": "failed to load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *MessageHandler) GetConversationHistory(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	if err := h.relay.AuthorizeParticipant(conversationID, userID); err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	messages, err := h.relay.ConversationHistory(conversationID)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": "failed to load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
