package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/koinonia-app/backend/internal/apperr"
	"github.com/koinonia-app/backend/internal/database"
	"github.com/koinonia-app/backend/internal/middleware"
	"github.com/koinonia-app/backend/internal/models"
	"github.com/koinonia-app/backend/internal/notify"
)

// ConversationHandler drives the direct-message invitation flow. Creating a
// conversation notifies the recipient; accepting or rejecting retracts the
// pending invitation notification.
type ConversationHandler struct {
	db         *database.Database
	dispatcher *notify.Dispatcher
}

func NewConversationHandler(db *database.Database, dispatcher *notify.Dispatcher) *ConversationHandler {
	return &ConversationHandler{db: db, dispatcher: dispatcher}
}

func (h *ConversationHandler) Create(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	targetID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if targetID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot start a conversation with yourself"})
		return
	}

	if existing, err := h.db.FindConversation(userID, targetID); err == nil {
		c.JSON(http.StatusOK, existing)
		return
	}

	sender, err := h.db.GetUser(userID.String())
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": "user not found"})
		return
	}
	if _, err := h.db.GetUser(targetID.String()); err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": "user not found"})
		return
	}

	conv := &models.Conversation{
		InitiatorID: userID,
		RecipientID: targetID,
		CreatedAt:   time.Now(),
	}
	if err := h.db.CreateConversation(conv); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create conversation"})
		return
	}

	err = h.dispatcher.Notify(&models.Notification{
		RecipientID:    targetID,
		SenderID:       userID,
		Type:           models.NotificationChatInvite,
		Content:        sender.Username + " invited you to chat",
		ConversationID: &conv.ID,
	})
	if err != nil {
		// The conversation exists either way; a duplicate invitation is the
		// only expected failure here.
		if !apperr.Is(err, apperr.Conflict) {
			c.JSON(apperr.HTTPStatus(err), gin.H{"error": "failed to send invitation"})
			return
		}
	}

	c.JSON(http.StatusCreated, conv)
}

func (h *ConversationHandler) Accept(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	conv, ok := h.loadForRecipient(c, userID)
	if !ok {
		return
	}

	if err := h.db.AcceptConversation(conv.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to accept conversation"})
		return
	}
	h.retractInvite(userID, conv.ID)

	c.JSON(http.StatusOK, gin.H{"message": "conversation accepted"})
}

func (h *ConversationHandler) Reject(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	conv, ok := h.loadForRecipient(c, userID)
	if !ok {
		return
	}

	if err := h.db.DeleteConversation(conv.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reject conversation"})
		return
	}
	h.retractInvite(userID, conv.ID)

	c.JSON(http.StatusOK, gin.H{"message": "conversation rejected"})
}

func (h *ConversationHandler) loadForRecipient(c *gin.Context, userID uuid.UUID) (*models.Conversation, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return nil, false
	}

	conv, err := h.db.GetConversation(id)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": "conversation not found"})
		return nil, false
	}
	if conv.RecipientID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the invited user can resolve the invitation"})
		return nil, false
	}
	return conv, true
}

func (h *ConversationHandler) retractInvite(recipientID, conversationID uuid.UUID) {
	if err := h.dispatcher.RetractChatInvite(recipientID, conversationID); err != nil {
		log.Warn().Err(err).Str("conversation", conversationID.String()).
			Msg("failed to retract invitation notification")
	}
}
