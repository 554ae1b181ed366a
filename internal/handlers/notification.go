package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/koinonia-app/backend/internal/apperr"
	"github.com/koinonia-app/backend/internal/middleware"
	"github.com/koinonia-app/backend/internal/notify"
)

const notificationListLimit = 50

type NotificationHandler struct {
	dispatcher *notify.Dispatcher
}

func NewNotificationHandler(dispatcher *notify.Dispatcher) *NotificationHandler {
	return &NotificationHandler{dispatcher: dispatcher}
}

func (h *NotificationHandler) List(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	notifications, err := h.dispatcher.List(userID, notificationListLimit)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": "failed to load notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}
	if err := h.dispatcher.MarkRead(id); err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": "failed to mark read"})
		return
	}
	c.Status(http.StatusOK)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	if err := h.dispatcher.MarkAllRead(userID); err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": "failed to mark all read"})
		return
	}
	c.Status(http.StatusOK)
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}
	if err := h.dispatcher.Delete(id); err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": "failed to delete notification"})
		return
	}
	c.Status(http.StatusOK)
}
