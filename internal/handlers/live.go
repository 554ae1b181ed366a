package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/koinonia-app/backend/internal/apperr"
	"github.com/koinonia-app/backend/internal/database"
	"github.com/koinonia-app/backend/internal/live"
	"github.com/koinonia-app/backend/internal/middleware"
	"github.com/koinonia-app/backend/internal/models"
)

// LiveHandler exposes the live/speaker transitions over HTTP. It drives the
// same coordinator as the socket intents, so both surfaces converge on the
// persisted room document.
type LiveHandler struct {
	db          *database.Database
	coordinator *live.Coordinator
}

func NewLiveHandler(db *database.Database, coordinator *live.Coordinator) *LiveHandler {
	return &LiveHandler{db: db, coordinator: coordinator}
}

func (h *LiveHandler) StartLive(c *gin.Context) {
	h.transition(c, h.coordinator.StartLive)
}

func (h *LiveHandler) StopLive(c *gin.Context) {
	h.transition(c, h.coordinator.StopLive)
}

func (h *LiveHandler) SpeakerJoin(c *gin.Context) {
	h.transition(c, h.coordinator.SpeakerJoin)
}

func (h *LiveHandler) SpeakerLeave(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	payload, err := h.coordinator.SpeakerLeave(roomID, userID)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (h *LiveHandler) transition(c *gin.Context, fn func(uuid.UUID, models.UserSnapshot) (*live.LivePayload, error)) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	user, err := h.db.GetUser(userID.String())
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": "user not found"})
		return
	}

	payload, err := fn(roomID, user.Snapshot())
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, payload)
}
