package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/koinonia-app/backend/internal/apperr"
	"github.com/koinonia-app/backend/internal/database"
	"github.com/koinonia-app/backend/internal/middleware"
	"github.com/koinonia-app/backend/internal/models"
	"github.com/koinonia-app/backend/internal/presence"
)

type RoomHandler struct {
	db     *database.Database
	roster *presence.Roster
}

func NewRoomHandler(db *database.Database, roster *presence.Roster) *RoomHandler {
	return &RoomHandler{db: db, roster: roster}
}

// CreateRoom creates a room owned by the caller. The owner snapshot is
// denormalized onto the document.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req struct {
		Title    string `json:"title" binding:"required"`
		ImageURL string `json:"image_url"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	owner, err := h.db.GetUser(userID.String())
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": "user not found"})
		return
	}

	room := &models.Room{
		Title:       req.Title,
		ImageURL:    req.ImageURL,
		OwnerID:     owner.ID,
		OwnerName:   owner.Username,
		OwnerAvatar: owner.AvatarURL,
		CreatedAt:   time.Now(),
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot hash password"})
			return
		}
		room.PasswordHash = string(hash)
	}

	if err := h.db.CreateRoom(room); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
		return
	}

	// The owner is also a member.
	_ = h.db.AddMember(models.RoomMember{
		RoomID: room.ID, UserID: owner.ID, Username: owner.Username, AvatarURL: owner.AvatarURL,
	})

	c.JSON(http.StatusCreated, formatRoomResponse(room, nil))
}

// GetRoom returns the room document plus the current real-time roster.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	room, err := h.db.GetRoom(roomID)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": "room not found"})
		return
	}

	c.JSON(http.StatusOK, formatRoomResponse(room, h.roster.Snapshot(roomID)))
}

// JoinRoom records durable membership. Real-time roster entry comes from the
// socket join_room intent, not from here.
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	room, err := h.db.GetRoom(roomID)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": "room not found"})
		return
	}

	if room.PasswordHash != "" {
		var req struct {
			Password string `json:"password"`
		}
		_ = c.ShouldBindJSON(&req)
		if bcrypt.CompareHashAndPassword([]byte(room.PasswordHash), []byte(req.Password)) != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "wrong room password"})
			return
		}
	}

	user, err := h.db.GetUser(userID.String())
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": "user not found"})
		return
	}

	err = h.db.AddMember(models.RoomMember{
		RoomID: roomID, UserID: user.ID, Username: user.Username, AvatarURL: user.AvatarURL,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "joined room"})
}

// LeaveRoom removes durable membership. The owner cannot leave their room.
func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	room, err := h.db.GetRoom(roomID)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": "room not found"})
		return
	}
	if room.OwnerID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner cannot leave the room"})
		return
	}

	if err := h.db.RemoveMember(roomID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to leave room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "left room"})
}

// AddAdmin promotes a member to admin. Owner only.
func (h *RoomHandler) AddAdmin(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.db.GetRoom(roomID)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": "room not found"})
		return
	}
	if room.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the owner can promote admins"})
		return
	}

	target, err := h.db.GetUser(req.UserID)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": "user not found"})
		return
	}

	err = h.db.AddAdmin(models.RoomAdmin{
		RoomID: roomID, UserID: target.ID, Username: target.Username, AvatarURL: target.AvatarURL,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to promote admin"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "admin added"})
}

func formatRoomResponse(room *models.Room, roster []presence.RosterEntry) gin.H {
	resp := gin.H{
		"id":           room.ID,
		"title":        room.Title,
		"image_url":    room.ImageURL,
		"is_live":      room.IsLive,
		"has_password": room.PasswordHash != "",
		"created_at":   room.CreatedAt,
		"owner": gin.H{
			"user_id":    room.OwnerID,
			"username":   room.OwnerName,
			"avatar_url": room.OwnerAvatar,
		},
		"admins":   room.Admins,
		"members":  room.Members,
		"speakers": room.Speakers,
	}
	if roster != nil {
		resp["users_in_room"] = roster
	}
	return resp
}
