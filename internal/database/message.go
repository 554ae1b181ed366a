package database

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/koinonia-app/backend/internal/apperr"
	"github.com/koinonia-app/backend/internal/models"
)

func (d *Database) SaveRoomMessage(m *models.RoomMessage) error {
	return d.db.Create(m).Error
}

func (d *Database) GetRoomMessage(id uuid.UUID) (*models.RoomMessage, error) {
	var m models.RoomMessage
	if err := d.db.First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(apperr.NotFound, err, "message not found")
		}
		return nil, err
	}
	return &m, nil
}

func (d *Database) DeleteRoomMessage(id uuid.UUID) error {
	return d.db.Delete(&models.RoomMessage{}, "id = ?", id).Error
}

// RoomHistory returns the most recent limit messages, oldest first.
func (d *Database) RoomHistory(roomID uuid.UUID, limit int) ([]models.RoomMessage, error) {
	var messages []models.RoomMessage
	err := d.db.
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	reverseRoomMessages(messages)
	return messages, nil
}

func (d *Database) SaveDirectMessage(m *models.DirectMessage) error {
	return d.db.Create(m).Error
}

// ConversationHistory returns the most recent limit direct messages, oldest
// first.
func (d *Database) ConversationHistory(conversationID uuid.UUID, limit int) ([]models.DirectMessage, error) {
	var messages []models.DirectMessage
	err := d.db.
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	reverseDirectMessages(messages)
	return messages, nil
}

func reverseRoomMessages(s []models.RoomMessage) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func reverseDirectMessages(s []models.DirectMessage) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
