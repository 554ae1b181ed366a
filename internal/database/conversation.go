package database

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/koinonia-app/backend/internal/apperr"
	"github.com/koinonia-app/backend/internal/models"
)

func (d *Database) CreateConversation(c *models.Conversation) error {
	return d.db.Create(c).Error
}

func (d *Database) GetConversation(id uuid.UUID) (*models.Conversation, error) {
	var c models.Conversation
	if err := d.db.First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(apperr.NotFound, err, "conversation not found")
		}
		return nil, err
	}
	return &c, nil
}

// FindConversation looks up an existing thread between two users in either
// direction.
func (d *Database) FindConversation(userA, userB uuid.UUID) (*models.Conversation, error) {
	var c models.Conversation
	err := d.db.
		Where("(initiator_id = ? AND recipient_id = ?) OR (initiator_id = ? AND recipient_id = ?)",
			userA, userB, userB, userA).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(apperr.NotFound, err, "conversation not found")
		}
		return nil, err
	}
	return &c, nil
}

func (d *Database) AcceptConversation(id uuid.UUID) error {
	return d.db.Model(&models.Conversation{}).Where("id = ?", id).
		Update("accepted", true).Error
}

func (d *Database) DeleteConversation(id uuid.UUID) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.DirectMessage{}, "conversation_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Conversation{}, "id = ?", id).Error
	})
}
