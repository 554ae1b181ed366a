package database

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/koinonia-app/backend/internal/apperr"
	"github.com/koinonia-app/backend/internal/models"
)

func (d *Database) CreateNotification(n *models.Notification) error {
	if err := d.db.Create(n).Error; err != nil {
		// The partial unique index rejects a second unread chat invitation
		// for the same (recipient, conversation) pair.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Wrap(apperr.Conflict, err, "an unread invitation already exists")
		}
		return err
	}
	return nil
}

func (d *Database) MarkRead(id uuid.UUID) error {
	return d.db.Model(&models.Notification{}).Where("id = ?", id).
		Update("read", true).Error
}

func (d *Database) MarkAllRead(recipientID uuid.UUID) error {
	return d.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND NOT read", recipientID).
		Update("read", true).Error
}

func (d *Database) DeleteNotification(id uuid.UUID) error {
	return d.db.Delete(&models.Notification{}, "id = ?", id).Error
}

// DeleteChatInvite retracts the pending invitation notification for the pair.
func (d *Database) DeleteChatInvite(recipientID, conversationID uuid.UUID) error {
	return d.db.Delete(&models.Notification{},
		"recipient_id = ? AND conversation_id = ? AND type = ?",
		recipientID, conversationID, models.NotificationChatInvite).Error
}

func (d *Database) ListNotifications(recipientID uuid.UUID, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := d.db.
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}
