package database

import (
	"errors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/koinonia-app/backend/internal/models"
)

func (d *Database) Connect(dsn string) error {
	if dsn == "" {
		return errors.New("database DSN is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return err
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Room{},
		&models.RoomAdmin{},
		&models.RoomMember{},
		&models.RoomSpeaker{},
		&models.RoomOccupant{},
		&models.RoomMessage{},
		&models.Conversation{},
		&models.DirectMessage{},
		&models.Notification{},
	)
	if err != nil {
		return err
	}

	// At most one unread chat invitation per (recipient, conversation).
	// AutoMigrate cannot express a partial index, so it is created directly.
	err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_unread_chat_invitation
		ON notifications (recipient_id, conversation_id)
		WHERE type = 'chat_invitation' AND NOT read`).Error
	if err != nil {
		return err
	}

	d.db = db
	return nil
}
