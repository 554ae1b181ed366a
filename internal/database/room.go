package database

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/koinonia-app/backend/internal/apperr"
	"github.com/koinonia-app/backend/internal/models"
	"github.com/koinonia-app/backend/internal/presence"
)

func (d *Database) CreateRoom(room *models.Room) error {
	return d.db.Create(room).Error
}

func (d *Database) GetRoom(roomID uuid.UUID) (*models.Room, error) {
	var room models.Room
	err := d.db.
		Preload("Admins").
		Preload("Members").
		Preload("Speakers").
		First(&room, "id = ?", roomID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(apperr.NotFound, err, "room not found")
		}
		return nil, err
	}
	return &room, nil
}

// StartLive flips the live flag and seats the speaker in one transaction.
func (d *Database) StartLive(roomID uuid.UUID, speaker models.RoomSpeaker) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Room{}).Where("id = ?", roomID).
			Update("is_live", true).Error
		if err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&speaker).Error
	})
}

// StopLive clears the live flag and the whole speaker list in one transaction.
func (d *Database) StopLive(roomID uuid.UUID) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Room{}).Where("id = ?", roomID).
			Update("is_live", false).Error
		if err != nil {
			return err
		}
		return tx.Delete(&models.RoomSpeaker{}, "room_id = ?", roomID).Error
	})
}

func (d *Database) AddSpeaker(speaker models.RoomSpeaker) error {
	return d.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&speaker).Error
}

func (d *Database) RemoveSpeaker(roomID, userID uuid.UUID) error {
	return d.db.Delete(&models.RoomSpeaker{}, "room_id = ? AND user_id = ?", roomID, userID).Error
}

func (d *Database) AddAdmin(admin models.RoomAdmin) error {
	return d.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&admin).Error
}

func (d *Database) AddMember(member models.RoomMember) error {
	return d.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&member).Error
}

func (d *Database) RemoveMember(roomID, userID uuid.UUID) error {
	return d.db.Delete(&models.RoomMember{}, "room_id = ? AND user_id = ?", roomID, userID).Error
}

// AddOccupant and RemoveOccupant implement the presence occupant mirror.

func (d *Database) AddOccupant(roomID uuid.UUID, ident presence.Identity) error {
	occ := models.RoomOccupant{
		RoomID:    roomID,
		UserID:    ident.UserID,
		Username:  ident.Username,
		AvatarURL: ident.AvatarURL,
		JoinedAt:  time.Now(),
	}
	return d.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&occ).Error
}

func (d *Database) RemoveOccupant(roomID, userID uuid.UUID) error {
	return d.db.Delete(&models.RoomOccupant{}, "room_id = ? AND user_id = ?", roomID, userID).Error
}
