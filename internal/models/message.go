package models

import (
	"github.com/google/uuid"
	"time"
)

// RoomMessage is chat inside a room. Sender identity is snapshotted so history
// renders without a join.
type RoomMessage struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RoomID       uuid.UUID `gorm:"type:uuid;not null;index"`
	SenderID     uuid.UUID `gorm:"type:uuid;not null"`
	SenderName   string    `gorm:"not null"`
	SenderAvatar string
	Content      string `gorm:"not null"`
	System       bool   `gorm:"default:false"`
	CreatedAt    time.Time
}

type DirectMessage struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null"`
	SenderName     string    `gorm:"not null"`
	SenderAvatar   string
	ReceiverID     uuid.UUID `gorm:"type:uuid;not null"`
	Content        string    `gorm:"not null"`
	CreatedAt      time.Time
}
