package models

import (
	"github.com/google/uuid"
	"time"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	AvatarURL    string
	Banned       bool `gorm:"default:false"`
	LastSeenAt   time.Time
	CreatedAt    time.Time
}

// Snapshot is the denormalized identity copied into room/speaker/message
// records. It goes stale when the user renames or changes avatar; an explicit
// re-sync pass is required to refresh it.
func (u *User) Snapshot() UserSnapshot {
	return UserSnapshot{UserID: u.ID, Username: u.Username, AvatarURL: u.AvatarURL}
}

type UserSnapshot struct {
	UserID    uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	Username  string    `gorm:"not null" json:"username"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}
