package models

import (
	"github.com/google/uuid"
	"time"
)

type Room struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Title        string    `gorm:"not null"`
	ImageURL     string
	OwnerID      uuid.UUID `gorm:"type:uuid;not null"`
	OwnerName    string    `gorm:"not null"`
	OwnerAvatar  string
	IsLive       bool `gorm:"default:false"`
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Admins    []RoomAdmin    `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
	Members   []RoomMember   `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
	Speakers  []RoomSpeaker  `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
	Occupants []RoomOccupant `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
}

// IsPrivileged reports whether userID is the room owner or one of its admins.
func (r *Room) IsPrivileged(userID uuid.UUID) bool {
	if r.OwnerID == userID {
		return true
	}
	for _, a := range r.Admins {
		if a.UserID == userID {
			return true
		}
	}
	return false
}

// HasPrivilegedSpeaker reports whether any current speaker is the owner or an
// admin. A live room without one must be forced offline.
func (r *Room) HasPrivilegedSpeaker() bool {
	for _, s := range r.Speakers {
		if r.IsPrivileged(s.UserID) {
			return true
		}
	}
	return false
}

func (r *Room) HasSpeaker(userID uuid.UUID) bool {
	for _, s := range r.Speakers {
		if s.UserID == userID {
			return true
		}
	}
	return false
}

type RoomAdmin struct {
	RoomID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"room_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Username  string    `gorm:"not null" json:"username"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}

type RoomSpeaker struct {
	RoomID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"room_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Username  string    `gorm:"not null" json:"username"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}

type RoomMember struct {
	RoomID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"room_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Username  string    `gorm:"not null" json:"username"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}

// RoomOccupant is the durable mirror of real-time room presence. It is
// best-effort: the in-memory roster is authoritative while the process lives.
type RoomOccupant struct {
	RoomID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"room_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Username  string    `gorm:"not null" json:"username"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	JoinedAt  time.Time `json:"joined_at"`
}
