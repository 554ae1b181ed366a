package models

import (
	"github.com/google/uuid"
	"time"
)

type NotificationType string

const (
	NotificationChatInvite NotificationType = "chat_invitation"
	NotificationComment    NotificationType = "comment"
	NotificationMention    NotificationType = "mention"
	NotificationRoomLive   NotificationType = "room_live"
	NotificationFollow     NotificationType = "follow"
)

// Notification is a persisted alert for one recipient. Unread chat invitations
// are additionally guarded by a partial unique index on
// (recipient_id, conversation_id), created in database.Connect.
type Notification struct {
	ID             uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RecipientID    uuid.UUID        `gorm:"type:uuid;not null;index"`
	SenderID       uuid.UUID        `gorm:"type:uuid;not null"`
	Type           NotificationType `gorm:"not null"`
	Content        string
	ListingID      *uuid.UUID `gorm:"type:uuid"`
	CommentID      *uuid.UUID `gorm:"type:uuid"`
	ConversationID *uuid.UUID `gorm:"type:uuid"`
	Read           bool       `gorm:"default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
