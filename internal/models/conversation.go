package models

import (
	"github.com/google/uuid"
	"time"
)

// Conversation is a two-party direct-message thread. It starts pending; the
// recipient accepts or rejects the invitation.
type Conversation struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	InitiatorID uuid.UUID `gorm:"type:uuid;not null;index"`
	RecipientID uuid.UUID `gorm:"type:uuid;not null;index"`
	Accepted    bool      `gorm:"default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OtherParticipant resolves the peer of userID, or uuid.Nil when userID is not
// part of the conversation.
func (c *Conversation) OtherParticipant(userID uuid.UUID) uuid.UUID {
	switch userID {
	case c.InitiatorID:
		return c.RecipientID
	case c.RecipientID:
		return c.InitiatorID
	}
	return uuid.Nil
}
