package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRoomIsPrivileged(t *testing.T) {
	ownerID := uuid.New()
	adminID := uuid.New()
	room := &Room{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Admins:  []RoomAdmin{{UserID: adminID, Username: "deacon"}},
	}

	assert.True(t, room.IsPrivileged(ownerID))
	assert.True(t, room.IsPrivileged(adminID))
	assert.False(t, room.IsPrivileged(uuid.New()))
}

func TestRoomHasPrivilegedSpeaker(t *testing.T) {
	ownerID := uuid.New()
	guestID := uuid.New()
	room := &Room{ID: uuid.New(), OwnerID: ownerID}

	assert.False(t, room.HasPrivilegedSpeaker())

	room.Speakers = []RoomSpeaker{{UserID: guestID, Username: "guest"}}
	assert.False(t, room.HasPrivilegedSpeaker())

	room.Speakers = append(room.Speakers, RoomSpeaker{UserID: ownerID, Username: "pastor"})
	assert.True(t, room.HasPrivilegedSpeaker())
	assert.True(t, room.HasSpeaker(guestID))
	assert.False(t, room.HasSpeaker(uuid.New()))
}

func TestConversationOtherParticipant(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()
	conv := &Conversation{InitiatorID: alice, RecipientID: bob}

	assert.Equal(t, bob, conv.OtherParticipant(alice))
	assert.Equal(t, alice, conv.OtherParticipant(bob))
	assert.Equal(t, uuid.Nil, conv.OtherParticipant(uuid.New()))
}
