// Package live drives the room live/speaker state machine. The persisted
// Room document is the source of truth; every transition writes it first and
// broadcasts only after the write succeeds.
package live

import (
	"github.com/google/uuid"

	"github.com/koinonia-app/backend/internal/apperr"
	"github.com/koinonia-app/backend/internal/broadcast"
	"github.com/koinonia-app/backend/internal/metrics"
	"github.com/koinonia-app/backend/internal/models"
)

// Store is the persistence surface the coordinator needs. StartLive and
// StopLive are transactional: flag and speaker list change together.
type Store interface {
	GetRoom(roomID uuid.UUID) (*models.Room, error)
	StartLive(roomID uuid.UUID, speaker models.RoomSpeaker) error
	StopLive(roomID uuid.UUID) error
	AddSpeaker(speaker models.RoomSpeaker) error
	RemoveSpeaker(roomID, userID uuid.UUID) error
}

// LivePayload is the room_live event body.
type LivePayload struct {
	RoomID       uuid.UUID `json:"room_id"`
	IsLive       bool      `json:"is_live"`
	SpeakerCount int       `json:"speaker_count"`
}

type Coordinator struct {
	store Store
	pub   broadcast.Publisher
}

func NewCoordinator(store Store, pub broadcast.Publisher) *Coordinator {
	return &Coordinator{store: store, pub: pub}
}

// StartLive flips the room live and ensures the acting user is a speaker.
// Only the owner or an admin may start a broadcast.
func (c *Coordinator) StartLive(roomID uuid.UUID, actor models.UserSnapshot) (*LivePayload, error) {
	room, err := c.store.GetRoom(roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsPrivileged(actor.UserID) {
		return nil, apperr.New(apperr.Forbidden, "only the owner or an admin can start a broadcast")
	}

	if err := c.store.StartLive(roomID, speakerRecord(roomID, actor)); err != nil {
		return nil, apperr.Wrap(apperr.Persistence, err, "failed to start live")
	}

	count := len(room.Speakers)
	if !room.HasSpeaker(actor.UserID) {
		count++
	}
	if !room.IsLive {
		metrics.LiveRooms.Inc()
	}
	payload := &LivePayload{RoomID: roomID, IsLive: true, SpeakerCount: count}
	c.pub.PublishRoom(roomID, broadcast.EventRoomLive, payload)
	return payload, nil
}

// StopLive ends the broadcast and clears the speaker list. Owner/admin only.
func (c *Coordinator) StopLive(roomID uuid.UUID, actor models.UserSnapshot) (*LivePayload, error) {
	room, err := c.store.GetRoom(roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsPrivileged(actor.UserID) {
		return nil, apperr.New(apperr.Forbidden, "only the owner or an admin can stop a broadcast")
	}

	if err := c.store.StopLive(roomID); err != nil {
		return nil, apperr.Wrap(apperr.Persistence, err, "failed to stop live")
	}

	if room.IsLive {
		metrics.LiveRooms.Dec()
	}
	payload := &LivePayload{RoomID: roomID, IsLive: false, SpeakerCount: 0}
	c.pub.PublishRoom(roomID, broadcast.EventRoomLive, payload)
	return payload, nil
}

// SpeakerJoin promotes the user to speaker. Allowed only while the room is
// live; joining twice is idempotent.
func (c *Coordinator) SpeakerJoin(roomID uuid.UUID, user models.UserSnapshot) (*LivePayload, error) {
	room, err := c.store.GetRoom(roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsLive {
		return nil, apperr.New(apperr.Conflict, "room is not live")
	}

	count := len(room.Speakers)
	if !room.HasSpeaker(user.UserID) {
		if err := c.store.AddSpeaker(speakerRecord(roomID, user)); err != nil {
			return nil, apperr.Wrap(apperr.Persistence, err, "failed to add speaker")
		}
		count++
	}

	payload := &LivePayload{RoomID: roomID, IsLive: true, SpeakerCount: count}
	c.pub.PublishRoom(roomID, broadcast.EventRoomLive, payload)
	return payload, nil
}

// SpeakerLeave demotes the user. When no owner or admin remains among the
// speakers the broadcast cannot continue: the room is forced offline and the
// speaker list cleared.
func (c *Coordinator) SpeakerLeave(roomID, userID uuid.UUID) (*LivePayload, error) {
	room, err := c.store.GetRoom(roomID)
	if err != nil {
		return nil, err
	}

	if room.HasSpeaker(userID) {
		if err := c.store.RemoveSpeaker(roomID, userID); err != nil {
			return nil, apperr.Wrap(apperr.Persistence, err, "failed to remove speaker")
		}
	}

	remaining := make([]models.RoomSpeaker, 0, len(room.Speakers))
	for _, s := range room.Speakers {
		if s.UserID != userID {
			remaining = append(remaining, s)
		}
	}
	room.Speakers = remaining

	if room.IsLive && !room.HasPrivilegedSpeaker() {
		if err := c.store.StopLive(roomID); err != nil {
			return nil, apperr.Wrap(apperr.Persistence, err, "failed to end broadcast")
		}
		metrics.LiveRooms.Dec()
		payload := &LivePayload{RoomID: roomID, IsLive: false, SpeakerCount: 0}
		c.pub.PublishRoom(roomID, broadcast.EventRoomLive, payload)
		return payload, nil
	}

	payload := &LivePayload{RoomID: roomID, IsLive: room.IsLive, SpeakerCount: len(remaining)}
	c.pub.PublishRoom(roomID, broadcast.EventRoomLive, payload)
	return payload, nil
}

func speakerRecord(roomID uuid.UUID, u models.UserSnapshot) models.RoomSpeaker {
	return models.RoomSpeaker{RoomID: roomID, UserID: u.UserID, Username: u.Username, AvatarURL: u.AvatarURL}
}
