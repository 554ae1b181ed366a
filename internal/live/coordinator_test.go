package live

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koinonia-app/backend/internal/apperr"
	"github.com/koinonia-app/backend/internal/broadcast"
	"github.com/koinonia-app/backend/internal/models"
)

// memStore keeps a single room in memory and applies the same transition
// semantics as the database layer.
type memStore struct {
	room    *models.Room
	failAll bool
}

func (s *memStore) GetRoom(roomID uuid.UUID) (*models.Room, error) {
	if s.room == nil || s.room.ID != roomID {
		return nil, apperr.New(apperr.NotFound, "room not found")
	}
	copied := *s.room
	copied.Speakers = append([]models.RoomSpeaker(nil), s.room.Speakers...)
	copied.Admins = append([]models.RoomAdmin(nil), s.room.Admins...)
	return &copied, nil
}

func (s *memStore) StartLive(roomID uuid.UUID, speaker models.RoomSpeaker) error {
	if s.failAll {
		return errors.New("db down")
	}
	s.room.IsLive = true
	if !s.room.HasSpeaker(speaker.UserID) {
		s.room.Speakers = append(s.room.Speakers, speaker)
	}
	return nil
}

func (s *memStore) StopLive(roomID uuid.UUID) error {
	if s.failAll {
		return errors.New("db down")
	}
	s.room.IsLive = false
	s.room.Speakers = nil
	return nil
}

func (s *memStore) AddSpeaker(speaker models.RoomSpeaker) error {
	if s.failAll {
		return errors.New("db down")
	}
	s.room.Speakers = append(s.room.Speakers, speaker)
	return nil
}

func (s *memStore) RemoveSpeaker(roomID, userID uuid.UUID) error {
	if s.failAll {
		return errors.New("db down")
	}
	kept := s.room.Speakers[:0]
	for _, sp := range s.room.Speakers {
		if sp.UserID != userID {
			kept = append(kept, sp)
		}
	}
	s.room.Speakers = kept
	return nil
}

func snapshot(name string) models.UserSnapshot {
	return models.UserSnapshot{UserID: uuid.New(), Username: name}
}

func newTestRoom(owner models.UserSnapshot) *models.Room {
	return &models.Room{
		ID:        uuid.New(),
		Title:     "morning prayer",
		OwnerID:   owner.UserID,
		OwnerName: owner.Username,
	}
}

func TestStartLiveByOwner(t *testing.T) {
	owner := snapshot("pastor")
	store := &memStore{room: newTestRoom(owner)}
	rec := broadcast.NewRecorder()
	c := NewCoordinator(store, rec)

	payload, err := c.StartLive(store.room.ID, owner)
	require.NoError(t, err)
	assert.True(t, payload.IsLive)
	assert.Equal(t, 1, payload.SpeakerCount)

	assert.True(t, store.room.IsLive)
	require.Len(t, store.room.Speakers, 1)
	assert.Equal(t, owner.UserID, store.room.Speakers[0].UserID)

	events := rec.OfEvent(broadcast.EventRoomLive)
	require.Len(t, events, 1)
	assert.Equal(t, store.room.ID, events[0].RoomID)
}

func TestStartLiveByAdmin(t *testing.T) {
	owner := snapshot("pastor")
	admin := snapshot("deacon")
	store := &memStore{room: newTestRoom(owner)}
	store.room.Admins = []models.RoomAdmin{{RoomID: store.room.ID, UserID: admin.UserID, Username: admin.Username}}
	c := NewCoordinator(store, broadcast.NewRecorder())

	_, err := c.StartLive(store.room.ID, admin)
	assert.NoError(t, err)
}

func TestStartLiveRejectsRegularMember(t *testing.T) {
	owner := snapshot("pastor")
	store := &memStore{room: newTestRoom(owner)}
	rec := broadcast.NewRecorder()
	c := NewCoordinator(store, rec)

	_, err := c.StartLive(store.room.ID, snapshot("visitor"))
	assert.True(t, apperr.Is(err, apperr.Forbidden))
	assert.False(t, store.room.IsLive)
	assert.Empty(t, rec.All(), "nothing is broadcast on a rejected transition")
}

func TestStartLiveNotFound(t *testing.T) {
	c := NewCoordinator(&memStore{}, broadcast.NewRecorder())

	_, err := c.StartLive(uuid.New(), snapshot("pastor"))
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestStartLivePersistenceFailureSuppressesBroadcast(t *testing.T) {
	owner := snapshot("pastor")
	store := &memStore{room: newTestRoom(owner), failAll: true}
	rec := broadcast.NewRecorder()
	c := NewCoordinator(store, rec)

	_, err := c.StartLive(store.room.ID, owner)
	assert.True(t, apperr.Is(err, apperr.Persistence))
	assert.Empty(t, rec.All())
}

func TestStopLiveClearsSpeakers(t *testing.T) {
	owner := snapshot("pastor")
	store := &memStore{room: newTestRoom(owner)}
	rec := broadcast.NewRecorder()
	c := NewCoordinator(store, rec)

	_, err := c.StartLive(store.room.ID, owner)
	require.NoError(t, err)

	payload, err := c.StopLive(store.room.ID, owner)
	require.NoError(t, err)
	assert.False(t, payload.IsLive)
	assert.Zero(t, payload.SpeakerCount)
	assert.False(t, store.room.IsLive)
	assert.Empty(t, store.room.Speakers)
}

func TestStopLiveRejectsRegularMember(t *testing.T) {
	owner := snapshot("pastor")
	store := &memStore{room: newTestRoom(owner)}
	c := NewCoordinator(store, broadcast.NewRecorder())

	_, err := c.StopLive(store.room.ID, snapshot("visitor"))
	assert.True(t, apperr.Is(err, apperr.Forbidden))
}

func TestSpeakerJoinRequiresLiveRoom(t *testing.T) {
	owner := snapshot("pastor")
	store := &memStore{room: newTestRoom(owner)}
	c := NewCoordinator(store, broadcast.NewRecorder())

	_, err := c.SpeakerJoin(store.room.ID, snapshot("visitor"))
	assert.True(t, apperr.Is(err, apperr.Conflict))
}

func TestSpeakerJoinIsIdempotent(t *testing.T) {
	owner := snapshot("pastor")
	guest := snapshot("guest")
	store := &memStore{room: newTestRoom(owner)}
	rec := broadcast.NewRecorder()
	c := NewCoordinator(store, rec)

	_, err := c.StartLive(store.room.ID, owner)
	require.NoError(t, err)

	first, err := c.SpeakerJoin(store.room.ID, guest)
	require.NoError(t, err)
	assert.Equal(t, 2, first.SpeakerCount)

	second, err := c.SpeakerJoin(store.room.ID, guest)
	require.NoError(t, err)
	assert.Equal(t, 2, second.SpeakerCount)
	require.Len(t, store.room.Speakers, 2)
}

func TestSpeakerLeaveKeepsRoomLiveWhilePrivilegedSpeakerRemains(t *testing.T) {
	owner := snapshot("pastor")
	guest := snapshot("guest")
	store := &memStore{room: newTestRoom(owner)}
	c := NewCoordinator(store, broadcast.NewRecorder())

	_, err := c.StartLive(store.room.ID, owner)
	require.NoError(t, err)
	_, err = c.SpeakerJoin(store.room.ID, guest)
	require.NoError(t, err)

	payload, err := c.SpeakerLeave(store.room.ID, guest.UserID)
	require.NoError(t, err)
	assert.True(t, payload.IsLive)
	assert.Equal(t, 1, payload.SpeakerCount)
	assert.True(t, store.room.IsLive)
}

func TestSpeakerLeaveOfLastPrivilegedSpeakerEndsBroadcast(t *testing.T) {
	owner := snapshot("pastor")
	guest := snapshot("guest")
	store := &memStore{room: newTestRoom(owner)}
	rec := broadcast.NewRecorder()
	c := NewCoordinator(store, rec)

	_, err := c.StartLive(store.room.ID, owner)
	require.NoError(t, err)
	_, err = c.SpeakerJoin(store.room.ID, guest)
	require.NoError(t, err)
	rec.Reset()

	payload, err := c.SpeakerLeave(store.room.ID, owner.UserID)
	require.NoError(t, err)
	assert.False(t, payload.IsLive)
	assert.Zero(t, payload.SpeakerCount)
	assert.False(t, store.room.IsLive)
	assert.Empty(t, store.room.Speakers, "forced stop clears the remaining speakers")

	events := rec.OfEvent(broadcast.EventRoomLive)
	require.Len(t, events, 1)
	live := events[0].Payload.(*LivePayload)
	assert.False(t, live.IsLive)
}

func TestSpeakerLeaveOfNonSpeakerIsNoop(t *testing.T) {
	owner := snapshot("pastor")
	store := &memStore{room: newTestRoom(owner)}
	c := NewCoordinator(store, broadcast.NewRecorder())

	_, err := c.StartLive(store.room.ID, owner)
	require.NoError(t, err)

	payload, err := c.SpeakerLeave(store.room.ID, uuid.New())
	require.NoError(t, err)
	assert.True(t, payload.IsLive)
	assert.Equal(t, 1, payload.SpeakerCount)
}
