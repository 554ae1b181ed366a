package presence

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koinonia-app/backend/internal/broadcast"
)

type occupantCall struct {
	roomID uuid.UUID
	userID uuid.UUID
	add    bool
}

type fakeOccupants struct {
	calls []occupantCall
	fail  bool
}

func (f *fakeOccupants) AddOccupant(roomID uuid.UUID, ident Identity) error {
	f.calls = append(f.calls, occupantCall{roomID: roomID, userID: ident.UserID, add: true})
	if f.fail {
		return errors.New("db down")
	}
	return nil
}

func (f *fakeOccupants) RemoveOccupant(roomID, userID uuid.UUID) error {
	f.calls = append(f.calls, occupantCall{roomID: roomID, userID: userID})
	if f.fail {
		return errors.New("db down")
	}
	return nil
}

func ident(name string) Identity {
	return Identity{UserID: uuid.New(), Username: name}
}

func TestRosterJoinAndSnapshot(t *testing.T) {
	rec := broadcast.NewRecorder()
	roster := NewRoster(rec, nil)
	roomID := uuid.New()
	alice := ident("alice")

	roster.Join(roomID, uuid.New(), alice)

	entries := roster.Snapshot(roomID)
	require.Len(t, entries, 1)
	assert.Equal(t, alice.UserID, entries[0].UserID)
	assert.Equal(t, "alice", entries[0].Username)
	assert.False(t, entries[0].MicrophoneOn)
	assert.False(t, entries[0].Minimized)

	events := rec.OfEvent(broadcast.EventRoomRoster)
	require.Len(t, events, 1)
	assert.Equal(t, roomID, events[0].RoomID)
}

func TestRosterJoinIsUniquePerUser(t *testing.T) {
	rec := broadcast.NewRecorder()
	roster := NewRoster(rec, nil)
	roomID := uuid.New()
	alice := ident("alice")

	firstConn := uuid.New()
	secondConn := uuid.New()
	roster.Join(roomID, firstConn, alice)
	roster.SetMicrophone(roomID, firstConn, true)
	roster.Join(roomID, secondConn, alice)

	entries := roster.Snapshot(roomID)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].MicrophoneOn, "rejoin keeps existing flags")

	// the entry is rebound: the old connection can no longer flip the mic
	roster.SetMicrophone(roomID, firstConn, false)
	assert.True(t, roster.Snapshot(roomID)[0].MicrophoneOn)
	roster.SetMicrophone(roomID, secondConn, false)
	assert.False(t, roster.Snapshot(roomID)[0].MicrophoneOn)
}

func TestRosterLeaveDiscardsEmptyRoom(t *testing.T) {
	rec := broadcast.NewRecorder()
	roster := NewRoster(rec, nil)
	roomID := uuid.New()
	alice := ident("alice")

	roster.Join(roomID, uuid.New(), alice)
	roster.Leave(roomID, alice.UserID)

	assert.Empty(t, roster.Snapshot(roomID))
	assert.Empty(t, roster.Rooms())

	last := rec.Last()
	require.NotNil(t, last)
	assert.Equal(t, broadcast.EventRoomRoster, last.Event)
	payload := last.Payload.(RosterPayload)
	assert.Empty(t, payload.Users)
}

func TestRosterLeaveUnknownUserStillBroadcasts(t *testing.T) {
	rec := broadcast.NewRecorder()
	roster := NewRoster(rec, nil)
	roomID := uuid.New()

	roster.Join(roomID, uuid.New(), ident("alice"))
	rec.Reset()

	roster.Leave(roomID, uuid.New())

	require.Len(t, rec.OfEvent(broadcast.EventRoomRoster), 1)
	assert.Len(t, roster.Snapshot(roomID), 1)
}

func TestRosterRemoveEverywhere(t *testing.T) {
	rec := broadcast.NewRecorder()
	roster := NewRoster(rec, nil)
	alice := ident("alice")
	bob := ident("bob")
	roomA := uuid.New()
	roomB := uuid.New()

	roster.Join(roomA, uuid.New(), alice)
	roster.Join(roomA, uuid.New(), bob)
	roster.Join(roomB, uuid.New(), alice)
	rec.Reset()

	affected := roster.RemoveEverywhere(alice.UserID)

	assert.ElementsMatch(t, []uuid.UUID{roomA, roomB}, affected)
	require.Len(t, roster.Snapshot(roomA), 1)
	assert.Equal(t, bob.UserID, roster.Snapshot(roomA)[0].UserID)
	assert.Empty(t, roster.Snapshot(roomB))
	assert.Len(t, rec.OfEvent(broadcast.EventRoomRoster), 2)
}

func TestRosterSetMinimized(t *testing.T) {
	rec := broadcast.NewRecorder()
	roster := NewRoster(rec, nil)
	roomID := uuid.New()
	alice := ident("alice")

	roster.Join(roomID, uuid.New(), alice)
	roster.SetMinimized(roomID, alice.UserID, true, false)

	entry := roster.Snapshot(roomID)[0]
	assert.True(t, entry.Minimized)
	assert.False(t, entry.MicrophoneOn)

	rec.Reset()
	roster.SetMinimized(roomID, uuid.New(), true, true)
	assert.Empty(t, rec.All(), "unknown user is a no-op")
}

func TestRosterMirrorsOccupants(t *testing.T) {
	occ := &fakeOccupants{}
	roster := NewRoster(broadcast.NewRecorder(), occ)
	roomID := uuid.New()
	alice := ident("alice")

	roster.Join(roomID, uuid.New(), alice)
	roster.Join(roomID, uuid.New(), alice) // rebind, no second add
	roster.Leave(roomID, alice.UserID)

	require.Len(t, occ.calls, 2)
	assert.True(t, occ.calls[0].add)
	assert.False(t, occ.calls[1].add)
	assert.Equal(t, alice.UserID, occ.calls[1].userID)
}

func TestRosterMirrorFailureDoesNotBlock(t *testing.T) {
	occ := &fakeOccupants{fail: true}
	rec := broadcast.NewRecorder()
	roster := NewRoster(rec, occ)
	roomID := uuid.New()

	roster.Join(roomID, uuid.New(), ident("alice"))

	assert.Len(t, roster.Snapshot(roomID), 1)
	assert.Len(t, rec.OfEvent(broadcast.EventRoomRoster), 1)
}
