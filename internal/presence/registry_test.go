package presence

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koinonia-app/backend/internal/apperr"
	"github.com/koinonia-app/backend/internal/broadcast"
)

type fakeMirror struct {
	added   []uuid.UUID
	removed []uuid.UUID
	fail    bool
}

func (f *fakeMirror) AddActiveUser(userID uuid.UUID) error {
	f.added = append(f.added, userID)
	if f.fail {
		return errors.New("redis down")
	}
	return nil
}

func (f *fakeMirror) RemoveActiveUser(userID uuid.UUID) error {
	f.removed = append(f.removed, userID)
	if f.fail {
		return errors.New("redis down")
	}
	return nil
}

func newTestRegistry() (*Registry, *broadcast.Recorder) {
	rec := broadcast.NewRecorder()
	return NewRegistry(NewRoster(rec, nil), rec, nil), rec
}

func TestAuthenticateRejectsIncompleteIdentity(t *testing.T) {
	reg, _ := newTestRegistry()

	err := reg.Authenticate(uuid.New(), Identity{Username: "alice"})
	assert.True(t, apperr.Is(err, apperr.Validation))

	err = reg.Authenticate(uuid.New(), Identity{UserID: uuid.New()})
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestAuthenticateMarksOnlineOnce(t *testing.T) {
	reg, rec := newTestRegistry()
	alice := ident("alice")

	require.NoError(t, reg.Authenticate(uuid.New(), alice))
	require.NoError(t, reg.Authenticate(uuid.New(), alice))

	assert.True(t, reg.IsOnline(alice.UserID))
	assert.Len(t, reg.OnlineList(), 1)
	assert.Len(t, rec.OfEvent(broadcast.EventOnlineUsers), 1,
		"second tab must not re-broadcast the online list")
}

func TestAuthenticateIsIdempotentPerConnection(t *testing.T) {
	reg, rec := newTestRegistry()
	alice := ident("alice")
	connID := uuid.New()

	require.NoError(t, reg.Authenticate(connID, alice))
	require.NoError(t, reg.Authenticate(connID, alice))

	assert.Len(t, rec.OfEvent(broadcast.EventOnlineUsers), 1)
}

func TestDisconnectLastConnectionCleansUp(t *testing.T) {
	reg, rec := newTestRegistry()
	alice := ident("alice")
	bob := ident("bob")
	roomID := uuid.New()

	aliceConn := uuid.New()
	require.NoError(t, reg.Authenticate(aliceConn, alice))
	require.NoError(t, reg.Authenticate(uuid.New(), bob))
	require.NoError(t, reg.JoinRoom(aliceConn, roomID))
	rec.Reset()

	reg.Disconnect(aliceConn)

	assert.False(t, reg.IsOnline(alice.UserID))
	assert.True(t, reg.IsOnline(bob.UserID))

	rosters := rec.OfEvent(broadcast.EventRoomRoster)
	require.Len(t, rosters, 1, "the room alice was in gets a roster update")
	assert.Empty(t, rosters[0].Payload.(RosterPayload).Users)

	online := rec.OfEvent(broadcast.EventOnlineUsers)
	require.Len(t, online, 1)
	list := online[0].Payload.([]Identity)
	require.Len(t, list, 1)
	assert.Equal(t, bob.UserID, list[0].UserID)
}

func TestDisconnectKeepsUserOnlineWhileTabsRemain(t *testing.T) {
	reg, rec := newTestRegistry()
	alice := ident("alice")
	first := uuid.New()
	second := uuid.New()

	require.NoError(t, reg.Authenticate(first, alice))
	require.NoError(t, reg.Authenticate(second, alice))
	rec.Reset()

	reg.Disconnect(first)

	assert.True(t, reg.IsOnline(alice.UserID))
	assert.Empty(t, rec.All(), "closing one of several tabs broadcasts nothing")
}

func TestDisconnectUnknownConnectionIsNoop(t *testing.T) {
	reg, rec := newTestRegistry()

	reg.Disconnect(uuid.New())

	assert.Empty(t, rec.All())
}

func TestJoinRoomRequiresAuthentication(t *testing.T) {
	reg, _ := newTestRegistry()

	err := reg.JoinRoom(uuid.New(), uuid.New())
	assert.True(t, apperr.Is(err, apperr.Unauthorized))

	err = reg.LeaveRoom(uuid.New(), uuid.New())
	assert.True(t, apperr.Is(err, apperr.Unauthorized))
}

func TestJoinThenLeaveRoom(t *testing.T) {
	rec := broadcast.NewRecorder()
	roster := NewRoster(rec, nil)
	reg := NewRegistry(roster, rec, nil)
	alice := ident("alice")
	connID := uuid.New()
	roomID := uuid.New()

	require.NoError(t, reg.Authenticate(connID, alice))
	require.NoError(t, reg.JoinRoom(connID, roomID))
	require.Len(t, roster.Snapshot(roomID), 1)

	require.NoError(t, reg.LeaveRoom(connID, roomID))
	assert.Empty(t, roster.Snapshot(roomID))
}

func TestMirrorTracksOnlineTransitions(t *testing.T) {
	rec := broadcast.NewRecorder()
	mirror := &fakeMirror{}
	reg := NewRegistry(NewRoster(rec, nil), rec, mirror)
	alice := ident("alice")
	first := uuid.New()
	second := uuid.New()

	require.NoError(t, reg.Authenticate(first, alice))
	require.NoError(t, reg.Authenticate(second, alice))
	reg.Disconnect(first)
	reg.Disconnect(second)

	assert.Equal(t, []uuid.UUID{alice.UserID}, mirror.added)
	assert.Equal(t, []uuid.UUID{alice.UserID}, mirror.removed)
}

func TestMirrorFailureDoesNotBlock(t *testing.T) {
	rec := broadcast.NewRecorder()
	reg := NewRegistry(NewRoster(rec, nil), rec, &fakeMirror{fail: true})
	alice := ident("alice")

	require.NoError(t, reg.Authenticate(uuid.New(), alice))
	assert.True(t, reg.IsOnline(alice.UserID))
}

func TestIdentityOf(t *testing.T) {
	reg, _ := newTestRegistry()
	alice := ident("alice")
	connID := uuid.New()

	_, ok := reg.IdentityOf(connID)
	assert.False(t, ok)

	require.NoError(t, reg.Authenticate(connID, alice))
	got, ok := reg.IdentityOf(connID)
	require.True(t, ok)
	assert.Equal(t, alice, got)
}
