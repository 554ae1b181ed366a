// Package presence owns the ephemeral real-time state: which connections map
// to which users, and who is currently inside which room. Everything here is
// process-local and lost on restart; durable room membership lives in the
// database.
package presence

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/koinonia-app/backend/internal/broadcast"
)

// Identity is the verified user attached to a connection at handshake time.
type Identity struct {
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}

// RosterEntry is one user inside a room with their transient flags.
type RosterEntry struct {
	UserID       uuid.UUID `json:"user_id"`
	Username     string    `json:"username"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	MicrophoneOn bool      `json:"microphone_on"`
	Minimized    bool      `json:"minimized"`

	connID uuid.UUID
}

// RosterPayload is the room_roster event body.
type RosterPayload struct {
	RoomID uuid.UUID     `json:"room_id"`
	Users  []RosterEntry `json:"users"`
}

// OccupantStore mirrors roster membership into the database. Updates are
// best-effort; failures are logged and never block the roster.
type OccupantStore interface {
	AddOccupant(roomID uuid.UUID, ident Identity) error
	RemoveOccupant(roomID, userID uuid.UUID) error
}

// Roster tracks per-room rosters. Rooms are created lazily on first join and
// discarded when the last entry leaves. At most one entry exists per user per
// room; a rejoin from a new connection updates the entry in place.
type Roster struct {
	mu        sync.Mutex
	rooms     map[uuid.UUID][]RosterEntry
	pub       broadcast.Publisher
	occupants OccupantStore
}

// NewRoster creates a roster. occupants may be nil to disable the database
// mirror.
func NewRoster(pub broadcast.Publisher, occupants OccupantStore) *Roster {
	return &Roster{rooms: make(map[uuid.UUID][]RosterEntry), pub: pub, occupants: occupants}
}

// Join adds ident to the room's roster, creating the roster if needed. A user
// already present keeps their position and flags but is rebound to connID.
// The full roster is always re-broadcast.
func (r *Roster) Join(roomID, connID uuid.UUID, ident Identity) {
	r.mu.Lock()
	entries := r.rooms[roomID]
	rebound := false
	for i := range entries {
		if entries[i].UserID == ident.UserID {
			entries[i].connID = connID
			entries[i].Username = ident.Username
			entries[i].AvatarURL = ident.AvatarURL
			rebound = true
			break
		}
	}
	if !rebound {
		entries = append(entries, RosterEntry{
			UserID:    ident.UserID,
			Username:  ident.Username,
			AvatarURL: ident.AvatarURL,
			connID:    connID,
		})
	}
	r.rooms[roomID] = entries
	r.mu.Unlock()

	if !rebound && r.occupants != nil {
		if err := r.occupants.AddOccupant(roomID, ident); err != nil {
			log.Warn().Err(err).Str("room", roomID.String()).Msg("failed to mirror occupant add")
		}
	}
	r.broadcast(roomID)
}

// Leave removes the user's entry. An empty roster is discarded entirely; the
// next join recreates it. The (possibly empty) roster is re-broadcast.
func (r *Roster) Leave(roomID, userID uuid.UUID) {
	r.mu.Lock()
	entries, ok := r.rooms[roomID]
	removed := false
	if ok {
		for i := range entries {
			if entries[i].UserID == userID {
				entries = append(entries[:i], entries[i+1:]...)
				removed = true
				break
			}
		}
		if len(entries) == 0 {
			delete(r.rooms, roomID)
		} else {
			r.rooms[roomID] = entries
		}
	}
	r.mu.Unlock()

	if !removed {
		log.Debug().Str("room", roomID.String()).Str("user", userID.String()).
			Msg("leave for user not on roster")
	} else if r.occupants != nil {
		if err := r.occupants.RemoveOccupant(roomID, userID); err != nil {
			log.Warn().Err(err).Str("room", roomID.String()).Msg("failed to mirror occupant remove")
		}
	}
	r.broadcast(roomID)
}

// RemoveEverywhere drops the user from every roster they appear on and
// broadcasts each affected room. Used by disconnect cleanup.
func (r *Roster) RemoveEverywhere(userID uuid.UUID) []uuid.UUID {
	r.mu.Lock()
	var affected []uuid.UUID
	for roomID, entries := range r.rooms {
		for i := range entries {
			if entries[i].UserID == userID {
				entries = append(entries[:i], entries[i+1:]...)
				if len(entries) == 0 {
					delete(r.rooms, roomID)
				} else {
					r.rooms[roomID] = entries
				}
				affected = append(affected, roomID)
				break
			}
		}
	}
	r.mu.Unlock()

	for _, roomID := range affected {
		if r.occupants != nil {
			if err := r.occupants.RemoveOccupant(roomID, userID); err != nil {
				log.Warn().Err(err).Str("room", roomID.String()).Msg("failed to mirror occupant remove")
			}
		}
		r.broadcast(roomID)
	}
	return affected
}

// SetMicrophone flips the mic flag on the entry bound to connID. Unknown
// room or connection is a no-op with a diagnostic.
func (r *Roster) SetMicrophone(roomID, connID uuid.UUID, on bool) {
	r.mu.Lock()
	entries := r.rooms[roomID]
	found := false
	for i := range entries {
		if entries[i].connID == connID {
			entries[i].MicrophoneOn = on
			found = true
			break
		}
	}
	r.mu.Unlock()

	if !found {
		log.Debug().Str("room", roomID.String()).Msg("toggle_mic for connection not on roster")
		return
	}
	r.broadcast(roomID)
}

// SetMinimized updates the minimized and mic flags on the user's entry.
// Unknown room or user is a no-op with a diagnostic.
func (r *Roster) SetMinimized(roomID, userID uuid.UUID, minimized, microphoneOn bool) {
	r.mu.Lock()
	entries := r.rooms[roomID]
	found := false
	for i := range entries {
		if entries[i].UserID == userID {
			entries[i].Minimized = minimized
			entries[i].MicrophoneOn = microphoneOn
			found = true
			break
		}
	}
	r.mu.Unlock()

	if !found {
		log.Debug().Str("room", roomID.String()).Str("user", userID.String()).
			Msg("minimize_room for user not on roster")
		return
	}
	r.broadcast(roomID)
}

// Snapshot returns a copy of the room's roster, empty when untracked.
func (r *Roster) Snapshot(roomID uuid.UUID) []RosterEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.rooms[roomID]
	out := make([]RosterEntry, len(entries))
	copy(out, entries)
	return out
}

// Rooms returns the ids of all currently tracked rooms.
func (r *Roster) Rooms() []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uuid.UUID, 0, len(r.rooms))
	for id := range r.rooms {
		out = append(out, id)
	}
	return out
}

func (r *Roster) broadcast(roomID uuid.UUID) {
	r.pub.PublishRoom(roomID, broadcast.EventRoomRoster, RosterPayload{
		RoomID: roomID,
		Users:  r.Snapshot(roomID),
	})
}
