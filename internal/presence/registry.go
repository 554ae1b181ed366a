package presence

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/koinonia-app/backend/internal/apperr"
	"github.com/koinonia-app/backend/internal/broadcast"
	"github.com/koinonia-app/backend/internal/metrics"
)

// Mirror reflects the online-user set into shared storage (Redis) so other
// services can answer "is this user online" without a socket. Best-effort.
type Mirror interface {
	AddActiveUser(userID uuid.UUID) error
	RemoveActiveUser(userID uuid.UUID) error
}

type session struct {
	ident Identity
	rooms map[uuid.UUID]bool
}

type onlineUser struct {
	ident Identity
	conns map[uuid.UUID]bool
}

// Registry maps live connections to authenticated users. A user with several
// tabs holds several connections; they are online while at least one remains.
type Registry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*session
	online   map[uuid.UUID]*onlineUser
	roster   *Roster
	pub      broadcast.Publisher
	mirror   Mirror
}

// NewRegistry creates a registry. mirror may be nil.
func NewRegistry(roster *Roster, pub broadcast.Publisher, mirror Mirror) *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]*session),
		online:   make(map[uuid.UUID]*onlineUser),
		roster:   roster,
		pub:      pub,
		mirror:   mirror,
	}
}

// Authenticate binds connID to ident. Idempotent per connection. The first
// connection of a user marks them online and re-broadcasts the online list.
func (r *Registry) Authenticate(connID uuid.UUID, ident Identity) error {
	if ident.UserID == uuid.Nil || ident.Username == "" {
		return apperr.New(apperr.Validation, "identity requires a user id and username")
	}

	r.mu.Lock()
	if _, ok := r.sessions[connID]; ok {
		r.mu.Unlock()
		return nil
	}
	r.sessions[connID] = &session{ident: ident, rooms: make(map[uuid.UUID]bool)}

	u, wasOnline := r.online[ident.UserID]
	if !wasOnline {
		u = &onlineUser{ident: ident, conns: make(map[uuid.UUID]bool)}
		r.online[ident.UserID] = u
	}
	u.conns[connID] = true
	r.mu.Unlock()

	if !wasOnline {
		metrics.OnlineUsers.Inc()
		if r.mirror != nil {
			if err := r.mirror.AddActiveUser(ident.UserID); err != nil {
				log.Warn().Err(err).Str("user", ident.UserID.String()).Msg("failed to mirror online user")
			}
		}
		r.broadcastOnline()
	}
	return nil
}

// Disconnect releases connID. Dropping a user's last connection marks them
// offline, clears them from every roster, and re-broadcasts the online list.
// Unknown connections are a no-op.
func (r *Registry) Disconnect(connID uuid.UUID) {
	r.mu.Lock()
	sess, ok := r.sessions[connID]
	if !ok {
		r.mu.Unlock()
		log.Debug().Str("conn", connID.String()).Msg("disconnect for unknown connection")
		return
	}
	delete(r.sessions, connID)

	lastConn := false
	if u, online := r.online[sess.ident.UserID]; online {
		delete(u.conns, connID)
		if len(u.conns) == 0 {
			delete(r.online, sess.ident.UserID)
			lastConn = true
		}
	}
	r.mu.Unlock()

	if !lastConn {
		return
	}
	metrics.OnlineUsers.Dec()
	if r.mirror != nil {
		if err := r.mirror.RemoveActiveUser(sess.ident.UserID); err != nil {
			log.Warn().Err(err).Str("user", sess.ident.UserID.String()).Msg("failed to mirror offline user")
		}
	}
	r.roster.RemoveEverywhere(sess.ident.UserID)
	r.broadcastOnline()
}

// JoinRoom puts the connection's user on the room roster and remembers the
// room for disconnect cleanup. The connection must be authenticated.
func (r *Registry) JoinRoom(connID, roomID uuid.UUID) error {
	r.mu.Lock()
	sess, ok := r.sessions[connID]
	if !ok {
		r.mu.Unlock()
		return apperr.New(apperr.Unauthorized, "connection is not authenticated")
	}
	sess.rooms[roomID] = true
	ident := sess.ident
	r.mu.Unlock()

	r.roster.Join(roomID, connID, ident)
	return nil
}

// LeaveRoom removes the connection's user from the room roster.
func (r *Registry) LeaveRoom(connID, roomID uuid.UUID) error {
	r.mu.Lock()
	sess, ok := r.sessions[connID]
	if !ok {
		r.mu.Unlock()
		return apperr.New(apperr.Unauthorized, "connection is not authenticated")
	}
	delete(sess.rooms, roomID)
	ident := sess.ident
	r.mu.Unlock()

	r.roster.Leave(roomID, ident.UserID)
	return nil
}

// IdentityOf returns the identity bound to connID.
func (r *Registry) IdentityOf(connID uuid.UUID) (Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[connID]
	if !ok {
		return Identity{}, false
	}
	return sess.ident, true
}

// IsOnline reports whether the user holds at least one live connection.
func (r *Registry) IsOnline(userID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.online[userID]
	return ok
}

// OnlineList returns the identities of every online user.
func (r *Registry) OnlineList() []Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Identity, 0, len(r.online))
	for _, u := range r.online {
		out = append(out, u.ident)
	}
	return out
}

func (r *Registry) broadcastOnline() {
	r.pub.PublishAll(broadcast.EventOnlineUsers, r.OnlineList())
}
