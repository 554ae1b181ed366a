// Package notify persists notifications and pushes them to connected
// recipients. Persistence is authoritative; the live push is best-effort and
// its failure never surfaces to the caller.
package notify

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/koinonia-app/backend/internal/broadcast"
	"github.com/koinonia-app/backend/internal/metrics"
	"github.com/koinonia-app/backend/internal/models"
)

type Store interface {
	CreateNotification(n *models.Notification) error
	MarkRead(id uuid.UUID) error
	MarkAllRead(recipientID uuid.UUID) error
	DeleteNotification(id uuid.UUID) error
	DeleteChatInvite(recipientID, conversationID uuid.UUID) error
	ListNotifications(recipientID uuid.UUID, limit int) ([]models.Notification, error)
}

// OnlineChecker answers whether a user currently holds a live connection.
type OnlineChecker interface {
	IsOnline(userID uuid.UUID) bool
}

type Dispatcher struct {
	store  Store
	pub    broadcast.Publisher
	online OnlineChecker
}

// NewDispatcher creates a dispatcher. online may be nil, in which case the
// push is attempted unconditionally.
func NewDispatcher(store Store, pub broadcast.Publisher, online OnlineChecker) *Dispatcher {
	return &Dispatcher{store: store, pub: pub, online: online}
}

// Notify persists n and pushes it to the recipient's private channel when
// they are connected. Self-notifications are silently suppressed. Duplicate
// unread chat invitations are rejected by the storage layer's unique index
// and the resulting error is returned as-is.
func (d *Dispatcher) Notify(n *models.Notification) error {
	if n.RecipientID == n.SenderID {
		return nil
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if err := d.store.CreateNotification(n); err != nil {
		return err
	}
	metrics.NotificationsTotal.Inc()

	if d.online == nil || d.online.IsOnline(n.RecipientID) {
		d.pub.PublishUser(n.RecipientID, broadcast.EventNotification, n)
	} else {
		log.Debug().Str("recipient", n.RecipientID.String()).
			Msg("recipient offline, notification stored only")
	}
	return nil
}

func (d *Dispatcher) MarkRead(id uuid.UUID) error {
	return d.store.MarkRead(id)
}

func (d *Dispatcher) MarkAllRead(recipientID uuid.UUID) error {
	return d.store.MarkAllRead(recipientID)
}

func (d *Dispatcher) Delete(id uuid.UUID) error {
	return d.store.DeleteNotification(id)
}

// RetractChatInvite deletes the pending invitation notification for the pair
// once the invitation is accepted or rejected.
func (d *Dispatcher) RetractChatInvite(recipientID, conversationID uuid.UUID) error {
	return d.store.DeleteChatInvite(recipientID, conversationID)
}

func (d *Dispatcher) List(recipientID uuid.UUID, limit int) ([]models.Notification, error) {
	return d.store.ListNotifications(recipientID, limit)
}
