package broadcast

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const (
	subjectRoomPrefix = "koinonia.room."
	subjectUserPrefix = "koinonia.user."
	subjectGlobal     = "koinonia.global"
)

type envelope struct {
	Event   Event           `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NATSBridge relays publishes through NATS so every instance, including the
// publishing one, delivers them via its local Publisher. Required for
// multi-instance deployments; a single process runs fine without it.
type NATSBridge struct {
	nc    *nats.Conn
	local Publisher
	subs  []*nats.Subscription
}

func NewNATSBridge(url string, local Publisher) (*NATSBridge, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSBridge{nc: nc, local: local}, nil
}

// Run subscribes to the room, user, and global subjects and forwards inbound
// envelopes to the local publisher.
func (b *NATSBridge) Run() error {
	roomSub, err := b.nc.Subscribe(subjectRoomPrefix+"*", func(msg *nats.Msg) {
		id, env, ok := decode(msg, subjectRoomPrefix)
		if !ok {
			return
		}
		b.local.PublishRoom(id, env.Event, env.Payload)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to room subjects: %w", err)
	}

	userSub, err := b.nc.Subscribe(subjectUserPrefix+"*", func(msg *nats.Msg) {
		id, env, ok := decode(msg, subjectUserPrefix)
		if !ok {
			return
		}
		b.local.PublishUser(id, env.Event, env.Payload)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to user subjects: %w", err)
	}

	globalSub, err := b.nc.Subscribe(subjectGlobal, func(msg *nats.Msg) {
		var env envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			log.Warn().Err(err).Msg("dropping malformed global envelope")
			return
		}
		b.local.PublishAll(env.Event, env.Payload)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to global subject: %w", err)
	}

	b.subs = append(b.subs, roomSub, userSub, globalSub)
	return nil
}

func (b *NATSBridge) PublishRoom(roomID uuid.UUID, event Event, payload interface{}) {
	b.publish(subjectRoomPrefix+roomID.String(), event, payload)
}

func (b *NATSBridge) PublishUser(userID uuid.UUID, event Event, payload interface{}) {
	b.publish(subjectUserPrefix+userID.String(), event, payload)
}

func (b *NATSBridge) PublishAll(event Event, payload interface{}) {
	b.publish(subjectGlobal, event, payload)
}

func (b *NATSBridge) publish(subject string, event Event, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("failed to marshal broadcast payload")
		return
	}
	data, err := json.Marshal(envelope{Event: event, Payload: raw})
	if err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("failed to marshal broadcast envelope")
		return
	}
	if err := b.nc.Publish(subject, data); err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("failed to publish broadcast")
	}
}

func (b *NATSBridge) Close() {
	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	b.nc.Close()
}

func decode(msg *nats.Msg, prefix string) (uuid.UUID, envelope, bool) {
	id, err := uuid.Parse(msg.Subject[len(prefix):])
	if err != nil {
		log.Warn().Str("subject", msg.Subject).Msg("dropping envelope with bad subject id")
		return uuid.Nil, envelope{}, false
	}
	var env envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		log.Warn().Err(err).Str("subject", msg.Subject).Msg("dropping malformed envelope")
		return uuid.Nil, envelope{}, false
	}
	return id, env, true
}
