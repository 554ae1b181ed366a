package broadcast

import (
	"sync"

	"github.com/google/uuid"
)

// Recorded is one captured publish call.
type Recorded struct {
	RoomID  uuid.UUID
	UserID  uuid.UUID
	Global  bool
	Event   Event
	Payload interface{}
}

// Recorder is a Publisher for tests. It captures every call in order.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) PublishRoom(roomID uuid.UUID, event Event, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Recorded{RoomID: roomID, Event: event, Payload: payload})
}

func (r *Recorder) PublishUser(userID uuid.UUID, event Event, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Recorded{UserID: userID, Event: event, Payload: payload})
}

func (r *Recorder) PublishAll(event Event, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Recorded{Global: true, Event: event, Payload: payload})
}

// All returns a copy of everything captured so far.
func (r *Recorder) All() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Recorded, len(r.events))
	copy(out, r.events)
	return out
}

// OfEvent filters captured calls by event type.
func (r *Recorder) OfEvent(event Event) []Recorded {
	var out []Recorded
	for _, e := range r.All() {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// Last returns the most recent call, or nil when nothing was published.
func (r *Recorder) Last() *Recorded {
	all := r.All()
	if len(all) == 0 {
		return nil
	}
	return &all[len(all)-1]
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
