// Package events carries ATX state-changed notifications from the controller
// to subscribers such as the websocket stream.
package events

import (
	"sync"
	"time"

	"atxcontrol/pkg/atx"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TypeStateChanged is the event type of StateChanged
const TypeStateChanged = "atx.state_changed"

// StateChanged announces the current power status together with the full
// snapshot it was taken from.
type StateChanged struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	PowerStatus atx.PowerStatus `json:"power_status"`
	State       atx.State       `json:"state"`
	At          time.Time       `json:"at"`
}

// NewStateChanged builds an event for a snapshot taken at the given time
func NewStateChanged(state atx.State, at time.Time) StateChanged {
	return StateChanged{
		ID:          uuid.NewString(),
		Type:        TypeStateChanged,
		PowerStatus: state.PowerStatus,
		State:       state,
		At:          at,
	}
}

// Bus fans events out to subscribers. Publishing never blocks: a subscriber
// whose buffer is full misses the event.
type Bus struct {
	logger *zap.Logger

	mu        sync.RWMutex
	nextID    int
	listeners map[int]chan StateChanged
}

// NewBus creates an empty bus
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		logger:    logger.Named("events"),
		listeners: make(map[int]chan StateChanged),
	}
}

// Subscribe registers a listener with the given buffer size. The returned
// function unsubscribes and closes the channel; calling it twice is safe.
func (b *Bus) Subscribe(buffer int) (<-chan StateChanged, func()) {
	ch := make(chan StateChanged, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers event to every current subscriber
func (b *Bus) Publish(event StateChanged) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.listeners {
		select {
		case ch <- event:
		default:
			b.logger.Debug("Dropping event for slow subscriber",
				zap.Int("subscriber", id),
				zap.String("event_id", event.ID))
		}
	}
}

// Subscribers returns the number of registered listeners
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}
