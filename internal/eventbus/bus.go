// Package eventbus implements the process-wide broadcast channel that
// carries typed system events between the pipeline, scanners, and
// scheduler: a single in-process fan-out with a mutex-guarded subscriber
// map, in place of a transport-level agent registry.
package eventbus

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

const defaultBacklog = 64

// Bus is a cloneable handle onto a single shared broadcast channel.
type Bus struct {
	state *state
}

type state struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
	backlog     int
	closed      atomic.Bool
}

// New creates an event bus with the default per-subscriber backlog.
func New() Bus {
	return NewWithBacklog(defaultBacklog)
}

// NewWithBacklog creates an event bus with a custom per-subscriber backlog.
func NewWithBacklog(backlog int) Bus {
	if backlog <= 0 {
		backlog = defaultBacklog
	}
	return Bus{state: &state{
		subscribers: make(map[string]chan Event),
		backlog:     backlog,
	}}
}

// Subscribe registers a new subscriber and returns its receive channel plus
// an unsubscribe function. The channel is closed once Unsubscribe is
// called.
func (b Bus) Subscribe() (<-chan Event, func()) {
	id := uuid.NewString()
	ch := make(chan Event, b.state.backlog)

	b.state.mu.Lock()
	b.state.subscribers[id] = ch
	b.state.mu.Unlock()

	unsubscribe := func() {
		b.state.mu.Lock()
		if existing, ok := b.state.subscribers[id]; ok {
			delete(b.state.subscribers, id)
			close(existing)
		}
		b.state.mu.Unlock()
	}
	return ch, unsubscribe
}

// Publish broadcasts an event to every current subscriber. Publishing with
// zero subscribers is a no-op, never an error. A subscriber whose backlog
// is full has the event dropped for it rather than blocking the publisher.
func (b Bus) Publish(evt Event) {
	b.state.mu.RLock()
	defer b.state.mu.RUnlock()

	for _, ch := range b.state.subscribers {
		select {
		case ch <- evt:
		default:
			// Slow subscriber: drop rather than block the publisher.
		}
	}
}

// SubscriberCount returns the current number of live subscribers.
func (b Bus) SubscriberCount() int {
	b.state.mu.RLock()
	defer b.state.mu.RUnlock()
	return len(b.state.subscribers)
}
