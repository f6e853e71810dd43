package storage

import (
	"sync"

	"github.com/rosterforge/roster-core/pkg/roster"
)

// changeBufferSize bounds how many undelivered changes a slow
// subscriber can accumulate before new publishes start dropping for it.
// Delivery is not guaranteed: when a subscriber's buffer is full the
// event is dropped for that subscriber rather than blocking the
// publisher, and it is not redelivered.
const changeBufferSize = 256

// Bus is an in-process pub/sub of org-scoped change events, grounded on
// the teacher's `EventService.Subscribe(userID) (<-chan Event, func(),
// error)` SSE pattern (internal/api/events.go), generalized from
// per-user task events to per-org assignment-mutation events (spec §6
// "Change bus").
type Bus struct {
	mu          sync.Mutex
	subscribers map[int]chan roster.ChangeEvent
	nextID      int
}

func NewBus() *Bus {
	return &Bus{subscribers: make(map[int]chan roster.ChangeEvent)}
}

// Subscribe registers a new listener and returns its channel plus an
// unsubscribe func. The channel is buffered; callers must drain it
// promptly to avoid dropped events.
func (b *Bus) Subscribe() (<-chan roster.ChangeEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan roster.ChangeEvent, changeBufferSize)
	b.subscribers[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(existing)
		}
	}
	return ch, unsubscribe
}

// Publish implements roster.AssignmentStore's PublishChange: it fans the
// event out to every current subscriber, dropping it for any subscriber
// whose buffer is full rather than blocking the caller.
func (b *Bus) Publish(event roster.ChangeEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// slow subscriber; drop rather than block the assignment
			// transaction that is publishing this event.
		}
	}
	return nil
}

// ActiveSubscribers reports the current subscriber count, mirroring the
// teacher's EventService.GetActiveSubscribers for health/metrics use.
func (b *Bus) ActiveSubscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
