package generation

import (
	"sync"

	"github.com/promptforge/promptforge-backend/internal/element"
)

// EventKind discriminates the payload of an Event.
type EventKind string

const (
	EventPhase    EventKind = "phase"
	EventChunk    EventKind = "chunk"
	EventProgress EventKind = "progress"
)

// Event is one generation-progress notification. Phase events report a state
// transition for a field, chunk events carry a streamed text fragment, and
// progress events carry the batch completion ratio.
type Event struct {
	Kind     EventKind    `json:"kind"`
	Field    element.Type `json:"field,omitempty"`
	Phase    Phase        `json:"phase,omitempty"`
	Content  string       `json:"content,omitempty"`
	Error    string       `json:"error,omitempty"`
	Progress float64      `json:"progress,omitempty"`
}

// Bus fans generation events out to subscribers. Delivery is fire-and-forget:
// publishing never blocks, and a subscriber whose channel is full misses that
// event rather than stalling the producer.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a new consumer. The returned cancel func must be called
// when the consumer is done; it closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers ev to every current subscriber without blocking.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
