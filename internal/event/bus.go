package event

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-storefront-admin/internal/metrics"
)

const defaultBuffer = 100

type subscription struct {
	ch    chan Event
	types map[Type]struct{}
}

func (s *subscription) wants(t Type) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[t]
	return ok
}

// InMemoryBus fans events out to buffered subscriber channels. Publish never
// blocks: it runs from commit hooks, so a full subscriber loses the event.
type InMemoryBus struct {
	mu     sync.RWMutex
	subs   map[string]*subscription
	buffer int
}

func NewBus(buffer int) *InMemoryBus {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &InMemoryBus{subs: map[string]*subscription{}, buffer: buffer}
}

func (b *InMemoryBus) Publish(e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp == "" {
		e.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, sub := range b.subs {
		if !sub.wants(e.Type) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			metrics.EventDropped(string(e.Type))
			slog.Warn("event dropped for slow subscriber", "subscriber", id, "type", e.Type)
		}
	}
}

// Subscribe registers a listener for the given types, or for every type when
// none are given. The returned func closes the channel and is idempotent.
func (b *InMemoryBus) Subscribe(types ...Type) (<-chan Event, func()) {
	sub := &subscription{ch: make(chan Event, b.buffer), types: map[Type]struct{}{}}
	for _, t := range types {
		sub.types[t] = struct{}{}
	}

	id := uuid.NewString()
	b.mu.Lock()
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(sub.ch)
		})
	}
}
