package events

import (
	"sync"
	"sync/atomic"
)

const subscriberBuffer = 16

// Hub fans run events out to subscribers. A subscriber whose buffer is full
// misses the event; publishers never block.
type Hub struct {
	mu      sync.Mutex
	subs    map[int]chan Event
	next    int
	dropped atomic.Int64
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event)}
}

// Subscribe returns the event channel and a cancel func that closes it.
// Cancel may be called more than once.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Publish(e Event) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- e:
		default:
			h.dropped.Add(1)
		}
	}
}

// Subscribers is the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Dropped counts deliveries skipped because a subscriber was behind.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
