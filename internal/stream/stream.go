// Package stream fans events out to live subscribers such as SSE clients.
package stream

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultBuffer = 16

// Hub fan-outs events to all active subscribers. Slow subscribers miss events
// rather than block publishers.
type Hub[T any] struct {
	mu      sync.RWMutex
	subs    map[int]subscriber[T]
	next    int
	buffer  int
	dropped atomic.Uint64
}

type subscriber[T any] struct {
	ch     chan T
	filter func(T) bool
}

// New initialises an empty hub. A non-positive buffer uses the default.
func New[T any](buffer int) *Hub[T] {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub[T]{subs: make(map[int]subscriber[T]), buffer: buffer}
}

// Subscribe registers a subscriber and returns a channel which will receive
// the events accepted by filter (all events when filter is nil). The channel
// is closed when ctx ends.
func (h *Hub[T]) Subscribe(ctx context.Context, filter func(T) bool) <-chan T {
	ch := make(chan T, h.buffer)

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = subscriber[T]{ch: ch, filter: filter}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, id)
		close(ch)
		h.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs evt to all matching subscribers.
func (h *Hub[T]) Publish(evt T) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.filter != nil && !sub.filter(evt) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			h.dropped.Add(1)
		}
	}
}

// Subscribers reports the number of active subscribers.
func (h *Hub[T]) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped reports how many deliveries were skipped for full subscribers.
func (h *Hub[T]) Dropped() uint64 { return h.dropped.Load() }
