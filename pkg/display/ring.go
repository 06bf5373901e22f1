package display

import "sync"

// DefaultQueueCapacity is the ring size used when none is configured.
const DefaultQueueCapacity = 16

// RingBuffer is a fixed-size event queue. When full, Add overwrites the oldest
// event. It is safe for one producer and one consumer on different goroutines.
type RingBuffer struct {
	mu      sync.Mutex
	buf     []Event
	head    int
	size    int
	dropped uint64
}

// NewRingBuffer creates a ring with the given capacity (DefaultQueueCapacity if
// capacity <= 0).
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &RingBuffer{buf: make([]Event, capacity)}
}

// Add implements Queue. It returns false when an older event was overwritten.
func (r *RingBuffer) Add(ev Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	tail := (r.head + r.size) % len(r.buf)
	r.buf[tail] = ev
	if r.size < len(r.buf) {
		r.size++
		return true
	}
	r.head = (r.head + 1) % len(r.buf)
	r.dropped++
	return false
}

// Pop removes and returns the oldest event.
func (r *RingBuffer) Pop() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size == 0 {
		return Event{}, false
	}
	ev := r.buf[r.head]
	r.buf[r.head] = Event{}
	r.head = (r.head + 1) % len(r.buf)
	r.size--
	return ev, true
}

// Len returns the number of queued events.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Cap returns the ring capacity.
func (r *RingBuffer) Cap() int {
	return len(r.buf)
}

// Dropped returns how many events were overwritten before being read.
func (r *RingBuffer) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
