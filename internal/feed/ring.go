// Package feed carries market snapshots from the producer to the
// engine through a lossy ring buffer. The producer never blocks: when
// the consumer falls behind, the oldest unread snapshots are
// overwritten and counted.
package feed

import (
	"sync"
	"sync/atomic"

	"main/internal/schema"
	"main/pkg/exception"
)

// Ring is a bounded snapshot buffer with an absolute read cursor. The
// cursor can be saved and rewound as long as the slots it covers have
// not been overwritten, which is what the gap recovery protocol relies
// on.
type Ring struct {
	mu   sync.Mutex
	buf  []schema.MarketSnapshot
	head uint64 // next write position
	tail uint64 // next read position

	dropped atomic.Uint64
	resync  atomic.Uint32
}

// NewRing allocates a ring. Capacity is rounded up to a power of two.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 1
	}
	size := 1
	for size < capacity {
		size <<= 1
	}
	return &Ring{buf: make([]schema.MarketSnapshot, size)}
}

// Publish writes a snapshot, overwriting the oldest unread slot when
// the ring is full.
func (r *Ring) Publish(s schema.MarketSnapshot) {
	r.mu.Lock()
	r.buf[r.head&uint64(len(r.buf)-1)] = s
	r.head++
	if r.head-r.tail > uint64(len(r.buf)) {
		r.tail = r.head - uint64(len(r.buf))
		r.dropped.Add(1)
	}
	r.mu.Unlock()
}

// Poll returns the next unread snapshot without blocking.
func (r *Ring) Poll() (schema.MarketSnapshot, bool) {
	r.mu.Lock()
	if r.tail == r.head {
		r.mu.Unlock()
		return schema.MarketSnapshot{}, false
	}
	s := r.buf[r.tail&uint64(len(r.buf)-1)]
	r.tail++
	r.mu.Unlock()
	return s, true
}

// Cursor returns the current read position.
func (r *Ring) Cursor() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tail
}

// RewindTo moves the read position back to a saved cursor. It fails
// when the producer has already overwritten slots at or after the
// cursor; the data is gone and the caller must treat the rewind as a
// lost-data event.
func (r *Ring) RewindTo(cursor uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cursor > r.tail {
		return exception.ErrInvalidArgument
	}
	if r.head-cursor > uint64(len(r.buf)) {
		return exception.ErrCursorOverwritten
	}
	r.tail = cursor
	return nil
}

// RequestResync raises the resync flag for the producer.
func (r *Ring) RequestResync() {
	r.resync.Store(1)
}

// TakeResyncRequest consumes a pending resync request. The producer
// polls this and answers with a full snapshot.
func (r *Ring) TakeResyncRequest() bool {
	return r.resync.CompareAndSwap(1, 0)
}

// Dropped returns how many unread snapshots were overwritten.
func (r *Ring) Dropped() uint64 {
	return r.dropped.Load()
}

// Len returns the number of unread snapshots.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int(r.head - r.tail)
}
