package obs

import (
	"sync/atomic"
	"time"
)

// TraceGenerator hands out monotonically increasing trace IDs so a
// fill can be followed from the executor through the journal.
type TraceGenerator struct {
	next uint64
}

// NewTraceGenerator seeds a generator. A zero seed uses the wall clock
// so IDs stay unique across restarts.
func NewTraceGenerator(seed uint64) *TraceGenerator {
	if seed == 0 {
		seed = uint64(time.Now().UTC().UnixNano())
	}
	return &TraceGenerator{next: seed}
}

// Next returns the next trace ID.
func (g *TraceGenerator) Next() uint64 {
	if g == nil {
		return 0
	}
	return atomic.AddUint64(&g.next, 1)
}
