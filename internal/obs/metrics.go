package obs

import (
	"sync/atomic"
	"time"

	"main/internal/schema"
)

const maxRiskReason = int(schema.RiskReasonDrawdown)

// Metrics collects lightweight counters and latency stats for the
// engine loop. All methods are safe from any goroutine and never
// allocate.
type Metrics struct {
	ticks           uint64
	skippedInvalid  uint64
	gapsRecovered   uint64
	fillsApplied    uint64
	fillErrors      uint64
	quotesSubmitted uint64
	quotesDenied    uint64
	staleSkips      uint64
	desyncSkips     uint64
	haltTicks       uint64

	riskReasonCounts [maxRiskReason + 1]uint64

	tickLatency LatencyStats
	feedLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	Ticks           uint64
	SkippedInvalid  uint64
	GapsRecovered   uint64
	FillsApplied    uint64
	FillErrors      uint64
	QuotesSubmitted uint64
	QuotesDenied    uint64
	StaleSkips      uint64
	DesyncSkips     uint64
	HaltTicks       uint64

	RiskReasonCounts map[schema.RiskReason]uint64

	TickLatency LatencySnapshot
	FeedLatency LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncTick counts one processed snapshot.
func (m *Metrics) IncTick() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ticks, 1)
}

// IncSkippedInvalid counts a snapshot rejected by validation.
func (m *Metrics) IncSkippedInvalid() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.skippedInvalid, 1)
}

// IncGapRecovered counts a completed gap recovery.
func (m *Metrics) IncGapRecovered() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.gapsRecovered, 1)
}

// IncFillApplied counts a fill applied to the ledger.
func (m *Metrics) IncFillApplied() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.fillsApplied, 1)
}

// IncFillError counts a fill that could not be applied.
func (m *Metrics) IncFillError() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.fillErrors, 1)
}

// IncQuoteSubmitted counts one submitted order.
func (m *Metrics) IncQuoteSubmitted() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.quotesSubmitted, 1)
}

// IncQuoteDenied counts a signal denied by risk, tagged with the
// reason.
func (m *Metrics) IncQuoteDenied(reason schema.RiskReason) {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.quotesDenied, 1)
	idx := int(reason)
	if idx >= 0 && idx < len(m.riskReasonCounts) {
		atomic.AddUint64(&m.riskReasonCounts[idx], 1)
	}
}

// IncStaleSkip counts a tick where quoting stood down on stale data.
func (m *Metrics) IncStaleSkip() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.staleSkips, 1)
}

// IncDesyncSkip counts a tick where quoting stood down on a book that
// lost sync after a failed gap recovery.
func (m *Metrics) IncDesyncSkip() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.desyncSkips, 1)
}

// IncHaltTick counts a tick processed while trading was halted.
func (m *Metrics) IncHaltTick() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.haltTicks, 1)
}

// ObserveTick measures one pass through the engine loop.
func (m *Metrics) ObserveTick(d time.Duration) {
	if m == nil {
		return
	}
	m.tickLatency.Observe(d)
}

// ObserveFeedLatency measures exchange-to-local snapshot delay.
func (m *Metrics) ObserveFeedLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.feedLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	riskCounts := make(map[schema.RiskReason]uint64)
	for i := range m.riskReasonCounts {
		if v := atomic.LoadUint64(&m.riskReasonCounts[i]); v > 0 {
			riskCounts[schema.RiskReason(i)] = v
		}
	}
	return Snapshot{
		Ticks:            atomic.LoadUint64(&m.ticks),
		SkippedInvalid:   atomic.LoadUint64(&m.skippedInvalid),
		GapsRecovered:    atomic.LoadUint64(&m.gapsRecovered),
		FillsApplied:     atomic.LoadUint64(&m.fillsApplied),
		FillErrors:       atomic.LoadUint64(&m.fillErrors),
		QuotesSubmitted:  atomic.LoadUint64(&m.quotesSubmitted),
		QuotesDenied:     atomic.LoadUint64(&m.quotesDenied),
		StaleSkips:       atomic.LoadUint64(&m.staleSkips),
		DesyncSkips:      atomic.LoadUint64(&m.desyncSkips),
		HaltTicks:        atomic.LoadUint64(&m.haltTicks),
		RiskReasonCounts: riskCounts,
		TickLatency:      m.tickLatency.Snapshot(),
		FeedLatency:      m.feedLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
