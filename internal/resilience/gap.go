package resilience

// GapDetector tracks sequence continuity on the market data stream.
// Sequences are uint64 and wrap around; the unsigned subtraction in
// Check keeps the gap math correct across the boundary.
type GapDetector struct {
	last       uint64
	primed     bool
	gaps       uint64
	duplicates uint64
	maxGap     uint64
}

// GapSeverity grades a gap by how much book state was likely lost.
type GapSeverity uint8

const (
	GapMinor GapSeverity = iota
	GapMajor
	GapCritical
)

func (s GapSeverity) String() string {
	switch s {
	case GapMinor:
		return "minor"
	case GapMajor:
		return "major"
	default:
		return "critical"
	}
}

// Severity classifies a gap returned by Check. Minor gaps are a few
// lost deltas; critical ones mean the book is unrecoverable without a
// full resync regardless of what the buffer still holds.
func Severity(gap uint64) GapSeverity {
	switch {
	case gap <= 10:
		return GapMinor
	case gap <= 1000:
		return GapMajor
	default:
		return GapCritical
	}
}

// GapStats is a point-in-time view of the detector.
type GapStats struct {
	Last       uint64
	Gaps       uint64
	Duplicates uint64
	MaxGap     uint64
}

// NewGapDetector creates an unprimed detector; the first sequence it
// sees becomes the baseline.
func NewGapDetector() *GapDetector {
	return &GapDetector{}
}

// Check records a received sequence and returns the number of missed
// messages since the last one. The first message and duplicates return
// zero. gap = received - last - 1 in uint64: consecutive sequences
// yield zero and a legitimate wraparound yields the small true gap
// instead of a huge bogus one.
func (d *GapDetector) Check(received uint64) uint64 {
	if !d.primed {
		d.primed = true
		d.last = received
		return 0
	}
	if received == d.last {
		d.duplicates++
		return 0
	}

	gap := received - d.last - 1
	d.last = received
	if gap > 0 {
		d.gaps++
		if gap > d.maxGap {
			d.maxGap = gap
		}
	}
	return gap
}

// ResetAt re-bases the detector after a resync. The next Check against
// seq+1 reports no gap.
func (d *GapDetector) ResetAt(seq uint64) {
	d.primed = true
	d.last = seq
}

// Stats returns counters for observability.
func (d *GapDetector) Stats() GapStats {
	return GapStats{
		Last:       d.last,
		Gaps:       d.gaps,
		Duplicates: d.duplicates,
		MaxGap:     d.maxGap,
	}
}
