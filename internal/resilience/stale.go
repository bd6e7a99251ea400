package resilience

import "time"

// Freshness classifies the market data stream.
type Freshness uint8

const (
	// FreshnessFresh means data is current and trading may proceed.
	FreshnessFresh Freshness = iota
	// FreshnessStale means the last message is older than MaxAge;
	// quoting must stop until fresh data arrives.
	FreshnessStale
	// FreshnessOffline means the feed returned nothing for too many
	// polls in a row; the producer is presumed gone.
	FreshnessOffline
)

func (f Freshness) String() string {
	switch f {
	case FreshnessFresh:
		return "fresh"
	case FreshnessStale:
		return "stale"
	case FreshnessOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// StaleBreakerConfig bounds how old data may get.
type StaleBreakerConfig struct {
	// MaxAge is the oldest acceptable last-message age.
	MaxAge time.Duration
	// MaxEmptyPolls is how many consecutive empty polls are tolerated
	// before the feed counts as offline.
	MaxEmptyPolls int
}

// StaleBreaker tracks whether the feed is fresh enough to trade on.
// It is driven by the engine loop: MarkFresh on every valid message,
// MarkEmptyPoll on every empty poll.
type StaleBreaker struct {
	cfg        StaleBreakerConfig
	lastTsNano int64
	emptyPolls int
}

// NewStaleBreaker creates a breaker; until the first MarkFresh the
// stream counts as stale.
func NewStaleBreaker(cfg StaleBreakerConfig) *StaleBreaker {
	return &StaleBreaker{cfg: cfg}
}

// MarkFresh records a message timestamped tsNano and clears the empty
// poll run.
func (b *StaleBreaker) MarkFresh(tsNano int64) {
	b.lastTsNano = tsNano
	b.emptyPolls = 0
}

// MarkEmptyPoll records a poll that returned no data.
func (b *StaleBreaker) MarkEmptyPoll() {
	b.emptyPolls++
}

// State classifies the stream at time nowNano. Offline wins over
// stale.
func (b *StaleBreaker) State(nowNano int64) Freshness {
	if b.cfg.MaxEmptyPolls > 0 && b.emptyPolls > b.cfg.MaxEmptyPolls {
		return FreshnessOffline
	}
	if b.lastTsNano == 0 {
		return FreshnessStale
	}
	if b.cfg.MaxAge > 0 && nowNano-b.lastTsNano > int64(b.cfg.MaxAge) {
		return FreshnessStale
	}
	return FreshnessFresh
}

// IsFresh reports whether trading may proceed at time nowNano.
func (b *StaleBreaker) IsFresh(nowNano int64) bool {
	return b.State(nowNano) == FreshnessFresh
}
