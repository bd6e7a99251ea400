// Package chaos perturbs a snapshot stream at the transport layer:
// drops, duplicates, reordering, and receive-time delay. It sits
// between a generator and the feed ring to exercise the engine's
// validation and recovery paths under a hostile feed.
package chaos

import (
	"fmt"
	"math/rand"
	"time"

	"main/internal/schema"
)

// Config controls injection behavior. Rates are probabilities in
// [0, 1].
type Config struct {
	Seed          int64
	DropRate      float64
	DuplicateRate float64
	// ReorderWindow buffers this many snapshots and releases them in
	// random order. 1 disables reordering.
	ReorderWindow int
	// MaxDelay shifts LocalTsNano forward by a random amount, making
	// snapshots look late to the staleness breaker.
	MaxDelay time.Duration
}

// Validate ensures the config is within supported ranges.
func (c Config) Validate() error {
	if c.DropRate < 0 || c.DropRate > 1 {
		return fmt.Errorf("dropRate must be between 0 and 1")
	}
	if c.DuplicateRate < 0 || c.DuplicateRate > 1 {
		return fmt.Errorf("duplicateRate must be between 0 and 1")
	}
	if c.ReorderWindow <= 0 {
		return fmt.Errorf("reorderWindow must be >= 1")
	}
	if c.MaxDelay < 0 {
		return fmt.Errorf("maxDelay must be >= 0")
	}
	return nil
}

// Engine applies chaos rules to snapshots.
type Engine struct {
	cfg     Config
	rng     *rand.Rand
	pending []schema.MarketSnapshot
	dropped uint64
}

// NewEngine creates a chaos engine with validation.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.ReorderWindow <= 0 {
		cfg.ReorderWindow = 1
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UTC().UnixNano()
	}
	return &Engine{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Process applies chaos to one snapshot and returns what should reach
// the feed: nothing on a drop, possibly several on duplication or a
// full reorder window.
func (e *Engine) Process(s schema.MarketSnapshot) []schema.MarketSnapshot {
	if e == nil {
		return []schema.MarketSnapshot{s}
	}
	if e.shouldDrop() {
		e.dropped++
		return nil
	}
	s = e.applyDelay(s)
	if e.cfg.ReorderWindow <= 1 {
		return e.applyDuplicate(s)
	}
	e.pending = append(e.pending, s)
	if len(e.pending) < e.cfg.ReorderWindow {
		return nil
	}
	idx := e.rng.Intn(len(e.pending))
	out := e.pending[idx]
	e.pending = append(e.pending[:idx], e.pending[idx+1:]...)
	return e.applyDuplicate(out)
}

// Flush releases any buffered snapshots after the stream ends.
func (e *Engine) Flush() []schema.MarketSnapshot {
	if e == nil || len(e.pending) == 0 {
		return nil
	}
	out := make([]schema.MarketSnapshot, 0, len(e.pending))
	for len(e.pending) > 0 {
		idx := e.rng.Intn(len(e.pending))
		s := e.pending[idx]
		e.pending = append(e.pending[:idx], e.pending[idx+1:]...)
		out = append(out, e.applyDuplicate(s)...)
	}
	return out
}

// Dropped returns how many snapshots were swallowed.
func (e *Engine) Dropped() uint64 {
	if e == nil {
		return 0
	}
	return e.dropped
}

func (e *Engine) shouldDrop() bool {
	return e.cfg.DropRate > 0 && e.rng.Float64() < e.cfg.DropRate
}

func (e *Engine) applyDuplicate(s schema.MarketSnapshot) []schema.MarketSnapshot {
	out := []schema.MarketSnapshot{s}
	if e.cfg.DuplicateRate > 0 && e.rng.Float64() < e.cfg.DuplicateRate {
		out = append(out, s)
	}
	return out
}

func (e *Engine) applyDelay(s schema.MarketSnapshot) schema.MarketSnapshot {
	if e.cfg.MaxDelay <= 0 {
		return s
	}
	maxDelay := e.cfg.MaxDelay.Nanoseconds()
	delay := e.rng.Int63n(maxDelay + 1)
	if delay == 0 {
		return s
	}
	if s.LocalTsNano > 0 {
		s.LocalTsNano += delay
		return s
	}
	if s.ExchangeTsNano > 0 {
		s.LocalTsNano = s.ExchangeTsNano + delay
	}
	return s
}
