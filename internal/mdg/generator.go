// Package mdg generates synthetic market snapshots: a bounded random
// walk with configurable fault injection for exercising the engine's
// validation and recovery paths.
package mdg

import (
	"math/rand"

	"main/internal/marketdata"
	"main/internal/schema"
)

// Faults sets injection rates in events per thousand snapshots. Zero
// disables a fault.
type Faults struct {
	GapPerMille     int
	DupPerMille     int
	CrossedPerMille int
	// MaxGap bounds the injected sequence jump.
	MaxGap uint64
}

// GeneratorConfig parameterizes the walk.
type GeneratorConfig struct {
	MarketID uint64
	// StartMid is the initial mid price, scaled.
	StartMid schema.Price
	// StepBps bounds the per-tick mid move.
	StepBps int64
	// SpreadBps is the quoted spread of generated books.
	SpreadBps int64
	// Size is the per-level size.
	Size schema.Quantity
	// FullEvery emits a full snapshot every n-th message; the rest are
	// incremental. Zero or one makes every snapshot full.
	FullEvery int
	Faults    Faults
	Seed      int64
}

// Generator walks the mid price and emits snapshots.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand

	mid   schema.Price
	seq   uint64
	count int

	lastDup  *schema.MarketSnapshot
	gapCount uint64
}

// NewGenerator creates a generator.
func NewGenerator(cfg GeneratorConfig) *Generator {
	if cfg.StartMid <= 0 {
		cfg.StartMid = schema.Price(50_000 * schema.FixedUnit)
	}
	if cfg.StepBps <= 0 {
		cfg.StepBps = 5
	}
	if cfg.SpreadBps <= 0 {
		cfg.SpreadBps = 4
	}
	if cfg.Size <= 0 {
		cfg.Size = schema.Quantity(5 * schema.FixedUnit)
	}
	if cfg.Faults.MaxGap == 0 {
		cfg.Faults.MaxGap = 50
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
		mid: cfg.StartMid,
	}
}

// Next produces the next snapshot, timestamped at nowNano. Injected
// faults mimic a lossy feed: skipped sequences, duplicates, and
// crossed books.
func (g *Generator) Next(nowNano int64) schema.MarketSnapshot {
	if g.lastDup != nil {
		s := *g.lastDup
		g.lastDup = nil
		return s
	}

	g.step()
	g.seq++
	if g.hit(g.cfg.Faults.GapPerMille) {
		jump := uint64(g.rng.Int63n(int64(g.cfg.Faults.MaxGap))) + 1
		g.seq += jump
		g.gapCount++
	}

	g.count++
	full := g.cfg.FullEvery <= 1 || g.count%g.cfg.FullEvery == 1

	b := marketdata.NewSnapshotBuilder(g.cfg.MarketID, g.seq).
		Mid(g.mid, g.cfg.SpreadBps, g.cfg.Size).
		Timestamps(nowNano, nowNano)
	if !full {
		b = b.Incremental()
	}
	s := b.Build()

	if g.hit(g.cfg.Faults.CrossedPerMille) {
		s.BestBidPrice, s.BestAskPrice = s.BestAskPrice, s.BestBidPrice
	}
	if g.hit(g.cfg.Faults.DupPerMille) {
		dup := s
		g.lastDup = &dup
	}
	return s
}

// Full produces a full snapshot at the current walk state, used to
// answer resync requests.
func (g *Generator) Full(nowNano int64) schema.MarketSnapshot {
	g.seq++
	return marketdata.NewSnapshotBuilder(g.cfg.MarketID, g.seq).
		Mid(g.mid, g.cfg.SpreadBps, g.cfg.Size).
		Timestamps(nowNano, nowNano).
		Build()
}

// InjectedGaps returns how many sequence gaps were injected.
func (g *Generator) InjectedGaps() uint64 {
	return g.gapCount
}

// Sequence returns the last emitted sequence.
func (g *Generator) Sequence() uint64 {
	return g.seq
}

func (g *Generator) step() {
	// Bounded random walk: up to StepBps per tick in either direction.
	bps := g.rng.Int63n(2*g.cfg.StepBps+1) - g.cfg.StepBps
	delta := int64(g.mid) / 10_000 * bps
	next := int64(g.mid) + delta
	if next < int64(schema.FixedUnit) {
		next = int64(schema.FixedUnit)
	}
	g.mid = schema.Price(next)
}

func (g *Generator) hit(perMille int) bool {
	return perMille > 0 && g.rng.Intn(1000) < perMille
}
