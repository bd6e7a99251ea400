package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/chaos"
	"main/internal/engine"
	"main/internal/exec"
	"main/internal/feed"
	"main/internal/marketdata"
	"main/internal/mdg"
	"main/internal/resilience"
	"main/internal/risk"
	"main/internal/schema"
	"main/internal/strategy"
)

// Soak-tests the engine against a hostile feed: a synthetic generator
// with injected gaps and crossed books, fed through a chaos layer that
// drops, duplicates, reorders, and delays snapshots. Prints the
// engine's metrics and final position at the end.
func main() {
	ticks := flag.Int("ticks", 10_000, "snapshots to push through the engine")
	seed := flag.Int64("seed", 0, "rng seed (0=now)")
	dropRate := flag.Float64("drop-rate", 0.01, "drop probability [0-1]")
	dupRate := flag.Float64("dup-rate", 0.01, "duplicate probability [0-1]")
	reorderWindow := flag.Int("reorder-window", 1, "reorder window (>=1)")
	maxDelay := flag.Duration("max-delay", 0, "max receive delay")
	gapPM := flag.Int("gap-pm", 20, "injected sequence gaps per mille")
	crossPM := flag.Int("cross-pm", 10, "injected crossed books per mille")
	flag.Parse()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	perturb, err := chaos.NewEngine(chaos.Config{
		Seed:          *seed,
		DropRate:      *dropRate,
		DuplicateRate: *dupRate,
		ReorderWindow: *reorderWindow,
		MaxDelay:      *maxDelay,
	})
	if err != nil {
		logs.Errorf("chaos config invalid, err: %v", err)
		os.Exit(1)
	}

	gen := mdg.NewGenerator(mdg.GeneratorConfig{
		MarketID:  1,
		FullEvery: 20,
		Faults:    mdg.Faults{GapPerMille: *gapPM, CrossedPerMille: *crossPM},
		Seed:      *seed,
	})

	const unit = schema.FixedUnit
	eng, err := engine.New(engine.Config{
		MarketID:  1,
		Validator: marketdata.ValidatorConfig{},
		Stale:     resilience.StaleBreakerConfig{MaxAge: time.Hour, MaxEmptyPolls: 1 << 20},
		Recovery:  resilience.RecoveryConfig{Timeout: time.Second},
		Limits: risk.Limits{
			MaxPosition:  schema.Quantity(100 * unit),
			MaxShort:     schema.Quantity(100 * unit),
			MaxOrderSize: schema.Quantity(10 * unit),
		},
		MaxJumpBps: 2000,
	}, strategy.NewSimpleSpread(strategy.SpreadConfig{
		SpreadBps:              10,
		QuoteSize:              schema.Quantity(unit),
		MinProfitableSpreadBps: 1,
	}), exec.NewSimulated(exec.SimulatedConfig{FeeBps: 2}))
	if err != nil {
		logs.Errorf("engine init, err: %v", err)
		os.Exit(1)
	}

	ctx := context.Background()
	rsf := &inlineResyncFeed{Ring: feed.NewRing(4096), gen: gen}

	push := func(s schema.MarketSnapshot) bool {
		rsf.now = s.LocalTsNano
		if err := eng.ProcessTick(ctx, rsf, &s); err != nil {
			logs.Errorf("fatal at seq %d, err: %v", s.Sequence, err)
			return false
		}
		// Drain anything buffered during a recovery rewind.
		for {
			buffered, ok := rsf.Poll()
			if !ok {
				return true
			}
			if err := eng.ProcessTick(ctx, rsf, &buffered); err != nil {
				logs.Errorf("fatal at seq %d, err: %v", buffered.Sequence, err)
				return false
			}
		}
	}

	now := time.Now().UnixNano()
	ok := true
	for i := 0; ok && i < *ticks; i++ {
		now += int64(time.Millisecond)
		for _, s := range perturb.Process(gen.Next(now)) {
			if ok = push(s); !ok {
				break
			}
		}
	}
	if ok {
		for _, s := range perturb.Flush() {
			if ok = push(s); !ok {
				break
			}
		}
	}

	m := eng.Metrics().Snapshot()
	view := eng.Position().Snapshot()
	logs.Infof("soak done, ticks: %d, dropped: %d, skipped_invalid: %d, gaps_recovered: %d, quotes: %d, fills: %d, halt_ticks: %d",
		m.Ticks, perturb.Dropped(), m.SkippedInvalid, m.GapsRecovered, m.QuotesSubmitted, m.FillsApplied, m.HaltTicks)
	logs.Infof("final position, quantity: %d, realized: %d, trades: %d",
		view.Quantity, view.RealizedPnL, view.TradeCount)
	if !ok {
		os.Exit(1)
	}
}

// inlineResyncFeed answers resync requests immediately with a full
// snapshot so gap recovery resolves synchronously: there is no
// producer goroutine in this tool.
type inlineResyncFeed struct {
	*feed.Ring
	gen *mdg.Generator
	now int64
}

func (f *inlineResyncFeed) RequestResync() {
	f.Ring.RequestResync()
	if f.Ring.TakeResyncRequest() {
		f.Ring.Publish(f.gen.Full(f.now))
	}
}
