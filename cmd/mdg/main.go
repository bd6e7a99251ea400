package main

import (
	"bufio"
	"flag"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/logs"

	"main/internal/marketdata"
	"main/internal/mdg"
	"main/internal/schema"
	"main/pkg/fixed"
)

// Dumps synthetic market snapshots as JSON lines, one per tick. Useful
// for eyeballing the walk and for feeding fixture data to other tools.
func main() {
	ticks := flag.Int("ticks", 100, "number of snapshots to generate")
	interval := flag.Duration("interval", 0, "delay between snapshots")
	marketID := flag.Uint64("market", 1, "market identifier")
	mid := flag.String("mid", "50000", "starting mid price")
	stepBps := flag.Int64("step-bps", 5, "max mid move per tick in bps")
	spreadBps := flag.Int64("spread-bps", 4, "quoted spread in bps")
	fullEvery := flag.Int("full-every", 10, "full snapshot cadence")
	gapPM := flag.Int("gap-pm", 0, "injected sequence gaps per mille")
	dupPM := flag.Int("dup-pm", 0, "injected duplicates per mille")
	crossPM := flag.Int("cross-pm", 0, "injected crossed books per mille")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random walk seed")
	validate := flag.Bool("validate", false, "run each snapshot through the validator and report rejects")
	flag.Parse()

	startMid, err := fixed.FromString(*mid)
	if err != nil {
		logs.Errorf("parse mid, err: %v", err)
		os.Exit(1)
	}

	gen := mdg.NewGenerator(mdg.GeneratorConfig{
		MarketID:  *marketID,
		StartMid:  schema.Price(startMid),
		StepBps:   *stepBps,
		SpreadBps: *spreadBps,
		FullEvery: *fullEvery,
		Faults: mdg.Faults{
			GapPerMille:     *gapPM,
			DupPerMille:     *dupPM,
			CrossedPerMille: *crossPM,
		},
		Seed: *seed,
	})
	validator := marketdata.NewValidator(marketdata.ValidatorConfig{})

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	var rejects int
	for i := 0; i < *ticks; i++ {
		s := gen.Next(time.Now().UnixNano())
		if *validate {
			if verr := validator.Validate(&s); verr != nil {
				rejects++
				logs.Warnf("snapshot rejected, seq: %d, kind: %s", s.Sequence, verr.Kind)
			}
		}
		line, err := sonic.Marshal(&s)
		if err != nil {
			logs.Errorf("marshal snapshot, err: %v", err)
			os.Exit(1)
		}
		out.Write(line)
		out.WriteByte('\n')
		if *interval > 0 && i < *ticks-1 {
			out.Flush()
			time.Sleep(*interval)
		}
	}

	logs.Infof("generated %d snapshots, last_seq: %d, injected_gaps: %d, rejects: %d",
		*ticks, gen.Sequence(), gen.InjectedGaps(), rejects)
}
