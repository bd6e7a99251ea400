package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/joho/godotenv"
	"github.com/yanun0323/logs"

	"main/internal/engine"
	"main/internal/errors"
	"main/internal/exec"
	"main/internal/feed"
	"main/internal/mdg"
	"main/internal/ops"
	"main/internal/recorder"
	"main/internal/state"
	"main/pkg/conn"
)

func main() {
	if err := run(); err != nil {
		logs.Errorf("trader: %v", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.json", "config file (json or yaml)")
	recoverMode := flag.Bool("recover", false, "rebuild the ledger from checkpoint + WAL before trading")
	tickInterval := flag.Duration("tick-interval", time.Millisecond, "synthetic feed publish interval")
	seed := flag.Int64("seed", time.Now().UnixNano(), "feed random walk seed")
	flag.Parse()

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if addr := os.Getenv("PYROSCOPE_ADDR"); addr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "mmengine.trader",
			ServerAddress:   addr,
			Tags:            map[string]string{"env": os.Getenv("ENV")},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			return errors.Wrap(err, "start profiler")
		}
		defer func() { _ = profiler.Stop() }()
	}

	loaded, err := ops.Load(*configPath)
	if err != nil {
		return err
	}

	sim := exec.NewSimulated(loaded.Executor)
	eng, err := engine.New(loaded.Engine, loaded.Strategy.Build(), sim)
	if err != nil {
		return err
	}

	if !loaded.WAL.Disable && loaded.WAL.Dir != "" {
		writer, err := recorder.NewWriter(recorder.DefaultConfig(loaded.WAL.Dir))
		if err != nil {
			return errors.Wrap(err, "open wal")
		}
		if err := writer.Start(ctx); err != nil {
			return errors.Wrap(err, "start wal")
		}
		defer func() { _ = writer.Close() }()
		eng.WithFillLog(writer)
	}

	if loaded.Journal.Enable {
		client, err := conn.New(conn.Option{
			Host:     loaded.Journal.Host,
			Port:     loaded.Journal.Port,
			User:     loaded.Journal.User,
			Password: loaded.Journal.Password,
			Database: loaded.Journal.Database,
		})
		if err != nil {
			return errors.Wrap(err, "connect journal database")
		}
		defer func() { _ = client.Close() }()

		journal, err := exec.NewJournal(client, loaded.Journal.QueueSize)
		if err != nil {
			return err
		}
		go journal.Run(ctx)
		defer journal.Close()
		eng.WithJournal(journal)
	}

	if *recoverMode && loaded.WAL.Dir != "" {
		res, err := state.RecoverPosition(ctx, state.RecoverConfig{
			WALDir:         loaded.WAL.Dir,
			CheckpointPath: loaded.WAL.CheckpointPath,
		})
		if err != nil {
			return errors.Wrap(err, "recover ledger")
		}
		eng.Position().Restore(res.Position.Snapshot())
		logs.Infof("ledger recovered, last_seq: %d, quantity: %d, realized: %d",
			res.LastSeq, res.Position.Quantity(), res.Position.RealizedPnL())
	}

	ring := feed.NewRing(loaded.RingSize)
	gen := mdg.NewGenerator(mdg.GeneratorConfig{
		MarketID: loaded.Engine.MarketID,
		Seed:     *seed,
	})
	go mdg.NewProducer(gen, ring, *tickInterval).Run(ctx)

	logs.Infof("trader started, market: %d, strategy: %s", loaded.Engine.MarketID, loaded.Strategy.Kind)
	runErr := eng.Run(ctx, ring)

	if loaded.WAL.CheckpointPath != "" {
		cp := state.NewCheckpoint(eng.Position(), eng.LastSequence(), eng.LastEventTs())
		if err := state.WriteCheckpoint(loaded.WAL.CheckpointPath, cp); err != nil {
			logs.Errorf("write checkpoint, err: %v", err)
		} else {
			logs.Infof("checkpoint written, path: %s, last_seq: %d", loaded.WAL.CheckpointPath, cp.LastSeq)
		}
	}

	snap := eng.Metrics().Snapshot()
	logs.Infof("session summary, ticks: %d, fills: %d, quotes: %d, denied: %d, skipped: %d",
		snap.Ticks, snap.FillsApplied, snap.QuotesSubmitted, snap.QuotesDenied, snap.SkippedInvalid)
	return runErr
}
