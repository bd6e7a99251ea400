package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/yanun0323/logs"

	"main/internal/codec"
	"main/internal/recorder"
	"main/internal/schema"
	"main/internal/state"
)

// Replays a WAL directory: lists events, optionally decodes payloads,
// and with -verify rebuilds the ledger and checks it against a
// checkpoint file.
func main() {
	dir := flag.String("dir", "data/wal", "WAL directory")
	prefix := flag.String("prefix", "", "WAL file prefix (default: wal)")
	speed := flag.Float64("speed", 0, "playback speed (1=real-time, 0=no pacing)")
	useRecv := flag.Bool("use-recv-time", false, "pace on receive timestamps")
	noChecksum := flag.Bool("no-checksum", false, "skip checksum validation")
	decode := flag.Bool("decode", false, "decode known payload types")
	verify := flag.String("verify", "", "checkpoint path to verify the rebuilt ledger against")
	flag.Parse()

	ctx := context.Background()

	if *verify != "" {
		if err := verifyLedger(ctx, *dir, *prefix, *verify, *noChecksum); err != nil {
			logs.Errorf("verify failed, err: %v", err)
			os.Exit(1)
		}
		logs.Infof("ledger matches checkpoint, path: %s", *verify)
		return
	}

	pb, err := recorder.NewPlayback(recorder.PlaybackConfig{
		Dir:             *dir,
		FilePrefix:      *prefix,
		Speed:           *speed,
		UseRecvTime:     *useRecv,
		DisableChecksum: *noChecksum,
	})
	if err != nil {
		logs.Errorf("open wal, err: %v", err)
		os.Exit(1)
	}

	var index int
	err = pb.Run(ctx, func(header schema.EventHeader, payload []byte) error {
		index++
		fmt.Printf("%06d seq=%d type=%s ts_event=%d ts_recv=%d len=%d\n",
			index, header.Seq, eventTypeName(header.Type), header.TsEvent, header.TsRecv, len(payload))
		if *decode {
			printDecoded(header.Type, payload)
		}
		return nil
	})
	if err != nil {
		logs.Errorf("replay, err: %v", err)
		os.Exit(1)
	}
	logs.Infof("replayed %d events", index)
}

func verifyLedger(ctx context.Context, dir, prefix, checkpointPath string, noChecksum bool) error {
	res, err := state.RecoverPosition(ctx, state.RecoverConfig{
		WALDir:          dir,
		FilePrefix:      prefix,
		DisableChecksum: noChecksum,
	})
	if err != nil {
		return err
	}
	cp, err := state.ReadCheckpoint(checkpointPath)
	if err != nil {
		return err
	}
	view := res.Position.Snapshot()
	logs.Infof("rebuilt ledger, last_seq: %d, quantity: %d, realized: %d, trades: %d",
		res.LastSeq, view.Quantity, view.RealizedPnL, view.TradeCount)
	return state.CompareCheckpoint(cp, view)
}

func eventTypeName(t schema.EventType) string {
	switch t {
	case schema.EventSnapshot:
		return "Snapshot"
	case schema.EventFill:
		return "Fill"
	case schema.EventSignal:
		return "Signal"
	case schema.EventRiskDecision:
		return "RiskDecision"
	case schema.EventHalt:
		return "Halt"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

func printDecoded(t schema.EventType, payload []byte) {
	switch t {
	case schema.EventSnapshot:
		s, ok := codec.DecodeSnapshot(payload)
		if !ok {
			fmt.Println("  decode Snapshot failed")
			return
		}
		fmt.Printf("  snap market=%d seq=%d bid=%d/%d ask=%d/%d full=%v\n",
			s.MarketID, s.Sequence, s.BestBidPrice, s.BestBidSize, s.BestAskPrice, s.BestAskSize, s.IsFull())
	case schema.EventFill:
		f, ok := codec.DecodeFill(payload)
		if !ok {
			fmt.Println("  decode Fill failed")
			return
		}
		fmt.Printf("  fill order=%d market=%d side=%d price=%d qty=%d fee=%d\n",
			f.OrderID, f.MarketID, f.Side, f.Price, f.Qty, f.Fee)
	case schema.EventSignal:
		sig, ok := codec.DecodeSignal(payload)
		if !ok {
			fmt.Println("  decode Signal failed")
			return
		}
		fmt.Printf("  signal action=%d bid=%d/%d ask=%d/%d\n",
			sig.Action, sig.BidPrice, sig.BidSize, sig.AskPrice, sig.AskSize)
	case schema.EventRiskDecision:
		d, ok := codec.DecodeRiskDecision(payload)
		if !ok {
			fmt.Println("  decode RiskDecision failed")
			return
		}
		fmt.Printf("  risk action=%d reason=%d side=%d price=%d qty=%d\n",
			d.Action, d.Reason, d.Side, d.ProposedPrice, d.ProposedQty)
	default:
	}
}
