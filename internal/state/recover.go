package state

import (
	"context"
	"fmt"

	"main/internal/codec"
	"main/internal/recorder"
	"main/internal/schema"
)

// RecoverConfig controls checkpoint + WAL recovery.
type RecoverConfig struct {
	WALDir          string
	CheckpointPath  string
	FilePrefix      string
	DisableChecksum bool
	MaxPayloadSize  int
	UseRecvTime     bool
}

// RecoverResult contains the recovered ledger and metadata.
type RecoverResult struct {
	Position    *Position
	LastSeq     uint64
	LastEventTs int64
}

// RecoverPosition loads a checkpoint and replays the WAL tail of fill
// events to rebuild the ledger.
func RecoverPosition(ctx context.Context, cfg RecoverConfig) (RecoverResult, error) {
	if cfg.WALDir == "" {
		return RecoverResult{}, fmt.Errorf("wal dir is empty")
	}
	position := NewPosition()
	var lastSeq uint64
	var lastEventTs int64

	if cfg.CheckpointPath != "" {
		cp, err := ReadCheckpoint(cfg.CheckpointPath)
		if err != nil {
			return RecoverResult{}, err
		}
		position.Restore(cp.View())
		lastSeq = cp.LastSeq
		lastEventTs = cp.LastEventTs
	}

	playbackCfg := recorder.PlaybackConfig{
		Dir:             cfg.WALDir,
		FilePrefix:      cfg.FilePrefix,
		Speed:           0,
		UseRecvTime:     cfg.UseRecvTime,
		DisableChecksum: cfg.DisableChecksum,
		MaxPayloadSize:  cfg.MaxPayloadSize,
	}
	pb, err := recorder.NewPlayback(playbackCfg)
	if err != nil {
		return RecoverResult{}, err
	}

	err = pb.Run(ctx, func(header schema.EventHeader, payload []byte) error {
		if lastSeq > 0 && header.Seq <= lastSeq {
			return nil
		}
		if lastSeq == 0 && lastEventTs > 0 {
			ts := header.TsEvent
			if cfg.UseRecvTime {
				ts = header.TsRecv
			}
			if ts <= lastEventTs {
				return nil
			}
		}
		if header.Seq > lastSeq {
			lastSeq = header.Seq
		}
		if header.TsEvent > lastEventTs {
			lastEventTs = header.TsEvent
		}

		if header.Type != schema.EventFill {
			return nil
		}
		fill, ok := codec.DecodeFill(payload)
		if !ok {
			return fmt.Errorf("decode fill failed")
		}
		return position.ApplyFill(fill.Side, fill.Price, fill.Qty, fill.Fee)
	})
	if err != nil {
		return RecoverResult{}, err
	}

	return RecoverResult{
		Position:    position,
		LastSeq:     lastSeq,
		LastEventTs: lastEventTs,
	}, nil
}
