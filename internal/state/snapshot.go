package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"main/internal/schema"
)

// Checkpoint persists the position ledger at a point in time. It is
// written on shutdown and before a gap resync so a restart can resume
// from the last known-good ledger.
type Checkpoint struct {
	Timestamp   int64  `json:"timestamp"`
	LastSeq     uint64 `json:"lastSeq"`
	LastEventTs int64  `json:"lastEventTs"`

	Quantity      schema.Quantity `json:"quantity"`
	EntryPrice    schema.Price    `json:"entryPrice"`
	RealizedPnL   int64           `json:"realizedPnl"`
	DailyPnL      int64           `json:"dailyPnl"`
	HighWaterMark int64           `json:"highWaterMark"`
	TradeCount    int64           `json:"tradeCount"`
}

// NewCheckpoint captures the current ledger with event metadata.
func NewCheckpoint(p *Position, lastSeq uint64, lastEventTs int64) Checkpoint {
	v := p.Snapshot()
	return Checkpoint{
		Timestamp:     time.Now().UTC().UnixNano(),
		LastSeq:       lastSeq,
		LastEventTs:   lastEventTs,
		Quantity:      v.Quantity,
		EntryPrice:    v.EntryPrice,
		RealizedPnL:   v.RealizedPnL,
		DailyPnL:      v.DailyPnL,
		HighWaterMark: v.HighWaterMark,
		TradeCount:    v.TradeCount,
	}
}

// View converts the checkpoint back into a ledger view.
func (c Checkpoint) View() View {
	return View{
		Quantity:      c.Quantity,
		EntryPrice:    c.EntryPrice,
		RealizedPnL:   c.RealizedPnL,
		DailyPnL:      c.DailyPnL,
		HighWaterMark: c.HighWaterMark,
		TradeCount:    c.TradeCount,
	}
}

// WriteCheckpoint writes a checkpoint to disk as JSON.
func WriteCheckpoint(path string, cp Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadCheckpoint loads a checkpoint from disk.
func ReadCheckpoint(path string) (Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Checkpoint{}, err
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, err
	}
	return cp, nil
}

// CompareCheckpoint verifies a ledger against a checkpoint.
func CompareCheckpoint(expected Checkpoint, actual View) error {
	if expected.Quantity != actual.Quantity {
		return fmt.Errorf("checkpoint quantity mismatch: expected=%d actual=%d", expected.Quantity, actual.Quantity)
	}
	if expected.RealizedPnL != actual.RealizedPnL {
		return fmt.Errorf("checkpoint realized pnl mismatch: expected=%d actual=%d", expected.RealizedPnL, actual.RealizedPnL)
	}
	if expected.TradeCount != actual.TradeCount {
		return fmt.Errorf("checkpoint trade count mismatch: expected=%d actual=%d", expected.TradeCount, actual.TradeCount)
	}
	return nil
}
