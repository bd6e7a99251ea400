package state

import (
	"sync/atomic"

	"main/internal/schema"
	"main/pkg/exception"
	"main/pkg/fixed"
)

// Position is the money ledger for one market. A single writer applies
// fills; any goroutine may read. Scalar reads are plain atomic loads,
// multi-field reads go through the sequence counter so observers never
// see a half-applied fill.
//
// Every mutation uses checked arithmetic. Overflow surfaces as an
// error and leaves the ledger untouched; nothing wraps or saturates.
type Position struct {
	seq atomic.Uint64

	quantity   atomic.Int64
	entryPrice atomic.Int64
	realized   atomic.Int64
	daily      atomic.Int64
	highWater  atomic.Int64
	trades     atomic.Int64
}

// View is a consistent copy of the ledger.
type View struct {
	Quantity      schema.Quantity
	EntryPrice    schema.Price
	RealizedPnL   int64
	DailyPnL      int64
	HighWaterMark int64
	TradeCount    int64
}

// NewPosition creates a flat position.
func NewPosition() *Position {
	return &Position{}
}

// Quantity returns the signed position quantity.
func (p *Position) Quantity() schema.Quantity {
	return schema.Quantity(p.quantity.Load())
}

// EntryPrice returns the volume-weighted average entry price, zero
// when flat.
func (p *Position) EntryPrice() schema.Price {
	return schema.Price(p.entryPrice.Load())
}

// RealizedPnL returns cumulative realized profit net of fees.
func (p *Position) RealizedPnL() int64 {
	return p.realized.Load()
}

// DailyPnL returns realized profit accumulated since the last daily
// reset.
func (p *Position) DailyPnL() int64 {
	return p.daily.Load()
}

// HighWaterMark returns the highest total PnL observed.
func (p *Position) HighWaterMark() int64 {
	return p.highWater.Load()
}

// TradeCount returns the number of applied fills.
func (p *Position) TradeCount() int64 {
	return p.trades.Load()
}

// ApplyFill applies one execution to the ledger.
//
// Extending a position in its own direction re-averages the entry
// price. Reducing realizes PnL on the closed quantity at the original
// entry. A fill that crosses through zero re-bases the remainder at
// the fill price. Fees reduce realized and daily PnL; negative fees
// are rebates.
//
// All arithmetic is validated before any field is written, so a
// failed fill never partially mutates the ledger.
func (p *Position) ApplyFill(side schema.OrderSide, price schema.Price, qty schema.Quantity, fee schema.Fee) error {
	if qty <= 0 || price <= 0 {
		return exception.ErrInvalidArgument
	}
	var signed int64
	switch side {
	case schema.OrderSideBuy:
		signed = int64(qty)
	case schema.OrderSideSell:
		signed = -int64(qty)
	default:
		return exception.ErrInvalidArgument
	}

	cur := p.quantity.Load()
	entry := p.entryPrice.Load()
	if cur != 0 && entry == 0 {
		return exception.ErrInvalidPositionState
	}

	newQty, err := fixed.Add(cur, signed)
	if err != nil {
		return err
	}

	newEntry := entry
	var realizedDelta int64

	switch {
	case cur == 0:
		newEntry = int64(price)
	case sameSign(cur, signed):
		// Extending: entry moves toward the fill price in proportion
		// to the added quantity.
		diff, err := fixed.Sub(int64(price), entry)
		if err != nil {
			return err
		}
		shift, err := fixed.MulDiv(diff, int64(qty), absInt64(newQty))
		if err != nil {
			return err
		}
		newEntry, err = fixed.Add(entry, shift)
		if err != nil {
			return err
		}
	default:
		closeQty := int64(qty)
		if closeQty > absInt64(cur) {
			closeQty = absInt64(cur)
		}
		diff, err := fixed.Sub(int64(price), entry)
		if err != nil {
			return err
		}
		if cur < 0 {
			diff = -diff
		}
		realizedDelta, err = fixed.MulDiv(diff, closeQty, fixed.Scale)
		if err != nil {
			return err
		}
		switch {
		case newQty == 0:
			newEntry = 0
		case !sameSign(cur, newQty):
			// Crossed through zero, the remainder opened at the fill.
			newEntry = int64(price)
		}
	}

	afterFee, err := fixed.Sub(realizedDelta, int64(fee))
	if err != nil {
		return err
	}
	newRealized, err := fixed.Add(p.realized.Load(), afterFee)
	if err != nil {
		return err
	}
	newDaily, err := fixed.Add(p.daily.Load(), afterFee)
	if err != nil {
		return err
	}
	newTrades, err := fixed.Add(p.trades.Load(), 1)
	if err != nil {
		return err
	}

	p.seq.Add(1)
	p.quantity.Store(newQty)
	p.entryPrice.Store(newEntry)
	p.realized.Store(newRealized)
	p.daily.Store(newDaily)
	p.trades.Store(newTrades)
	if hw := p.highWater.Load(); newDaily > hw {
		p.highWater.Store(newDaily)
	}
	p.seq.Add(1)
	return nil
}

// UnrealizedPnL returns the mark-to-market profit of the open
// quantity. The quantity and entry price are read consistently through
// the sequence counter.
func (p *Position) UnrealizedPnL(mark schema.Price) (int64, error) {
	for {
		s1 := p.seq.Load()
		if s1&1 != 0 {
			continue
		}
		qty := p.quantity.Load()
		entry := p.entryPrice.Load()
		if p.seq.Load() != s1 {
			continue
		}
		if qty == 0 {
			return 0, nil
		}
		if entry == 0 {
			return 0, exception.ErrInvalidPositionState
		}
		diff, err := fixed.Sub(int64(mark), entry)
		if err != nil {
			return 0, err
		}
		return fixed.MulDiv(diff, qty, fixed.Scale)
	}
}

// UpdateHighWater raises the high-water mark to total when it exceeds
// the current mark.
func (p *Position) UpdateHighWater(total int64) {
	for {
		hw := p.highWater.Load()
		if total <= hw {
			return
		}
		if p.highWater.CompareAndSwap(hw, total) {
			return
		}
	}
}

// ResetDaily clears the daily PnL and high-water mark at a session
// boundary.
func (p *Position) ResetDaily() {
	p.seq.Add(1)
	p.daily.Store(0)
	p.highWater.Store(0)
	p.seq.Add(1)
}

// Snapshot returns a consistent view of every field.
func (p *Position) Snapshot() View {
	for {
		s1 := p.seq.Load()
		if s1&1 != 0 {
			continue
		}
		v := View{
			Quantity:      schema.Quantity(p.quantity.Load()),
			EntryPrice:    schema.Price(p.entryPrice.Load()),
			RealizedPnL:   p.realized.Load(),
			DailyPnL:      p.daily.Load(),
			HighWaterMark: p.highWater.Load(),
			TradeCount:    p.trades.Load(),
		}
		if p.seq.Load() == s1 {
			return v
		}
	}
}

// Restore overwrites the ledger from a checkpoint.
func (p *Position) Restore(v View) {
	p.seq.Add(1)
	p.quantity.Store(int64(v.Quantity))
	p.entryPrice.Store(int64(v.EntryPrice))
	p.realized.Store(v.RealizedPnL)
	p.daily.Store(v.DailyPnL)
	p.highWater.Store(v.HighWaterMark)
	p.trades.Store(v.TradeCount)
	p.seq.Add(1)
}

func sameSign(a, b int64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
