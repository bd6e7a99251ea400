package exec

import (
	"github.com/yanun0323/logs"

	"main/internal/og"
	"main/internal/schema"
	"main/pkg/fixed"
)

// SimulatedConfig parameterizes the in-process venue.
type SimulatedConfig struct {
	// FeeBps is the maker fee in basis points of notional. Negative
	// values are rebates.
	FeeBps int64
	// QueueSize bounds the pending fill queue.
	QueueSize int
}

func (c SimulatedConfig) withDefaults() SimulatedConfig {
	if c.QueueSize <= 0 {
		c.QueueSize = 1024
	}
	return c
}

// Simulated is an in-process venue for tests and replay. Orders rest
// at their limit price and fill completely when the market trades
// through them.
type Simulated struct {
	cfg   SimulatedConfig
	book  *og.Book
	fills chan schema.Fill

	dropped uint64
}

// NewSimulated creates a simulated venue.
func NewSimulated(cfg SimulatedConfig) *Simulated {
	cfg = cfg.withDefaults()
	return &Simulated{
		cfg:   cfg,
		book:  og.NewBook(),
		fills: make(chan schema.Fill, cfg.QueueSize),
	}
}

// Submit acknowledges and rests the order. A rejected order is left in
// Rejected state and the cause returned.
func (s *Simulated) Submit(o *og.Order) error {
	if err := s.book.Track(o); err != nil {
		_ = o.Reject()
		return err
	}
	if err := o.Acknowledge(); err != nil {
		return err
	}
	return nil
}

// CancelAll pulls every resting order.
func (s *Simulated) CancelAll() int {
	n := s.book.Len()
	s.book.CancelAll()
	return n
}

// CheckFills matches resting orders against the snapshot. A buy fills
// when the market asks at or below its limit, a sell when the market
// bids at or above. Fills execute at the resting limit price.
func (s *Simulated) CheckFills(snap *schema.MarketSnapshot) {
	var done []schema.OrderID
	s.book.Each(func(o *og.Order) {
		if !crossed(o, snap) {
			return
		}
		qty := o.Remaining()
		if err := o.Fill(qty, o.Price); err != nil {
			logs.Errorf("simulated fill rejected, order: %d, err: %v", o.ID, err)
			return
		}
		s.emit(schema.Fill{
			OrderID:  o.ID,
			MarketID: o.MarketID,
			Side:     o.Side,
			Price:    o.Price,
			Qty:      qty,
			Fee:      s.fee(o.Price, qty),
			TsNano:   snap.LocalTsNano,
		})
		if o.State.IsTerminal() {
			done = append(done, o.ID)
		}
	})
	// Terminal orders leave the book so they cannot fill twice.
	for _, id := range done {
		s.book.Remove(id)
	}
}

// PollFill returns the next pending fill without blocking.
func (s *Simulated) PollFill() (schema.Fill, bool) {
	select {
	case f := <-s.fills:
		return f, true
	default:
		return schema.Fill{}, false
	}
}

// DroppedFillCount returns how many fills overflowed the queue.
func (s *Simulated) DroppedFillCount() uint64 {
	return s.dropped
}

// OpenExposure sums unfilled quantity per side.
func (s *Simulated) OpenExposure() (buy, sell schema.Quantity) {
	s.book.Each(func(o *og.Order) {
		switch o.Side {
		case schema.OrderSideBuy:
			buy += o.Remaining()
		case schema.OrderSideSell:
			sell += o.Remaining()
		}
	})
	return buy, sell
}

// Each visits every resting order in ascending ID order.
func (s *Simulated) Each(fn func(*og.Order)) {
	s.book.Each(fn)
}

// OpenOrders returns the number of resting orders.
func (s *Simulated) OpenOrders() int {
	return s.book.Len()
}

func (s *Simulated) emit(f schema.Fill) {
	select {
	case s.fills <- f:
	default:
		s.dropped++
		logs.Errorf("fill queue full, dropping fill, order: %d, dropped: %d", f.OrderID, s.dropped)
	}
}

func (s *Simulated) fee(price schema.Price, qty schema.Quantity) schema.Fee {
	if s.cfg.FeeBps == 0 {
		return 0
	}
	notional, err := fixed.MulScaled(int64(price), int64(qty))
	if err != nil {
		return 0
	}
	fee, err := fixed.MulDiv(notional, s.cfg.FeeBps, 10_000)
	if err != nil {
		return 0
	}
	return schema.Fee(fee)
}

func crossed(o *og.Order, snap *schema.MarketSnapshot) bool {
	switch o.Side {
	case schema.OrderSideBuy:
		return snap.BestAskPrice > 0 && snap.BestAskPrice <= o.Price
	case schema.OrderSideSell:
		return snap.BestBidPrice > 0 && snap.BestBidPrice >= o.Price
	default:
		return false
	}
}
