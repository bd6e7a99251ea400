package strategy

import (
	"main/internal/schema"
	"main/internal/state"
	"main/pkg/fixed"
)

// SpreadConfig parameterizes the symmetric spread quoter.
type SpreadConfig struct {
	// SpreadBps is the full quoted spread in basis points of mid.
	SpreadBps int64
	// QuoteSize is the size quoted on each side.
	QuoteSize schema.Quantity
	// MinProfitableSpreadBps is the narrowest market spread worth
	// quoting into. Below it the round trip cannot cover fees.
	MinProfitableSpreadBps int64
}

// SimpleSpread quotes symmetrically around mid at a fixed spread. It
// stands down when the market spread is too narrow to be profitable.
type SimpleSpread struct {
	cfg SpreadConfig
}

// NewSimpleSpread creates a symmetric spread quoter.
func NewSimpleSpread(cfg SpreadConfig) *SimpleSpread {
	return &SimpleSpread{cfg: cfg}
}

func (s *SimpleSpread) Name() string { return "simple_spread" }

func (s *SimpleSpread) Calculate(snap *schema.MarketSnapshot, _ state.View) *schema.Signal {
	if snap.SpreadBps() < s.cfg.MinProfitableSpreadBps {
		return nil
	}

	mid := snap.MidPrice()
	bid, ask, ok := quoteAround(mid, s.cfg.SpreadBps)
	if !ok {
		return nil
	}

	return &schema.Signal{
		Action:   schema.SignalQuoteBoth,
		BidPrice: bid,
		BidSize:  s.cfg.QuoteSize,
		AskPrice: ask,
		AskSize:  s.cfg.QuoteSize,
		TsNano:   snap.LocalTsNano,
	}
}

// quoteAround places a bid and an ask spreadBps apart, centered on mid.
// Each side sits spreadBps/2 away: 10 bps on a 50,000 mid quotes
// 49,975 and 50,025.
func quoteAround(mid schema.Price, spreadBps int64) (bid, ask schema.Price, ok bool) {
	half, err := fixed.MulDiv(int64(mid), spreadBps, 20_000)
	if err != nil {
		return 0, 0, false
	}
	b, err := fixed.Sub(int64(mid), half)
	if err != nil || b <= 0 {
		return 0, 0, false
	}
	a, err := fixed.Add(int64(mid), half)
	if err != nil {
		return 0, 0, false
	}
	return schema.Price(b), schema.Price(a), true
}
