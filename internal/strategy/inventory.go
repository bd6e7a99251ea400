package strategy

import (
	"main/internal/schema"
	"main/internal/state"
	"main/pkg/fixed"
)

// InventoryConfig parameterizes the inventory-skewed quoter.
type InventoryConfig struct {
	SpreadConfig

	// MaxPosition is the inventory at which skew reaches MaxSkewBps.
	MaxPosition schema.Quantity
	// MaxSkewBps shifts both quotes by up to this much against the
	// inventory. Long inventory pushes quotes down to attract sellers
	// of our position, short inventory pushes them up.
	MaxSkewBps int64
	// OneSideRatio stops quoting the accumulating side once inventory
	// passes this fraction of MaxPosition, expressed in bps. 8000
	// means: above 80% long, bid is withdrawn.
	OneSideRatio int64
}

// InventorySkew quotes around a mid shifted against the current
// inventory, so fills mean-revert the position toward flat.
type InventorySkew struct {
	cfg InventoryConfig
}

// NewInventorySkew creates an inventory-skewed quoter.
func NewInventorySkew(cfg InventoryConfig) *InventorySkew {
	if cfg.OneSideRatio <= 0 {
		cfg.OneSideRatio = 8_000
	}
	return &InventorySkew{cfg: cfg}
}

func (s *InventorySkew) Name() string { return "inventory_skew" }

func (s *InventorySkew) Calculate(snap *schema.MarketSnapshot, view state.View) *schema.Signal {
	if snap.SpreadBps() < s.cfg.MinProfitableSpreadBps {
		return nil
	}
	if s.cfg.MaxPosition <= 0 {
		return nil
	}

	mid := snap.MidPrice()

	// skewBps = MaxSkewBps * inventory / MaxPosition, signed.
	skewBps, err := fixed.MulDiv(s.cfg.MaxSkewBps, int64(view.Quantity), int64(s.cfg.MaxPosition))
	if err != nil {
		return nil
	}
	skew, err := fixed.MulDiv(int64(mid), skewBps, 10_000)
	if err != nil {
		return nil
	}
	center, err := fixed.Sub(int64(mid), skew)
	if err != nil || center <= 0 {
		return nil
	}

	bid, ask, ok := quoteAround(schema.Price(center), s.cfg.SpreadBps)
	if !ok {
		return nil
	}

	sig := &schema.Signal{
		Action:   schema.SignalQuoteBoth,
		BidPrice: bid,
		BidSize:  s.cfg.QuoteSize,
		AskPrice: ask,
		AskSize:  s.cfg.QuoteSize,
		TsNano:   snap.LocalTsNano,
	}

	// Past the one-side threshold only the reducing side stays quoted.
	ratioBps, err := fixed.MulDiv(10_000, int64(view.Quantity), int64(s.cfg.MaxPosition))
	if err != nil {
		return nil
	}
	switch {
	case ratioBps >= s.cfg.OneSideRatio:
		sig.Action = schema.SignalQuoteAsk
		sig.BidPrice, sig.BidSize = 0, 0
	case ratioBps <= -s.cfg.OneSideRatio:
		sig.Action = schema.SignalQuoteBid
		sig.AskPrice, sig.AskSize = 0, 0
	}
	return sig
}
