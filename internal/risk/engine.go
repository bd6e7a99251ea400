package risk

import (
	"fmt"

	"main/internal/schema"
	"main/internal/state"
	"main/pkg/fixed"
)

const maxInt64 = int64(^uint64(0) >> 1)

// Limits defines the static risk limits. All quantities and notionals
// are scaled integers; bps values are plain integers.
type Limits struct {
	MaxPosition      schema.Quantity
	MaxShort         schema.Quantity
	MinOrderSize     schema.Quantity
	MaxOrderSize     schema.Quantity
	MaxOrderNotional schema.Notional
	MaxDailyLoss     int64
	MaxDrawdownBps   int64
}

// Validate rejects limit combinations that cannot work.
func (l Limits) Validate() error {
	if l.MaxPosition <= 0 {
		return fmt.Errorf("risk: maxPosition must be > 0")
	}
	if l.MaxShort < 0 {
		return fmt.Errorf("risk: maxShort must be >= 0")
	}
	if l.MaxOrderSize <= 0 {
		return fmt.Errorf("risk: maxOrderSize must be > 0")
	}
	if l.MaxOrderSize > l.MaxPosition {
		return fmt.Errorf("risk: maxOrderSize %s exceeds maxPosition %s", l.MaxOrderSize, l.MaxPosition)
	}
	if l.MinOrderSize < 0 || l.MinOrderSize > l.MaxOrderSize {
		return fmt.Errorf("risk: minOrderSize %s exceeds maxOrderSize %s", l.MinOrderSize, l.MaxOrderSize)
	}
	if l.MaxDailyLoss < 0 {
		return fmt.Errorf("risk: maxDailyLoss must be >= 0")
	}
	if l.MaxDrawdownBps < 0 || l.MaxDrawdownBps > 10_000 {
		return fmt.Errorf("risk: maxDrawdownBps must be within [0, 10000]")
	}
	return nil
}

// LimitBreach reports a hard limit crossed by an already-applied fill.
// It halts signal generation; it is not a fatal engine error because
// the ledger itself is still sound.
type LimitBreach struct {
	Reason   schema.RiskReason
	Observed int64
	Limit    int64
}

func (e *LimitBreach) Error() string {
	return fmt.Sprintf("risk: limit breach: %s, observed: %d, limit: %d", e.Reason, e.Observed, e.Limit)
}

// Engine evaluates signals before submission and the ledger after
// fills.
type Engine struct {
	limits Limits
}

// NewEngine creates a risk engine with static limits.
func NewEngine(limits Limits) *Engine {
	return &Engine{limits: limits}
}

// Limits returns the configured limits.
func (e *Engine) Limits() Limits {
	return e.limits
}

// PreTrade checks a signal against every limit before any order is
// built. totalPnL is daily realized plus current unrealized. For a
// two-sided quote both projected positions must stay within bounds:
// either side could fill first.
func (e *Engine) PreTrade(sig *schema.Signal, view state.View, totalPnL int64) schema.RiskDecision {
	decision := schema.RiskDecision{
		Action:      schema.RiskActionAllow,
		Reason:      schema.RiskReasonNone,
		CurrentPos:  view.Quantity,
		MaxPos:      e.limits.MaxPosition,
		MaxNotional: e.limits.MaxOrderNotional,
	}

	quoteBid := sig.Action == schema.SignalQuoteBoth || sig.Action == schema.SignalQuoteBid
	quoteAsk := sig.Action == schema.SignalQuoteBoth || sig.Action == schema.SignalQuoteAsk
	if !quoteBid && !quoteAsk {
		return decision
	}

	if quoteBid {
		if reason := e.checkOrder(sig.BidPrice, sig.BidSize); reason != schema.RiskReasonNone {
			return deny(decision, reason, schema.OrderSideBuy, sig.BidPrice, sig.BidSize)
		}
		projected := int64(view.Quantity) + int64(sig.BidSize)
		if projected > int64(e.limits.MaxPosition) {
			return deny(decision, schema.RiskReasonPositionLimit, schema.OrderSideBuy, sig.BidPrice, sig.BidSize)
		}
	}
	if quoteAsk {
		if reason := e.checkOrder(sig.AskPrice, sig.AskSize); reason != schema.RiskReasonNone {
			return deny(decision, reason, schema.OrderSideSell, sig.AskPrice, sig.AskSize)
		}
		projected := int64(view.Quantity) - int64(sig.AskSize)
		if projected < -int64(e.limits.MaxShort) {
			return deny(decision, schema.RiskReasonShortLimit, schema.OrderSideSell, sig.AskPrice, sig.AskSize)
		}
	}

	if e.limits.MaxDailyLoss > 0 && totalPnL <= -e.limits.MaxDailyLoss {
		decision.Action = schema.RiskActionDeny
		decision.Reason = schema.RiskReasonDailyLoss
		return decision
	}
	if reason := e.checkDrawdown(view.HighWaterMark, totalPnL); reason != schema.RiskReasonNone {
		decision.Action = schema.RiskActionDeny
		decision.Reason = reason
		return decision
	}

	return decision
}

// PostFill re-checks hard bounds after a fill was applied. The fill
// cannot be undone, so a breach here is returned as a LimitBreach for
// the engine to halt on.
func (e *Engine) PostFill(view state.View, totalPnL int64) error {
	if int64(view.Quantity) > int64(e.limits.MaxPosition) {
		return &LimitBreach{
			Reason:   schema.RiskReasonPositionLimit,
			Observed: int64(view.Quantity),
			Limit:    int64(e.limits.MaxPosition),
		}
	}
	if int64(view.Quantity) < -int64(e.limits.MaxShort) {
		return &LimitBreach{
			Reason:   schema.RiskReasonShortLimit,
			Observed: int64(view.Quantity),
			Limit:    -int64(e.limits.MaxShort),
		}
	}
	if e.limits.MaxDailyLoss > 0 && totalPnL <= -e.limits.MaxDailyLoss {
		return &LimitBreach{
			Reason:   schema.RiskReasonDailyLoss,
			Observed: totalPnL,
			Limit:    -e.limits.MaxDailyLoss,
		}
	}
	return nil
}

func (e *Engine) checkOrder(price schema.Price, size schema.Quantity) schema.RiskReason {
	if e.limits.MinOrderSize > 0 && size < e.limits.MinOrderSize {
		return schema.RiskReasonOrderTooSmall
	}
	if size > e.limits.MaxOrderSize {
		return schema.RiskReasonOrderTooLarge
	}
	if e.limits.MaxOrderNotional > 0 {
		notional, err := fixed.MulScaled(int64(price), int64(size))
		if err != nil || notional > int64(e.limits.MaxOrderNotional) {
			return schema.RiskReasonMaxNotional
		}
	}
	return schema.RiskReasonNone
}

func (e *Engine) checkDrawdown(highWater, totalPnL int64) schema.RiskReason {
	if e.limits.MaxDrawdownBps <= 0 || highWater <= 0 {
		return schema.RiskReasonNone
	}
	draw := highWater - totalPnL
	if draw <= 0 {
		return schema.RiskReasonNone
	}
	if draw > maxInt64/10_000 {
		return schema.RiskReasonDrawdown
	}
	if draw*10_000/highWater > e.limits.MaxDrawdownBps {
		return schema.RiskReasonDrawdown
	}
	return schema.RiskReasonNone
}

func deny(d schema.RiskDecision, reason schema.RiskReason, side schema.OrderSide, price schema.Price, qty schema.Quantity) schema.RiskDecision {
	d.Action = schema.RiskActionDeny
	d.Reason = reason
	d.Side = side
	d.ProposedPrice = price
	d.ProposedQty = qty
	return d
}
