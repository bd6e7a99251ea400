package risk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"main/internal/schema"
	"main/internal/state"
	"main/pkg/fixed"
)

const unit = fixed.Scale

func testLimits() Limits {
	return Limits{
		MaxPosition:      schema.Quantity(10 * unit),
		MaxShort:         schema.Quantity(10 * unit),
		MinOrderSize:     schema.Quantity(unit / 100), // 0.01
		MaxOrderSize:     schema.Quantity(2 * unit),
		MaxOrderNotional: schema.Notional(200_000 * unit),
		MaxDailyLoss:     1_000 * unit,
		MaxDrawdownBps:   2_000,
	}
}

func quoteBoth(bidPrice, askPrice int64, size schema.Quantity) *schema.Signal {
	return &schema.Signal{
		Action:   schema.SignalQuoteBoth,
		BidPrice: schema.Price(bidPrice),
		BidSize:  size,
		AskPrice: schema.Price(askPrice),
		AskSize:  size,
	}
}

func TestLimitsValidate(t *testing.T) {
	require.NoError(t, testLimits().Validate())

	bad := testLimits()
	bad.MaxPosition = 0
	require.Error(t, bad.Validate())

	bad = testLimits()
	bad.MaxOrderSize = bad.MaxPosition + 1
	require.Error(t, bad.Validate())

	bad = testLimits()
	bad.MinOrderSize = bad.MaxOrderSize + 1
	require.Error(t, bad.Validate())

	bad = testLimits()
	bad.MaxDrawdownBps = 10_001
	require.Error(t, bad.Validate())
}

func TestPreTradeAllow(t *testing.T) {
	e := NewEngine(testLimits())
	sig := quoteBoth(49_975*unit, 50_025*unit, schema.Quantity(unit))

	d := e.PreTrade(sig, state.View{}, 0)
	require.Equal(t, schema.RiskActionAllow, d.Action)
	require.Equal(t, schema.RiskReasonNone, d.Reason)
}

func TestPreTradeOrderBounds(t *testing.T) {
	e := NewEngine(testLimits())

	tests := []struct {
		name   string
		sig    *schema.Signal
		reason schema.RiskReason
	}{
		{
			name:   "too small",
			sig:    quoteBoth(50_000*unit, 50_010*unit, schema.Quantity(unit/1000)),
			reason: schema.RiskReasonOrderTooSmall,
		},
		{
			name:   "too large",
			sig:    quoteBoth(50_000*unit, 50_010*unit, schema.Quantity(3*unit)),
			reason: schema.RiskReasonOrderTooLarge,
		},
		{
			name:   "notional cap",
			sig:    quoteBoth(150_000*unit, 150_010*unit, schema.Quantity(2*unit)),
			reason: schema.RiskReasonMaxNotional,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := e.PreTrade(tt.sig, state.View{}, 0)
			require.Equal(t, schema.RiskActionDeny, d.Action)
			require.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestPreTradePositionProjection(t *testing.T) {
	e := NewEngine(testLimits())
	sig := quoteBoth(50_000*unit, 50_010*unit, schema.Quantity(2*unit))

	// Near the long limit: a bid fill would cross it.
	d := e.PreTrade(sig, state.View{Quantity: schema.Quantity(9 * unit)}, 0)
	require.Equal(t, schema.RiskActionDeny, d.Action)
	require.Equal(t, schema.RiskReasonPositionLimit, d.Reason)
	require.Equal(t, schema.OrderSideBuy, d.Side)

	// Near the short limit: an ask fill would cross it.
	d = e.PreTrade(sig, state.View{Quantity: schema.Quantity(-9 * unit)}, 0)
	require.Equal(t, schema.RiskActionDeny, d.Action)
	require.Equal(t, schema.RiskReasonShortLimit, d.Reason)
	require.Equal(t, schema.OrderSideSell, d.Side)

	// A one-sided quote away from the binding limit passes.
	askOnly := &schema.Signal{
		Action:   schema.SignalQuoteAsk,
		AskPrice: schema.Price(50_010 * unit),
		AskSize:  schema.Quantity(2 * unit),
	}
	d = e.PreTrade(askOnly, state.View{Quantity: schema.Quantity(9 * unit)}, 0)
	require.Equal(t, schema.RiskActionAllow, d.Action)
}

func TestPreTradeDailyLoss(t *testing.T) {
	e := NewEngine(testLimits())
	sig := quoteBoth(50_000*unit, 50_010*unit, schema.Quantity(unit))

	d := e.PreTrade(sig, state.View{}, -999*unit)
	require.Equal(t, schema.RiskActionAllow, d.Action)

	// Unrealized losses count toward the daily stop.
	d = e.PreTrade(sig, state.View{}, -1_000*unit)
	require.Equal(t, schema.RiskActionDeny, d.Action)
	require.Equal(t, schema.RiskReasonDailyLoss, d.Reason)
}

func TestPreTradeDrawdown(t *testing.T) {
	e := NewEngine(testLimits())
	sig := quoteBoth(50_000*unit, 50_010*unit, schema.Quantity(unit))
	view := state.View{HighWaterMark: 10_000 * unit}

	// 10% off the high water mark is inside the 20% budget.
	d := e.PreTrade(sig, view, 9_000*unit)
	require.Equal(t, schema.RiskActionAllow, d.Action)

	// 25% off trips it.
	d = e.PreTrade(sig, view, 7_500*unit)
	require.Equal(t, schema.RiskActionDeny, d.Action)
	require.Equal(t, schema.RiskReasonDrawdown, d.Reason)
}

func TestPreTradeNoQuoteActions(t *testing.T) {
	e := NewEngine(testLimits())

	// Cancel and no-op signals never hit order checks even when the
	// ledger is deep in loss.
	for _, action := range []schema.SignalAction{schema.SignalNoAction, schema.SignalCancelAll} {
		d := e.PreTrade(&schema.Signal{Action: action}, state.View{}, -5_000*unit)
		require.Equal(t, schema.RiskActionAllow, d.Action)
	}
}

func TestPostFill(t *testing.T) {
	e := NewEngine(testLimits())

	require.NoError(t, e.PostFill(state.View{Quantity: schema.Quantity(10 * unit)}, 0))

	err := e.PostFill(state.View{Quantity: schema.Quantity(10*unit + 1)}, 0)
	var breach *LimitBreach
	require.True(t, errors.As(err, &breach))
	require.Equal(t, schema.RiskReasonPositionLimit, breach.Reason)

	err = e.PostFill(state.View{Quantity: schema.Quantity(-10*unit - 1)}, 0)
	require.True(t, errors.As(err, &breach))
	require.Equal(t, schema.RiskReasonShortLimit, breach.Reason)

	err = e.PostFill(state.View{}, -1_000*unit)
	require.True(t, errors.As(err, &breach))
	require.Equal(t, schema.RiskReasonDailyLoss, breach.Reason)
}
