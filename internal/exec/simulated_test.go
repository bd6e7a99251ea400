package exec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"main/internal/marketdata"
	"main/internal/og"
	"main/internal/schema"
	"main/pkg/exception"
	"main/pkg/fixed"
)

const unit = fixed.Scale

func market(bid, ask int64) schema.MarketSnapshot {
	return marketdata.NewSnapshotBuilder(1, 100).
		Quote(schema.Price(bid*unit), schema.Quantity(5*unit), schema.Price(ask*unit), schema.Quantity(5*unit)).
		Timestamps(1_000, 2_000).
		Build()
}

func TestSimulatedFillOnCross(t *testing.T) {
	s := NewSimulated(SimulatedConfig{})

	buy := og.NewOrder(1, 1, schema.OrderSideBuy, schema.Price(49_975*unit), schema.Quantity(unit))
	require.NoError(t, s.Submit(buy))
	require.Equal(t, og.OrderStateAcknowledged, buy.State)

	// Ask stays above the bid limit: no fill.
	snap := market(49_990, 50_010)
	s.CheckFills(&snap)
	_, ok := s.PollFill()
	require.False(t, ok)

	// Market trades down through the limit.
	snap = market(49_940, 49_960)
	s.CheckFills(&snap)

	f, ok := s.PollFill()
	require.True(t, ok)
	require.Equal(t, schema.OrderID(1), f.OrderID)
	require.Equal(t, schema.OrderSideBuy, f.Side)
	require.Equal(t, schema.Price(49_975*unit), f.Price)
	require.Equal(t, schema.Quantity(unit), f.Qty)
	require.Equal(t, int64(2_000), f.TsNano)
	require.Equal(t, og.OrderStateFilled, buy.State)
	require.Equal(t, 0, s.OpenOrders())

	// Filled orders leave the book: the same cross fills nothing.
	s.CheckFills(&snap)
	_, ok = s.PollFill()
	require.False(t, ok)
}

func TestSimulatedSellFill(t *testing.T) {
	s := NewSimulated(SimulatedConfig{FeeBps: 2})

	sell := og.NewOrder(2, 1, schema.OrderSideSell, schema.Price(50_025*unit), schema.Quantity(unit))
	require.NoError(t, s.Submit(sell))

	snap := market(50_030, 50_050)
	s.CheckFills(&snap)

	f, ok := s.PollFill()
	require.True(t, ok)
	require.Equal(t, schema.OrderSideSell, f.Side)
	// 2 bps of a 50,025 notional.
	require.Equal(t, schema.Fee(50_025*unit/10_000*2), f.Fee)
}

func TestSimulatedDuplicateRejected(t *testing.T) {
	s := NewSimulated(SimulatedConfig{})

	first := og.NewOrder(7, 1, schema.OrderSideBuy, schema.Price(unit), schema.Quantity(unit))
	require.NoError(t, s.Submit(first))

	dup := og.NewOrder(7, 1, schema.OrderSideBuy, schema.Price(unit), schema.Quantity(unit))
	require.ErrorIs(t, s.Submit(dup), exception.ErrOrderDuplicate)
	require.Equal(t, og.OrderStateRejected, dup.State)
	require.Equal(t, 1, s.OpenOrders())
}

func TestSimulatedOpenExposure(t *testing.T) {
	s := NewSimulated(SimulatedConfig{})
	require.NoError(t, s.Submit(og.NewOrder(1, 1, schema.OrderSideBuy, schema.Price(100*unit), schema.Quantity(2*unit))))
	require.NoError(t, s.Submit(og.NewOrder(2, 1, schema.OrderSideSell, schema.Price(200*unit), schema.Quantity(3*unit))))

	buy, sell := s.OpenExposure()
	require.Equal(t, schema.Quantity(2*unit), buy)
	require.Equal(t, schema.Quantity(3*unit), sell)

	require.Equal(t, 2, s.CancelAll())
	buy, sell = s.OpenExposure()
	require.Zero(t, buy)
	require.Zero(t, sell)
}

func TestSimulatedDropsFillsWhenQueueFull(t *testing.T) {
	s := NewSimulated(SimulatedConfig{QueueSize: 1})

	require.NoError(t, s.Submit(og.NewOrder(1, 1, schema.OrderSideBuy, schema.Price(100*unit), schema.Quantity(unit))))
	require.NoError(t, s.Submit(og.NewOrder(2, 1, schema.OrderSideBuy, schema.Price(100*unit), schema.Quantity(unit))))

	snap := market(90, 95)
	s.CheckFills(&snap)

	// Both orders crossed but only one fill fit in the queue.
	require.Equal(t, uint64(1), s.DroppedFillCount())
	_, ok := s.PollFill()
	require.True(t, ok)
	_, ok = s.PollFill()
	require.False(t, ok)
}
