package strategy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"main/internal/marketdata"
	"main/internal/schema"
	"main/internal/state"
	"main/pkg/fixed"
)

const unit = fixed.Scale

func marketAt(mid int64, spreadBps int64) schema.MarketSnapshot {
	return marketdata.NewSnapshotBuilder(1, 100).
		Mid(schema.Price(mid*unit), spreadBps, schema.Quantity(5*unit)).
		Timestamps(1_000, 2_000).
		Build()
}

func TestSimpleSpreadQuotes(t *testing.T) {
	s := NewSimpleSpread(SpreadConfig{
		SpreadBps:              10,
		QuoteSize:              schema.Quantity(unit),
		MinProfitableSpreadBps: 1,
	})

	// A 50,000 mid with a 10 bps spread quotes 25 away on each side.
	snap := marketAt(50_000, 2)
	sig := s.Calculate(&snap, state.View{})
	require.NotNil(t, sig)
	require.Equal(t, schema.SignalQuoteBoth, sig.Action)
	require.Equal(t, schema.Price(49_975*unit), sig.BidPrice)
	require.Equal(t, schema.Price(50_025*unit), sig.AskPrice)
	require.Equal(t, schema.Quantity(unit), sig.BidSize)
	require.Equal(t, schema.Quantity(unit), sig.AskSize)
	require.Equal(t, int64(2_000), sig.TsNano)
}

func TestSimpleSpreadStandsDownWhenUnprofitable(t *testing.T) {
	s := NewSimpleSpread(SpreadConfig{
		SpreadBps:              10,
		QuoteSize:              schema.Quantity(unit),
		MinProfitableSpreadBps: 4,
	})

	// Market spread of 2 bps cannot cover the round trip.
	snap := marketAt(50_000, 2)
	require.Nil(t, s.Calculate(&snap, state.View{}))

	snap = marketAt(50_000, 6)
	require.NotNil(t, s.Calculate(&snap, state.View{}))
}

func TestInventorySkewShiftsQuotes(t *testing.T) {
	s := NewInventorySkew(InventoryConfig{
		SpreadConfig: SpreadConfig{
			SpreadBps:              10,
			QuoteSize:              schema.Quantity(unit),
			MinProfitableSpreadBps: 1,
		},
		MaxPosition: schema.Quantity(10 * unit),
		MaxSkewBps:  20,
	})
	snap := marketAt(50_000, 2)

	flat := s.Calculate(&snap, state.View{})
	require.NotNil(t, flat)

	// Half the max long inventory skews both quotes down by 10 bps of
	// mid, so fills push the position back toward flat.
	long := s.Calculate(&snap, state.View{Quantity: schema.Quantity(5 * unit)})
	require.NotNil(t, long)
	require.Less(t, long.BidPrice, flat.BidPrice)
	require.Less(t, long.AskPrice, flat.AskPrice)
	// Center drops by 50; the half spread on the lower center shrinks
	// by 0.025, so the bid lands 49.975 lower.
	require.Equal(t, schema.Price(49_975*unit/1000), flat.BidPrice-long.BidPrice)

	short := s.Calculate(&snap, state.View{Quantity: schema.Quantity(-5 * unit)})
	require.NotNil(t, short)
	require.Greater(t, short.BidPrice, flat.BidPrice)
	require.Greater(t, short.AskPrice, flat.AskPrice)
}

func TestInventorySkewWithdrawsAccumulatingSide(t *testing.T) {
	s := NewInventorySkew(InventoryConfig{
		SpreadConfig: SpreadConfig{
			SpreadBps:              10,
			QuoteSize:              schema.Quantity(unit),
			MinProfitableSpreadBps: 1,
		},
		MaxPosition:  schema.Quantity(10 * unit),
		MaxSkewBps:   20,
		OneSideRatio: 8_000,
	})
	snap := marketAt(50_000, 2)

	// 90% long: only the ask stays out.
	sig := s.Calculate(&snap, state.View{Quantity: schema.Quantity(9 * unit)})
	require.NotNil(t, sig)
	require.Equal(t, schema.SignalQuoteAsk, sig.Action)
	require.Zero(t, sig.BidSize)
	require.NotZero(t, sig.AskPrice)

	// 90% short: only the bid.
	sig = s.Calculate(&snap, state.View{Quantity: schema.Quantity(-9 * unit)})
	require.NotNil(t, sig)
	require.Equal(t, schema.SignalQuoteBid, sig.Action)
	require.Zero(t, sig.AskSize)
}
