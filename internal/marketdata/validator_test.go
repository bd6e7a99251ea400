package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"main/internal/schema"
)

const unit = schema.FixedUnit

var baseClock = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC).UnixNano()

func testValidator() *Validator {
	return NewValidatorWithClock(ValidatorConfig{
		MaxSpreadBps:       1_000,
		MaxAge:             5 * time.Second,
		ClockSkewTolerance: time.Second,
	}, func() int64 { return baseClock })
}

func validSnapshot(seq uint64) schema.MarketSnapshot {
	return NewSnapshotBuilder(1, seq).
		Mid(schema.Price(50_000*unit), 10, schema.Quantity(unit)).
		Timestamps(baseClock-int64(time.Second), baseClock-int64(time.Second)).
		Build()
}

func TestValidateAccepts(t *testing.T) {
	v := testValidator()
	s := validSnapshot(1)
	require.Nil(t, v.Validate(&s))
}

func TestValidateOrderedChecks(t *testing.T) {
	v := testValidator()

	tests := []struct {
		name   string
		mutate func(*schema.MarketSnapshot)
		want   ValidationKind
	}{
		{"zero bid price", func(s *schema.MarketSnapshot) { s.BestBidPrice = 0 }, ValidationZeroBidPrice},
		{"zero ask price", func(s *schema.MarketSnapshot) { s.BestAskPrice = 0 }, ValidationZeroAskPrice},
		{"crossed", func(s *schema.MarketSnapshot) { s.BestBidPrice = s.BestAskPrice + 1 }, ValidationCrossedBook},
		{"locked", func(s *schema.MarketSnapshot) { s.BestBidPrice = s.BestAskPrice }, ValidationLockedBook},
		{"zero bid size", func(s *schema.MarketSnapshot) { s.BestBidSize = 0 }, ValidationZeroBidSize},
		{"zero ask size", func(s *schema.MarketSnapshot) { s.BestAskSize = 0 }, ValidationZeroAskSize},
		{"spread too wide", func(s *schema.MarketSnapshot) { s.BestAskPrice = s.BestBidPrice * 2 }, ValidationSpreadTooWide},
		{"stale", func(s *schema.MarketSnapshot) { s.ExchangeTsNano = baseClock - int64(time.Minute) }, ValidationStaleData},
		{"future beyond skew", func(s *schema.MarketSnapshot) { s.ExchangeTsNano = baseClock + int64(10*time.Second) }, ValidationStaleData},
		{"torn bid level", func(s *schema.MarketSnapshot) { s.Bids[3].Size = 0 }, ValidationBadDepthLevel},
		{"torn ask level", func(s *schema.MarketSnapshot) { s.Asks[7].Price = 0 }, ValidationBadDepthLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSnapshot(9)
			tt.mutate(&s)
			err := v.Validate(&s)
			require.NotNil(t, err)
			require.Equal(t, tt.want, err.Kind)
			require.Equal(t, uint64(9), err.Sequence)
		})
	}
}

func TestValidateZeroPriceBeatsCrossed(t *testing.T) {
	// Both bid and ask are broken: the first check in the order wins.
	v := testValidator()
	s := validSnapshot(2)
	s.BestBidPrice = 0
	s.BestAskPrice = -1
	err := v.Validate(&s)
	require.NotNil(t, err)
	require.Equal(t, ValidationZeroBidPrice, err.Kind)
}

func TestValidateIncrementalSkipsDepth(t *testing.T) {
	v := testValidator()
	s := validSnapshot(3)
	s.Bids[5] = schema.Level{Price: schema.Price(unit), Size: 0}

	// Same torn level: rejected on a full snapshot, ignored on an
	// incremental one.
	require.NotNil(t, v.Validate(&s))

	s.Flags &^= schema.SnapshotFlagFull
	require.Nil(t, v.Validate(&s))
}

func TestValidateClockSkewTolerated(t *testing.T) {
	v := testValidator()
	s := validSnapshot(4)
	s.ExchangeTsNano = baseClock + int64(500*time.Millisecond)
	require.Nil(t, v.Validate(&s))
}

func TestValidateEmptyLevelsAllowed(t *testing.T) {
	v := testValidator()
	s := validSnapshot(5)
	// A fully empty tail level is fine, only torn levels are not.
	s.Bids[9] = schema.Level{}
	s.Asks[9] = schema.Level{}
	require.Nil(t, v.Validate(&s))
}

func TestBookApply(t *testing.T) {
	b := NewBook(1)
	require.False(t, b.Primed())

	full := validSnapshot(1)
	b.Apply(&full)
	require.True(t, b.Primed())
	require.Equal(t, full.BestBidPrice, b.BestBid().Price)
	require.Equal(t, uint64(1), b.LastSequence())

	bids, _ := b.Depth()
	require.Equal(t, full.Bids, bids)

	// Incremental: top of book moves, cached depth stays.
	inc := NewSnapshotBuilder(1, 2).
		Quote(full.BestBidPrice+schema.Price(unit), schema.Quantity(unit), full.BestAskPrice+schema.Price(unit), schema.Quantity(unit)).
		Incremental().
		Build()
	b.Apply(&inc)
	require.Equal(t, inc.BestBidPrice, b.BestBid().Price)
	require.Equal(t, uint64(2), b.LastSequence())

	bids, _ = b.Depth()
	require.Equal(t, inc.BestBidPrice, bids[0].Price)
	require.Equal(t, full.Bids[1], bids[1])
}

func TestBookTopChanged(t *testing.T) {
	b := NewBook(1)
	s := validSnapshot(1)
	b.Apply(&s)
	require.False(t, b.TopChanged(&s))

	moved := s
	moved.BestBidSize++
	require.True(t, b.TopChanged(&moved))
}
