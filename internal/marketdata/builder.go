package marketdata

import "main/internal/schema"

// SnapshotBuilder assembles snapshots for tests and synthetic feeds.
type SnapshotBuilder struct {
	s schema.MarketSnapshot
}

// NewSnapshotBuilder starts a full snapshot with sane defaults: a
// one-unit-wide book around the given mid with populated depth.
func NewSnapshotBuilder(marketID, sequence uint64) *SnapshotBuilder {
	return &SnapshotBuilder{s: schema.MarketSnapshot{
		MarketID: marketID,
		Sequence: sequence,
		Flags:    schema.SnapshotFlagFull,
	}}
}

// Mid sets a symmetric book: bid and ask are half the spread away from
// mid, every depth level one tick further out.
func (b *SnapshotBuilder) Mid(mid schema.Price, spreadBps int64, size schema.Quantity) *SnapshotBuilder {
	half := schema.Price(int64(mid) * spreadBps / 20_000)
	bid := mid - half
	ask := mid + half
	b.s.BestBidPrice = bid
	b.s.BestBidSize = size
	b.s.BestAskPrice = ask
	b.s.BestAskSize = size
	tick := schema.Price(schema.FixedUnit)
	for i := 0; i < schema.DepthLevels; i++ {
		b.s.Bids[i] = schema.Level{Price: bid - schema.Price(i)*tick, Size: size}
		b.s.Asks[i] = schema.Level{Price: ask + schema.Price(i)*tick, Size: size}
	}
	return b
}

// Quote sets the top of book directly.
func (b *SnapshotBuilder) Quote(bidPrice schema.Price, bidSize schema.Quantity, askPrice schema.Price, askSize schema.Quantity) *SnapshotBuilder {
	b.s.BestBidPrice = bidPrice
	b.s.BestBidSize = bidSize
	b.s.BestAskPrice = askPrice
	b.s.BestAskSize = askSize
	b.s.Bids[0] = schema.Level{Price: bidPrice, Size: bidSize}
	b.s.Asks[0] = schema.Level{Price: askPrice, Size: askSize}
	return b
}

// BidLevel overwrites one bid depth level.
func (b *SnapshotBuilder) BidLevel(i int, price schema.Price, size schema.Quantity) *SnapshotBuilder {
	b.s.Bids[i] = schema.Level{Price: price, Size: size}
	return b
}

// AskLevel overwrites one ask depth level.
func (b *SnapshotBuilder) AskLevel(i int, price schema.Price, size schema.Quantity) *SnapshotBuilder {
	b.s.Asks[i] = schema.Level{Price: price, Size: size}
	return b
}

// Incremental clears the full flag.
func (b *SnapshotBuilder) Incremental() *SnapshotBuilder {
	b.s.Flags &^= schema.SnapshotFlagFull
	return b
}

// Timestamps sets exchange and local timestamps.
func (b *SnapshotBuilder) Timestamps(exchangeNano, localNano int64) *SnapshotBuilder {
	b.s.ExchangeTsNano = exchangeNano
	b.s.LocalTsNano = localNano
	return b
}

// Build returns the snapshot.
func (b *SnapshotBuilder) Build() schema.MarketSnapshot {
	return b.s
}
