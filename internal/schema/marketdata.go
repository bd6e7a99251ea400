package schema

// DepthLevels is the number of price levels carried on each side of a
// full snapshot.
const DepthLevels = 10

// Snapshot flag bits.
const (
	// SnapshotFlagFull marks a full book snapshot. When unset the
	// snapshot is incremental and only top-of-book fields are valid.
	SnapshotFlagFull uint8 = 1 << 0
)

// Level is one price level of the order book.
type Level struct {
	Price Price
	Size  Quantity
}

// MarketSnapshot is one order book observation from the feed.
//
// Sequence increases by one per published snapshot and wraps around at
// the uint64 boundary. ExchangeTsNano is the venue timestamp,
// LocalTsNano the local receive timestamp; both are UTC nanoseconds.
type MarketSnapshot struct {
	MarketID       uint64
	Sequence       uint64
	ExchangeTsNano int64
	LocalTsNano    int64

	BestBidPrice Price
	BestBidSize  Quantity
	BestAskPrice Price
	BestAskSize  Quantity

	Bids [DepthLevels]Level
	Asks [DepthLevels]Level

	Flags uint8
}

// IsFull reports whether the snapshot carries a trustworthy depth book.
func (s *MarketSnapshot) IsFull() bool {
	return s.Flags&SnapshotFlagFull != 0
}

// MidPrice returns the arithmetic mid of the top of book. The average
// is computed without the intermediate sum so it cannot overflow.
func (s *MarketSnapshot) MidPrice() Price {
	bid := int64(s.BestBidPrice)
	ask := int64(s.BestAskPrice)
	mid := bid/2 + ask/2 + (bid%2+ask%2)/2
	return Price(mid)
}

// SpreadBps returns the quoted spread in basis points of the bid, or 0
// when the bid is empty.
func (s *MarketSnapshot) SpreadBps() int64 {
	bid := int64(s.BestBidPrice)
	ask := int64(s.BestAskPrice)
	if bid <= 0 || ask < bid {
		return 0
	}
	diff := ask - bid
	if diff > (int64(^uint64(0)>>1))/10_000 {
		return int64(^uint64(0) >> 1)
	}
	return diff * 10_000 / bid
}
