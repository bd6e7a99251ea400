package marketdata

import "main/internal/schema"

// Book is the cached L2 view of one market, synced from validated
// snapshots. A full snapshot replaces every level; an incremental one
// only refreshes the top of book, because its depth arrays are stale.
type Book struct {
	marketID     uint64
	bids         [schema.DepthLevels]schema.Level
	asks         [schema.DepthLevels]schema.Level
	bestBid      schema.Level
	bestAsk      schema.Level
	lastSequence uint64
	lastTsNano   int64
	primed       bool
}

// NewBook creates an empty book for one market.
func NewBook(marketID uint64) *Book {
	return &Book{marketID: marketID}
}

// Apply syncs the book from a validated snapshot.
func (b *Book) Apply(s *schema.MarketSnapshot) {
	b.bestBid = schema.Level{Price: s.BestBidPrice, Size: s.BestBidSize}
	b.bestAsk = schema.Level{Price: s.BestAskPrice, Size: s.BestAskSize}
	b.lastSequence = s.Sequence
	b.lastTsNano = s.LocalTsNano

	if s.IsFull() {
		b.bids = s.Bids
		b.asks = s.Asks
		b.primed = true
		return
	}
	// Incremental: keep cached depth, pin the top levels.
	b.bids[0] = b.bestBid
	b.asks[0] = b.bestAsk
}

// Primed reports whether a full snapshot has been applied.
func (b *Book) Primed() bool {
	return b.primed
}

// Invalidate drops trust in the cached depth, typically after a failed
// gap recovery. The book re-primes on the next full snapshot.
func (b *Book) Invalidate() {
	b.primed = false
}

// BestBid returns the top bid level.
func (b *Book) BestBid() schema.Level {
	return b.bestBid
}

// BestAsk returns the top ask level.
func (b *Book) BestAsk() schema.Level {
	return b.bestAsk
}

// Depth returns the cached depth arrays.
func (b *Book) Depth() (bids, asks [schema.DepthLevels]schema.Level) {
	return b.bids, b.asks
}

// MidPrice returns the top-of-book mid without overflow.
func (b *Book) MidPrice() schema.Price {
	bid := int64(b.bestBid.Price)
	ask := int64(b.bestAsk.Price)
	return schema.Price(bid/2 + ask/2 + (bid%2+ask%2)/2)
}

// LastSequence returns the sequence of the last applied snapshot.
func (b *Book) LastSequence() uint64 {
	return b.lastSequence
}

// LastTsNano returns the local timestamp of the last applied snapshot.
func (b *Book) LastTsNano() int64 {
	return b.lastTsNano
}

// TopChanged reports whether the top of book differs from the given
// snapshot.
func (b *Book) TopChanged(s *schema.MarketSnapshot) bool {
	return b.bestBid.Price != s.BestBidPrice ||
		b.bestBid.Size != s.BestBidSize ||
		b.bestAsk.Price != s.BestAskPrice ||
		b.bestAsk.Size != s.BestAskSize
}
