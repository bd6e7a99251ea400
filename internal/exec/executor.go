// Package exec submits orders to a venue and delivers the resulting
// fills back to the engine through a bounded, non-blocking queue.
package exec

import (
	"main/internal/og"
	"main/internal/schema"
)

// Executor is the venue-facing side of the engine. Submit and
// CancelAll are called from the engine loop; fills come back through
// PollFill and are drained every tick.
type Executor interface {
	// Submit hands an order to the venue. On success the order is
	// acknowledged and tracked; on failure it is rejected.
	Submit(o *og.Order) error

	// CancelAll pulls every live order and returns how many were
	// cancelled.
	CancelAll() int

	// CheckFills matches resting orders against a snapshot. Live venues
	// push fills asynchronously and implement this as a no-op.
	CheckFills(snap *schema.MarketSnapshot)

	// PollFill returns the next pending fill without blocking.
	PollFill() (schema.Fill, bool)

	// DroppedFillCount returns how many fills could not be queued. Any
	// nonzero value means the position ledger can no longer be trusted.
	DroppedFillCount() uint64

	// OpenExposure returns the total unfilled quantity resting on each
	// side.
	OpenExposure() (buy, sell schema.Quantity)
}
