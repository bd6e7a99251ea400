// Package strategy turns validated market snapshots and the current
// position into quoting signals. Strategies are pure: no I/O, no
// clocks, no allocation on the hot path beyond the returned signal.
package strategy

import (
	"main/internal/schema"
	"main/internal/state"
)

// Strategy computes the desired quotes for one tick.
type Strategy interface {
	// Calculate returns the signal for the given snapshot and position
	// view, or nil when the strategy declines to act this tick.
	Calculate(snap *schema.MarketSnapshot, view state.View) *schema.Signal

	// Name identifies the strategy in logs and journals.
	Name() string
}
