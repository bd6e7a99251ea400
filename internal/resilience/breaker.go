package resilience

import (
	"github.com/yanun0323/logs"

	"main/internal/schema"
)

// TradingState is the state of the flash-crash breaker.
type TradingState uint8

const (
	TradingNormal TradingState = iota
	TradingHalted
)

func (s TradingState) String() string {
	switch s {
	case TradingNormal:
		return "normal"
	case TradingHalted:
		return "halted"
	default:
		return "unknown"
	}
}

// TradingBreaker halts quoting when the mid price moves more than
// MaxJumpBps between consecutive ticks. Once tripped it stays halted
// until an explicit Reset; a flash crash is not something to trade
// through automatically.
type TradingBreaker struct {
	maxJumpBps int64
	state      TradingState
	lastMid    schema.Price
}

// NewTradingBreaker creates a breaker. maxJumpBps <= 0 disables it.
func NewTradingBreaker(maxJumpBps int64) *TradingBreaker {
	return &TradingBreaker{maxJumpBps: maxJumpBps}
}

// Observe feeds the current mid and returns true when the breaker
// trips on this observation.
func (b *TradingBreaker) Observe(mid schema.Price) bool {
	prev := b.lastMid
	b.lastMid = mid
	if b.state == TradingHalted || b.maxJumpBps <= 0 || prev <= 0 || mid <= 0 {
		return false
	}
	if JumpExceedsBps(prev, mid, b.maxJumpBps) {
		b.state = TradingHalted
		logs.Warnf("trading breaker tripped, prev_mid: %s, mid: %s, max_jump_bps: %d", prev, mid, b.maxJumpBps)
		return true
	}
	return false
}

// State returns the current breaker state.
func (b *TradingBreaker) State() TradingState {
	return b.state
}

// Halted reports whether quoting is halted.
func (b *TradingBreaker) Halted() bool {
	return b.state == TradingHalted
}

// Reset re-arms the breaker.
func (b *TradingBreaker) Reset() {
	b.state = TradingNormal
	b.lastMid = 0
}

// JumpExceedsBps reports whether the move from prev to cur exceeds bps
// basis points of prev. The comparison avoids overflow by bounding the
// multiplication first.
func JumpExceedsBps(prev, cur schema.Price, bps int64) bool {
	if prev <= 0 || cur <= 0 || bps <= 0 {
		return false
	}
	diff := int64(cur) - int64(prev)
	if diff < 0 {
		diff = -diff
	}
	const maxInt64 = int64(^uint64(0) >> 1)
	if diff > maxInt64/10_000 {
		return true
	}
	lhs := diff * 10_000
	if int64(prev) > maxInt64/bps {
		return false
	}
	return lhs > int64(prev)*bps
}
