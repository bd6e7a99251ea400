package marketdata

import (
	"fmt"
	"time"

	"main/internal/schema"
)

// ValidationKind identifies the first check a snapshot failed.
type ValidationKind uint16

const (
	ValidationUnknown ValidationKind = iota
	ValidationZeroBidPrice
	ValidationZeroAskPrice
	ValidationCrossedBook
	ValidationLockedBook
	ValidationZeroBidSize
	ValidationZeroAskSize
	ValidationSpreadTooNarrow
	ValidationSpreadTooWide
	ValidationStaleData
	ValidationBadDepthLevel
)

func (k ValidationKind) String() string {
	switch k {
	case ValidationZeroBidPrice:
		return "zero_bid_price"
	case ValidationZeroAskPrice:
		return "zero_ask_price"
	case ValidationCrossedBook:
		return "crossed_book"
	case ValidationLockedBook:
		return "locked_book"
	case ValidationZeroBidSize:
		return "zero_bid_size"
	case ValidationZeroAskSize:
		return "zero_ask_size"
	case ValidationSpreadTooNarrow:
		return "spread_too_narrow"
	case ValidationSpreadTooWide:
		return "spread_too_wide"
	case ValidationStaleData:
		return "stale_data"
	case ValidationBadDepthLevel:
		return "bad_depth_level"
	default:
		return "unknown"
	}
}

// ValidationError reports why a snapshot was rejected. It is a soft
// error: the tick is skipped and the engine keeps running.
type ValidationError struct {
	Kind     ValidationKind
	Sequence uint64
	Detail   string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("snapshot %d invalid: %s", e.Sequence, e.Kind)
	}
	return fmt.Sprintf("snapshot %d invalid: %s: %s", e.Sequence, e.Kind, e.Detail)
}

// ValidatorConfig bounds what the validator accepts.
type ValidatorConfig struct {
	// MinSpreadBps and MaxSpreadBps bound the quoted spread. Zero
	// MinSpreadBps allows locked checks to run alone; zero
	// MaxSpreadBps disables the upper bound.
	MinSpreadBps int64
	MaxSpreadBps int64

	// MaxAge is the oldest acceptable exchange timestamp relative to
	// the local clock. Zero disables staleness checks.
	MaxAge time.Duration

	// ClockSkewTolerance forgives snapshots timestamped slightly in
	// the future.
	ClockSkewTolerance time.Duration
}

// Validator applies ordered structural checks to snapshots.
type Validator struct {
	cfg ValidatorConfig
	now func() int64
}

// NewValidator creates a validator using the wall clock.
func NewValidator(cfg ValidatorConfig) *Validator {
	return &Validator{
		cfg: cfg,
		now: func() int64 { return time.Now().UTC().UnixNano() },
	}
}

// NewValidatorWithClock creates a validator with an injected clock for
// deterministic tests and replay.
func NewValidatorWithClock(cfg ValidatorConfig, now func() int64) *Validator {
	return &Validator{cfg: cfg, now: now}
}

// Validate runs every check in a fixed order and returns the first
// failure. Depth levels are only inspected on full snapshots; the
// depth arrays of an incremental snapshot carry stale data and must
// not be trusted.
func (v *Validator) Validate(s *schema.MarketSnapshot) *ValidationError {
	if s.BestBidPrice <= 0 {
		return &ValidationError{Kind: ValidationZeroBidPrice, Sequence: s.Sequence}
	}
	if s.BestAskPrice <= 0 {
		return &ValidationError{Kind: ValidationZeroAskPrice, Sequence: s.Sequence}
	}
	if s.BestBidPrice > s.BestAskPrice {
		return &ValidationError{
			Kind:     ValidationCrossedBook,
			Sequence: s.Sequence,
			Detail:   fmt.Sprintf("bid=%s ask=%s", s.BestBidPrice, s.BestAskPrice),
		}
	}
	if s.BestBidPrice == s.BestAskPrice {
		return &ValidationError{Kind: ValidationLockedBook, Sequence: s.Sequence}
	}
	if s.BestBidSize <= 0 {
		return &ValidationError{Kind: ValidationZeroBidSize, Sequence: s.Sequence}
	}
	if s.BestAskSize <= 0 {
		return &ValidationError{Kind: ValidationZeroAskSize, Sequence: s.Sequence}
	}

	spread := s.SpreadBps()
	if v.cfg.MinSpreadBps > 0 && spread < v.cfg.MinSpreadBps {
		return &ValidationError{
			Kind:     ValidationSpreadTooNarrow,
			Sequence: s.Sequence,
			Detail:   fmt.Sprintf("spread=%dbps min=%dbps", spread, v.cfg.MinSpreadBps),
		}
	}
	if v.cfg.MaxSpreadBps > 0 && spread > v.cfg.MaxSpreadBps {
		return &ValidationError{
			Kind:     ValidationSpreadTooWide,
			Sequence: s.Sequence,
			Detail:   fmt.Sprintf("spread=%dbps max=%dbps", spread, v.cfg.MaxSpreadBps),
		}
	}

	if v.cfg.MaxAge > 0 && s.ExchangeTsNano > 0 {
		age := v.now() - s.ExchangeTsNano
		if age < 0 {
			// Future timestamp: tolerate bounded clock skew.
			if -age > int64(v.cfg.ClockSkewTolerance) {
				return &ValidationError{
					Kind:     ValidationStaleData,
					Sequence: s.Sequence,
					Detail:   fmt.Sprintf("timestamp %dns in the future", -age),
				}
			}
		} else if age > int64(v.cfg.MaxAge) {
			return &ValidationError{
				Kind:     ValidationStaleData,
				Sequence: s.Sequence,
				Detail:   fmt.Sprintf("age=%dns max=%dns", age, int64(v.cfg.MaxAge)),
			}
		}
	}

	if s.IsFull() {
		if err := validateDepth(s); err != nil {
			return err
		}
	}
	return nil
}

// validateDepth requires every populated level to carry both a price
// and a size: price>0 with size==0 or the reverse marks a torn level.
func validateDepth(s *schema.MarketSnapshot) *ValidationError {
	for i := 0; i < schema.DepthLevels; i++ {
		if (s.Bids[i].Price > 0) != (s.Bids[i].Size > 0) {
			return &ValidationError{
				Kind:     ValidationBadDepthLevel,
				Sequence: s.Sequence,
				Detail:   fmt.Sprintf("bid level %d: price=%s size=%s", i, s.Bids[i].Price, s.Bids[i].Size),
			}
		}
		if (s.Asks[i].Price > 0) != (s.Asks[i].Size > 0) {
			return &ValidationError{
				Kind:     ValidationBadDepthLevel,
				Sequence: s.Sequence,
				Detail:   fmt.Sprintf("ask level %d: price=%s size=%s", i, s.Asks[i].Price, s.Asks[i].Size),
			}
		}
	}
	return nil
}
