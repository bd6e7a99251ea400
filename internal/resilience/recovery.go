package resilience

import (
	"context"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/errors"
	"main/internal/schema"
	"main/pkg/exception"
)

// ResyncFeed is the feed surface the recovery protocol needs: a read
// cursor that can be saved and rewound, a resync request channel to
// the producer, and non-blocking polling.
type ResyncFeed interface {
	Cursor() uint64
	RewindTo(cursor uint64) error
	RequestResync()
	Poll() (schema.MarketSnapshot, bool)
}

// RecoveryConfig bounds the resync wait.
type RecoveryConfig struct {
	Timeout      time.Duration
	PollInterval time.Duration
}

func (c RecoveryConfig) withDefaults() RecoveryConfig {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Millisecond
	}
	return c
}

// Recovery runs the gap recovery protocol: save the read cursor,
// request a full resync, wait for a full snapshot, rewind so every
// message buffered during the wait replays, then re-base the gap
// detector. No message is lost or double-applied across the boundary.
type Recovery struct {
	cfg     RecoveryConfig
	gaps    *GapDetector
	breaker *ConnBreaker
}

// NewRecovery creates a recovery manager bound to a gap detector.
func NewRecovery(cfg RecoveryConfig, gaps *GapDetector, breaker *ConnBreaker) *Recovery {
	return &Recovery{cfg: cfg.withDefaults(), gaps: gaps, breaker: breaker}
}

// Recover handles a detected gap. lastProcessedSeq is the sequence of
// the snapshot that revealed the gap; the detector is re-based there
// rather than at the resync snapshot's own sequence, which may be
// stale.
func (r *Recovery) Recover(ctx context.Context, feed ResyncFeed, lastProcessedSeq uint64) error {
	if r.breaker != nil && !r.breaker.Allow() {
		return exception.ErrBreakerOpen
	}

	cursor := feed.Cursor()
	feed.RequestResync()

	deadline := time.Now().Add(r.cfg.Timeout)
	for {
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "await resync snapshot")
		default:
		}
		if time.Now().After(deadline) {
			if r.breaker != nil {
				r.breaker.RecordFailure()
			}
			return exception.ErrResyncTimeout
		}

		s, ok := feed.Poll()
		if ok && s.IsFull() {
			break
		}
		if !ok {
			time.Sleep(r.cfg.PollInterval)
		}
	}

	if err := feed.RewindTo(cursor); err != nil {
		if r.breaker != nil {
			r.breaker.RecordFailure()
		}
		return errors.Wrap(err, "rewind after resync")
	}

	r.gaps.ResetAt(lastProcessedSeq)
	if r.breaker != nil {
		r.breaker.RecordSuccess()
	}
	logs.Infof("gap recovery completed, rebased_seq: %d", lastProcessedSeq)
	return nil
}
