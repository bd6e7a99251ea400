package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"main/internal/schema"
	"main/pkg/exception"
)

// fakeFeed replays a scripted message list with a rewindable cursor.
type fakeFeed struct {
	messages        []schema.MarketSnapshot
	cursor          uint64
	resyncRequested bool
	onResync        func(*fakeFeed)
}

func (f *fakeFeed) Cursor() uint64 { return f.cursor }

func (f *fakeFeed) RewindTo(cursor uint64) error {
	if cursor > uint64(len(f.messages)) {
		return exception.ErrCursorOverwritten
	}
	f.cursor = cursor
	return nil
}

func (f *fakeFeed) RequestResync() {
	f.resyncRequested = true
	if f.onResync != nil {
		f.onResync(f)
	}
}

func (f *fakeFeed) Poll() (schema.MarketSnapshot, bool) {
	if f.cursor >= uint64(len(f.messages)) {
		return schema.MarketSnapshot{}, false
	}
	s := f.messages[f.cursor]
	f.cursor++
	return s, true
}

func fullSnapshot(seq uint64) schema.MarketSnapshot {
	return schema.MarketSnapshot{Sequence: seq, Flags: schema.SnapshotFlagFull}
}

func incSnapshot(seq uint64) schema.MarketSnapshot {
	return schema.MarketSnapshot{Sequence: seq}
}

func TestRecoverReplaysBufferedMessages(t *testing.T) {
	gaps := NewGapDetector()
	gaps.Check(100)
	require.Equal(t, uint64(9), gaps.Check(110))

	// Messages 111 and 112 are already buffered when the resync full
	// snapshot arrives behind them.
	feed := &fakeFeed{
		messages: []schema.MarketSnapshot{incSnapshot(111), incSnapshot(112)},
		onResync: func(f *fakeFeed) {
			f.messages = append(f.messages, fullSnapshot(113))
		},
	}

	r := NewRecovery(RecoveryConfig{Timeout: time.Second, PollInterval: time.Millisecond}, gaps, nil)
	require.NoError(t, r.Recover(context.Background(), feed, 110))
	require.True(t, feed.resyncRequested)

	// Every buffered message replays after the rewind: nothing lost.
	var replayed []uint64
	for {
		s, ok := feed.Poll()
		if !ok {
			break
		}
		replayed = append(replayed, s.Sequence)
	}
	require.Equal(t, []uint64{111, 112, 113}, replayed)

	// Detector was re-based at the gapped snapshot, so the replay is
	// continuous.
	require.Equal(t, uint64(0), gaps.Check(111))
	require.Equal(t, uint64(0), gaps.Check(112))
}

func TestRecoverTimeout(t *testing.T) {
	gaps := NewGapDetector()
	feed := &fakeFeed{} // resync never delivers a full snapshot

	r := NewRecovery(RecoveryConfig{Timeout: 20 * time.Millisecond, PollInterval: time.Millisecond}, gaps, nil)
	err := r.Recover(context.Background(), feed, 10)
	require.ErrorIs(t, err, exception.ErrResyncTimeout)
}

func TestRecoverBreakerOpen(t *testing.T) {
	gaps := NewGapDetector()
	breaker := NewConnBreaker(ConnBreakerConfig{Name: "resync", FailureThreshold: 1, Timeout: time.Hour})
	breaker.RecordFailure()

	r := NewRecovery(RecoveryConfig{Timeout: time.Second}, gaps, breaker)
	err := r.Recover(context.Background(), &fakeFeed{}, 10)
	require.ErrorIs(t, err, exception.ErrBreakerOpen)
}

func TestRecoverCancelled(t *testing.T) {
	gaps := NewGapDetector()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRecovery(RecoveryConfig{Timeout: time.Second}, gaps, nil)
	err := r.Recover(ctx, &fakeFeed{}, 10)
	require.Error(t, err)
}
