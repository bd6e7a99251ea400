package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStaleBreakerStates(t *testing.T) {
	b := NewStaleBreaker(StaleBreakerConfig{
		MaxAge:        100 * time.Millisecond,
		MaxEmptyPolls: 3,
	})
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC).UnixNano()

	// No data yet.
	require.Equal(t, FreshnessStale, b.State(now))

	b.MarkFresh(now)
	require.Equal(t, FreshnessFresh, b.State(now))
	require.True(t, b.IsFresh(now+int64(50*time.Millisecond)))

	// Data ages out.
	require.Equal(t, FreshnessStale, b.State(now+int64(200*time.Millisecond)))

	// Fresh again on new data.
	later := now + int64(300*time.Millisecond)
	b.MarkFresh(later)
	require.Equal(t, FreshnessFresh, b.State(later))
}

func TestStaleBreakerOffline(t *testing.T) {
	b := NewStaleBreaker(StaleBreakerConfig{
		MaxAge:        time.Second,
		MaxEmptyPolls: 2,
	})
	now := time.Now().UTC().UnixNano()
	b.MarkFresh(now)

	b.MarkEmptyPoll()
	b.MarkEmptyPoll()
	require.Equal(t, FreshnessFresh, b.State(now))

	b.MarkEmptyPoll()
	require.Equal(t, FreshnessOffline, b.State(now))

	// A single message brings the feed back.
	b.MarkFresh(now)
	require.Equal(t, FreshnessFresh, b.State(now))
}

func TestTradingBreaker(t *testing.T) {
	b := NewTradingBreaker(500) // 5% jump trips

	require.False(t, b.Observe(100_000))
	require.False(t, b.Observe(100_400)) // 40 bps move
	require.True(t, b.Observe(110_000))  // ~9.6% move
	require.True(t, b.Halted())

	// Latched until reset.
	require.False(t, b.Observe(110_001))
	require.True(t, b.Halted())

	b.Reset()
	require.False(t, b.Halted())
	require.False(t, b.Observe(110_000))
}

func TestJumpExceedsBps(t *testing.T) {
	require.False(t, JumpExceedsBps(10_000, 10_010, 100)) // 10 bps < 100
	require.True(t, JumpExceedsBps(10_000, 10_200, 100))  // 200 bps > 100
	require.True(t, JumpExceedsBps(10_000, 9_800, 100))   // downside too
	require.False(t, JumpExceedsBps(0, 10, 100))
	require.False(t, JumpExceedsBps(10, 10, 100))
}

func TestConnBreaker(t *testing.T) {
	b := NewConnBreaker(ConnBreakerConfig{
		Name:             "resync",
		FailureThreshold: 2,
		SuccessThreshold: 2,
		Timeout:          10 * time.Millisecond,
	})
	require.True(t, b.Allow())

	b.RecordFailure()
	require.True(t, b.Allow())
	b.RecordFailure()
	require.Equal(t, ConnOpen, b.State())
	require.False(t, b.Allow())

	// After the timeout a probe is admitted.
	time.Sleep(20 * time.Millisecond)
	require.True(t, b.Allow())
	require.Equal(t, ConnHalfOpen, b.State())

	// A half-open failure reopens immediately.
	b.RecordFailure()
	require.Equal(t, ConnOpen, b.State())

	time.Sleep(20 * time.Millisecond)
	require.True(t, b.Allow())
	b.RecordSuccess()
	b.RecordSuccess()
	require.Equal(t, ConnClosed, b.State())
}
