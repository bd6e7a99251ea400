package resilience

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGapDetectorContinuous(t *testing.T) {
	d := NewGapDetector()
	require.Equal(t, uint64(0), d.Check(100))
	require.Equal(t, uint64(0), d.Check(101))
	require.Equal(t, uint64(0), d.Check(102))
	require.Equal(t, uint64(0), d.Stats().Gaps)
}

func TestGapDetectorGap(t *testing.T) {
	d := NewGapDetector()
	require.Equal(t, uint64(0), d.Check(100))
	// 101..109 missing.
	require.Equal(t, uint64(9), d.Check(110))

	stats := d.Stats()
	require.Equal(t, uint64(1), stats.Gaps)
	require.Equal(t, uint64(9), stats.MaxGap)
	require.Equal(t, uint64(110), stats.Last)
}

func TestGapDetectorDuplicate(t *testing.T) {
	d := NewGapDetector()
	d.Check(5)
	require.Equal(t, uint64(0), d.Check(5))
	require.Equal(t, uint64(1), d.Stats().Duplicates)
}

func TestGapDetectorWraparound(t *testing.T) {
	d := NewGapDetector()
	d.Check(math.MaxUint64 - 2)

	// MaxUint64-1, MaxUint64, 0, 1, ... continuous across the boundary.
	require.Equal(t, uint64(0), d.Check(math.MaxUint64-1))
	require.Equal(t, uint64(0), d.Check(math.MaxUint64))
	require.Equal(t, uint64(0), d.Check(0))
	require.Equal(t, uint64(0), d.Check(1))
}

func TestGapDetectorWraparoundGap(t *testing.T) {
	d := NewGapDetector()
	d.Check(math.MaxUint64 - 2)
	// Missing: MaxUint64-1, MaxUint64, 0, 1, 2, 3, 4 = 7 messages.
	require.Equal(t, uint64(7), d.Check(5))
}

func TestGapSeverity(t *testing.T) {
	require.Equal(t, GapMinor, Severity(1))
	require.Equal(t, GapMinor, Severity(10))
	require.Equal(t, GapMajor, Severity(11))
	require.Equal(t, GapMajor, Severity(1000))
	require.Equal(t, GapCritical, Severity(1001))
	require.Equal(t, "critical", Severity(math.MaxUint64).String())
}

func TestGapDetectorResetAt(t *testing.T) {
	d := NewGapDetector()
	d.Check(100)
	require.Equal(t, uint64(9), d.Check(110))

	d.ResetAt(110)
	require.Equal(t, uint64(0), d.Check(111))
}
