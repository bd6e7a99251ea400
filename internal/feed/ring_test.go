package feed

import (
	"testing"

	"github.com/stretchr/testify/require"

	"main/internal/schema"
	"main/pkg/exception"
)

func snap(seq uint64) schema.MarketSnapshot {
	return schema.MarketSnapshot{Sequence: seq}
}

func TestRingPublishPoll(t *testing.T) {
	r := NewRing(4)

	_, ok := r.Poll()
	require.False(t, ok)

	r.Publish(snap(1))
	r.Publish(snap(2))
	require.Equal(t, 2, r.Len())

	s, ok := r.Poll()
	require.True(t, ok)
	require.Equal(t, uint64(1), s.Sequence)

	s, ok = r.Poll()
	require.True(t, ok)
	require.Equal(t, uint64(2), s.Sequence)

	_, ok = r.Poll()
	require.False(t, ok)
}

func TestRingOverwritesOldest(t *testing.T) {
	r := NewRing(4)
	for seq := uint64(1); seq <= 6; seq++ {
		r.Publish(snap(seq))
	}
	require.Equal(t, uint64(2), r.Dropped())

	// 1 and 2 were overwritten; reading starts at 3.
	s, ok := r.Poll()
	require.True(t, ok)
	require.Equal(t, uint64(3), s.Sequence)
}

func TestRingRewind(t *testing.T) {
	r := NewRing(8)
	for seq := uint64(1); seq <= 5; seq++ {
		r.Publish(snap(seq))
	}

	// Read two, save, read more, rewind: the saved position replays.
	r.Poll()
	r.Poll()
	cursor := r.Cursor()
	r.Poll()
	r.Poll()

	require.NoError(t, r.RewindTo(cursor))
	s, ok := r.Poll()
	require.True(t, ok)
	require.Equal(t, uint64(3), s.Sequence)
}

func TestRingRewindOverwritten(t *testing.T) {
	r := NewRing(4)
	r.Publish(snap(1))
	r.Poll()
	cursor := uint64(0)

	// Fill past capacity so slot 0 is gone.
	for seq := uint64(2); seq <= 7; seq++ {
		r.Publish(snap(seq))
	}
	require.ErrorIs(t, r.RewindTo(cursor), exception.ErrCursorOverwritten)
}

func TestRingRewindForwardRejected(t *testing.T) {
	r := NewRing(4)
	r.Publish(snap(1))
	require.ErrorIs(t, r.RewindTo(5), exception.ErrInvalidArgument)
}

func TestRingResyncFlag(t *testing.T) {
	r := NewRing(4)
	require.False(t, r.TakeResyncRequest())

	r.RequestResync()
	require.True(t, r.TakeResyncRequest())
	require.False(t, r.TakeResyncRequest())
}
