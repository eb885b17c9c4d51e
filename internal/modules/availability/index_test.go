package availability

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_UnknownCar(t *testing.T) {
	idx := NewIndex()

	_, err := idx.IsAvailable(42)
	assert.ErrorIs(t, err, ErrCarNotTracked)

	err = idx.Set(42, true)
	assert.ErrorIs(t, err, ErrCarNotTracked)
}

func TestIndex_TrackAndSet(t *testing.T) {
	idx := NewIndex()
	idx.Track(1, true)

	avail, err := idx.IsAvailable(1)
	require.NoError(t, err)
	assert.True(t, avail)

	require.NoError(t, idx.Set(1, false))
	avail, err = idx.IsAvailable(1)
	require.NoError(t, err)
	assert.False(t, avail)

	// setting the same value again is fine
	require.NoError(t, idx.Set(1, false))
	avail, _ = idx.IsAvailable(1)
	assert.False(t, avail)
}

func TestIndex_Forget(t *testing.T) {
	idx := NewIndex()
	idx.Track(7, true)
	idx.Forget(7)

	_, err := idx.IsAvailable(7)
	assert.ErrorIs(t, err, ErrCarNotTracked)
}

func TestIndex_Snapshot(t *testing.T) {
	idx := NewIndex()
	idx.Track(1, true)
	idx.Track(2, false)

	snap := idx.Snapshot()
	assert.Equal(t, map[int64]bool{1: true, 2: false}, snap)

	// mutating the snapshot must not touch the index
	snap[1] = false
	avail, _ := idx.IsAvailable(1)
	assert.True(t, avail)
}

func TestIndex_ConcurrentSet(t *testing.T) {
	idx := NewIndex()
	idx.Track(1, true)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = idx.Set(1, n%2 == 0)
			_, _ = idx.IsAvailable(1)
		}(i)
	}
	wg.Wait()

	_, err := idx.IsAvailable(1)
	assert.NoError(t, err)
}
