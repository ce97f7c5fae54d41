package searchholder

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSnapshot struct {
	closed bool
}

func (f *fakeSnapshot) Close() error {
	f.closed = true
	return nil
}

func TestGetSearcher_NoSnapshotYet(t *testing.T) {
	h := New()
	_, err := h.GetSearcher()
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSetSnapshot_ThenGetSearcher_ReturnsIt(t *testing.T) {
	h := New()
	snap := &fakeSnapshot{}
	h.SetSnapshot(snap)

	lease, err := h.GetSearcher()
	require.NoError(t, err)
	assert.Same(t, snap, lease.Searcher())
	require.NoError(t, lease.Release())
}

func TestSetSnapshot_OldSnapshotClosedOnceLeasesDrain(t *testing.T) {
	h := New()
	old := &fakeSnapshot{}
	h.SetSnapshot(old)

	lease, err := h.GetSearcher()
	require.NoError(t, err)

	// Publishing a replacement must not close old while lease is held.
	next := &fakeSnapshot{}
	h.SetSnapshot(next)
	assert.False(t, old.closed)

	require.NoError(t, lease.Release())
	assert.True(t, old.closed)
	assert.False(t, next.closed)
}

func TestSetSnapshot_OldSnapshotClosedImmediatelyWhenNoLeases(t *testing.T) {
	h := New()
	old := &fakeSnapshot{}
	h.SetSnapshot(old)
	h.SetSnapshot(&fakeSnapshot{})
	assert.True(t, old.closed)
}

func TestLease_ReleaseIsIdempotent(t *testing.T) {
	h := New()
	snap := &fakeSnapshot{}
	h.SetSnapshot(snap)

	lease, err := h.GetSearcher()
	require.NoError(t, err)
	require.NoError(t, lease.Release())
	require.NoError(t, lease.Release())
	// The snapshot is still current, so the holder's own hold keeps it
	// open; a second decrement would have closed it.
	assert.False(t, snap.closed)
}

func TestDispose_ClosesCurrentSnapshotOnceUnleased(t *testing.T) {
	h := New()
	snap := &fakeSnapshot{}
	h.SetSnapshot(snap)

	lease, err := h.GetSearcher()
	require.NoError(t, err)

	require.NoError(t, h.Dispose())
	assert.False(t, snap.closed)

	_, err = h.GetSearcher()
	assert.ErrorIs(t, err, ErrNoSnapshot)

	require.NoError(t, lease.Release())
	assert.True(t, snap.closed)
}

func TestDispose_NoSnapshotPublishedIsSafe(t *testing.T) {
	h := New()
	assert.NoError(t, h.Dispose())
}

func TestGetSearcher_ConcurrentLeasesAndSwaps(t *testing.T) {
	h := New()
	h.SetSnapshot(&fakeSnapshot{})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			lease, err := h.GetSearcher()
			if err != nil {
				return
			}
			_ = lease.Release()
		}()
		go func() {
			defer wg.Done()
			h.SetSnapshot(&fakeSnapshot{})
		}()
	}
	wg.Wait()

	lease, err := h.GetSearcher()
	require.NoError(t, err)
	require.NoError(t, lease.Release())
}
