// Package searchholder holds the currently-published read-only index
// snapshot (spec §4.4's "Searcher Holder"): writers publish a new snapshot
// after every flush without blocking in-flight readers, and a snapshot is
// only released once every reader leasing it has returned it.
//
// Grounded in the same atomic-publish-plus-refcount shape the acoustid-api
// example uses for its manifest snapshots (index/db.go's Snapshot type),
// adapted from a single atomic.Value into a lock-free incrementing
// refcount so a reader can never observe a snapshot mid-teardown.
package searchholder

import (
	"errors"
	"sync/atomic"

	"github.com/docidx/docidx/internal/errs"
)

// ErrNoSnapshot is returned by GetSearcher before any snapshot has been
// published, or after the holder has been disposed.
var ErrNoSnapshot = errors.New("searchholder: no snapshot published")

// Snapshot is anything a Searcher Holder can publish and later tear down:
// the underlying index library's read-only reader handle.
type Snapshot interface {
	Close() error
}

// entry pairs a published snapshot with the refcount tracking how many
// leases (the holder's own hold, plus each outstanding reader) are still
// using it. refs starts at 1 for the holder's own hold; SetSnapshot or
// Dispose drops that hold, and the entry is torn down once refs reaches 0.
type entry struct {
	snap Snapshot
	refs int64
}

// Holder publishes snapshots and leases them out to readers. The zero
// value is not usable; construct with New.
type Holder struct {
	cur atomic.Pointer[entry]
}

// New returns an empty Holder with no published snapshot.
func New() *Holder {
	return &Holder{}
}

// SetSnapshot publishes snap as the current snapshot, replacing whatever
// was published before. The previous snapshot is released — and, once its
// last outstanding lease returns it, closed — but SetSnapshot itself never
// blocks waiting for that to happen.
func (h *Holder) SetSnapshot(snap Snapshot) {
	next := &entry{snap: snap, refs: 1}
	old := h.cur.Swap(next)
	if old != nil {
		h.release(old)
	}
}

// Lease is a scoped hold on one snapshot returned by GetSearcher. Release
// must be called exactly once; calling it more than once is a safe no-op.
type Lease struct {
	entry    *entry
	holder   *Holder
	released atomic.Bool
}

// Searcher returns the leased snapshot.
func (l *Lease) Searcher() Snapshot {
	return l.entry.snap
}

// Release returns the lease. The snapshot it pinned is closed if this was
// the last outstanding lease and the snapshot is no longer current.
func (l *Lease) Release() error {
	if l.released.Swap(true) {
		return nil
	}
	return l.holder.release(l.entry)
}

// GetSearcher leases the current snapshot, incrementing its refcount
// before returning so it cannot be closed out from under the caller.
// Callers must call Lease.Release exactly once when done.
func (h *Holder) GetSearcher() (*Lease, error) {
	for {
		e := h.cur.Load()
		if e == nil {
			return nil, ErrNoSnapshot
		}
		old := atomic.LoadInt64(&e.refs)
		if old <= 0 {
			// Lost the race with teardown; the pointer we loaded is being
			// (or has been) closed. Retry against whatever is current now.
			continue
		}
		if atomic.CompareAndSwapInt64(&e.refs, old, old+1) {
			return &Lease{entry: e, holder: h}, nil
		}
	}
}

// Dispose releases the holder's own hold on the current snapshot without
// publishing a replacement, leaving the holder with nothing published.
// Outstanding leases keep the snapshot alive until they are released.
func (h *Holder) Dispose() error {
	old := h.cur.Swap(nil)
	if old == nil {
		return nil
	}
	return h.release(old)
}

func (h *Holder) release(e *entry) error {
	remaining := atomic.AddInt64(&e.refs, -1)
	if remaining > 0 {
		return nil
	}
	if err := e.snap.Close(); err != nil {
		return errs.Wrap(errs.ErrCodeDirectoryCloseFailed, err)
	}
	return nil
}
