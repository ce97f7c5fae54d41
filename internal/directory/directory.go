// Package directory implements the opaque storage backend spec §4.1/§6
// calls "Directory": a RAM-resident temp backend or a filesystem-resident
// one, each able to open the underlying index library's handle, report an
// approximate size in bytes for the RAM→disk promotion threshold check,
// and close itself. The Index Core that owns a Directory never inspects
// its on-disk format.
//
// Grounded on the teacher's bleve-backed index construction in
// internal/store/bm25.go (NewMemOnly for RAM, Open-or-New for filesystem),
// with gofrs/flock standing in for the teacher's own advisory-lock use
// elsewhere in the codebase to keep a second process from opening the
// same filesystem directory concurrently.
package directory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/gofrs/flock"

	"github.com/docidx/docidx/internal/errs"
)

// lockRetryConfig governs how long Open waits for another process to
// release the directory lock before giving up, rather than failing on the
// first contended attempt.
var lockRetryConfig = errs.RetryConfig{
	MaxRetries:   3,
	InitialDelay: 20 * time.Millisecond,
	MaxDelay:     200 * time.Millisecond,
	Multiplier:   2.0,
	Jitter:       true,
}

// Directory is the storage backend an Index owns exclusively. The core
// only ever calls Open once per writer lifetime, Close during dispose or
// promotion, and SizeInBytes to decide whether to promote.
type Directory interface {
	// Open returns the underlying index handle, creating backing storage
	// if none exists yet.
	Open(im *mapping.IndexMappingImpl) (bleve.Index, error)

	// Close releases any directory-level resource (a lock file, for a
	// filesystem directory) that Open acquired. It does not close the
	// bleve.Index handle itself — the writer owns that.
	Close() error

	// SizeInBytes reports the directory's current size, used to decide
	// whether a RAM-resident temp directory has crossed the promotion
	// threshold.
	SizeInBytes() (int64, error)

	// IsRAM reports whether this Directory is RAM-resident and therefore
	// eligible for promotion.
	IsRAM() bool

	// Path returns the filesystem location backing this Directory, or ""
	// for a RAM directory.
	Path() string
}

// RAMDirectory backs a temp index held entirely in memory. The underlying
// index library's in-memory handle exposes no size API, so RAMDirectory
// tracks an approximate byte count itself: the writer calls Track with
// each batch's encoded size as it commits.
type RAMDirectory struct {
	written int64
}

// NewRAM returns an empty RAM-resident Directory.
func NewRAM() *RAMDirectory {
	return &RAMDirectory{}
}

func (d *RAMDirectory) Open(im *mapping.IndexMappingImpl) (bleve.Index, error) {
	idx, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeDirectoryOpenFailed, fmt.Errorf("opening ram directory: %w", err))
	}
	return idx, nil
}

// Close is a no-op: a RAM directory holds no resource beyond the
// bleve.Index handle the writer already owns and closes.
func (d *RAMDirectory) Close() error { return nil }

// SizeInBytes reports the approximate number of bytes tracked via Track.
func (d *RAMDirectory) SizeInBytes() (int64, error) {
	return atomic.LoadInt64(&d.written), nil
}

func (d *RAMDirectory) IsRAM() bool { return true }

func (d *RAMDirectory) Path() string { return "" }

// Track records n additional bytes written to this directory's index,
// advancing the estimate SizeInBytes reports.
func (d *RAMDirectory) Track(n int64) {
	atomic.AddInt64(&d.written, n)
}

// FSDirectory backs a persistent index rooted at a filesystem path. Open
// acquires an advisory lock on the directory for the process's lifetime,
// so a second process cannot open the same path concurrently; Close
// releases it.
type FSDirectory struct {
	path string
	lock *flock.Flock
}

// NewFS returns a filesystem-resident Directory rooted at path. path is
// created by Open if it does not already exist.
func NewFS(path string) *FSDirectory {
	return &FSDirectory{path: path}
}

func (d *FSDirectory) Open(im *mapping.IndexMappingImpl) (bleve.Index, error) {
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return nil, errs.Wrap(errs.ErrCodeDirectoryOpenFailed, fmt.Errorf("creating directory %s: %w", d.path, err))
	}

	lock := flock.New(filepath.Join(d.path, ".lock"))
	// A promotion racing this process's own prior close, or a sibling
	// process mid-shutdown, can hold the lock for a moment — retry briefly
	// rather than failing on the first contended attempt.
	_, err := errs.RetryWithResult(context.Background(), lockRetryConfig, func() (bool, error) {
		locked, err := lock.TryLock()
		if err != nil {
			return false, err
		}
		if !locked {
			return false, fmt.Errorf("directory %s is locked by another process", d.path)
		}
		return true, nil
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeDirectoryOpenFailed, fmt.Errorf("locking directory %s: %w", d.path, err))
	}
	d.lock = lock

	idx, err := bleve.Open(d.path)
	switch {
	case err == bleve.ErrorIndexPathDoesNotExist || err == bleve.ErrorIndexMetaMissing:
		// The MkdirAll above means a fresh path exists but holds no index
		// metadata yet.
		idx, err = bleve.New(d.path, im)
	case err != nil:
		_ = lock.Unlock()
		return nil, errs.Wrap(errs.ErrCodeDirectoryOpenFailed, fmt.Errorf("opening directory %s: %w", d.path, err))
	}
	if err != nil {
		_ = lock.Unlock()
		return nil, errs.Wrap(errs.ErrCodeDirectoryOpenFailed, fmt.Errorf("creating directory %s: %w", d.path, err))
	}
	return idx, nil
}

func (d *FSDirectory) Close() error {
	if d.lock == nil {
		return nil
	}
	if err := d.lock.Unlock(); err != nil {
		return errs.Wrap(errs.ErrCodeDirectoryCloseFailed, err)
	}
	return nil
}

func (d *FSDirectory) SizeInBytes() (int64, error) {
	var total int64
	err := filepath.Walk(d.path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, errs.Wrap(errs.ErrCodeDirectoryOpenFailed, fmt.Errorf("measuring directory %s: %w", d.path, err))
	}
	return total, nil
}

func (d *FSDirectory) IsRAM() bool { return false }

func (d *FSDirectory) Path() string { return d.path }
