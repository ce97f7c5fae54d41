// Package storageactions implements the "Storage Actions" statistics
// interface spec §6 names: per-index indexing and reduce attempt/failure
// counters, persisted so they survive process restarts.
//
// Grounded on the teacher's modernc.org/sqlite (pure-Go, no cgo) use in
// internal/store/sqlite_bm25.go: a single small table, opened once,
// touched through plain database/sql rather than an ORM.
package storageactions

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// Counters is a point-in-time snapshot of one index's statistics.
type Counters struct {
	IndexingAttempts int64
	IndexingFailures int64
	ReduceAttempts   int64
	ReduceFailures   int64
}

// Actions persists indexing and reduce statistics per index name. Safe
// for concurrent use.
type Actions struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (creating if needed) the statistics database at path. An
// empty path opens an in-memory database, useful for tests or a
// RunInMemory work context.
func Open(path string) (*Actions, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating directory for statistics database: %w", err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening statistics database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS index_counters (
			index_name        TEXT PRIMARY KEY,
			indexing_attempts INTEGER NOT NULL DEFAULT 0,
			indexing_failures INTEGER NOT NULL DEFAULT 0,
			reduce_attempts   INTEGER NOT NULL DEFAULT 0,
			reduce_failures   INTEGER NOT NULL DEFAULT 0
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating index_counters table: %w", err)
	}

	return &Actions{db: db}, nil
}

// Close closes the underlying database handle.
func (a *Actions) Close() error {
	return a.db.Close()
}

func (a *Actions) ensureRow(indexName string) error {
	_, err := a.db.Exec(`INSERT OR IGNORE INTO index_counters (index_name) VALUES (?)`, indexName)
	return err
}

func (a *Actions) bump(indexName, column string, delta int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.ensureRow(indexName); err != nil {
		return fmt.Errorf("ensuring counters row for %q: %w", indexName, err)
	}
	query := fmt.Sprintf(`UPDATE index_counters SET %s = %s + ? WHERE index_name = ?`, column, column)
	if _, err := a.db.Exec(query, delta, indexName); err != nil {
		return fmt.Errorf("updating %s for %q: %w", column, indexName, err)
	}
	return nil
}

func (a *Actions) IncrementIndexingAttempt(indexName string) error {
	return a.bump(indexName, "indexing_attempts", 1)
}

func (a *Actions) DecrementIndexingAttempt(indexName string) error {
	return a.bump(indexName, "indexing_attempts", -1)
}

func (a *Actions) IncrementIndexingFailure(indexName string) error {
	return a.bump(indexName, "indexing_failures", 1)
}

func (a *Actions) IncrementReduceAttempt(indexName string) error {
	return a.bump(indexName, "reduce_attempts", 1)
}

func (a *Actions) DecrementReduceAttempt(indexName string) error {
	return a.bump(indexName, "reduce_attempts", -1)
}

func (a *Actions) IncrementReduceFailure(indexName string) error {
	return a.bump(indexName, "reduce_failures", 1)
}

// Snapshot returns the current counters for indexName, all zero if no
// activity has been recorded against it yet.
func (a *Actions) Snapshot(indexName string) (Counters, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var c Counters
	row := a.db.QueryRow(`
		SELECT indexing_attempts, indexing_failures, reduce_attempts, reduce_failures
		FROM index_counters WHERE index_name = ?`, indexName)
	err := row.Scan(&c.IndexingAttempts, &c.IndexingFailures, &c.ReduceAttempts, &c.ReduceFailures)
	if err == sql.ErrNoRows {
		return Counters{}, nil
	}
	if err != nil {
		return Counters{}, fmt.Errorf("reading counters for %q: %w", indexName, err)
	}
	return c, nil
}
