package storageactions

import "log/slog"

// IndexingRecorder adapts Actions to the enumerator.AttemptRecorder
// interface for one index's indexing statistics. Per spec §7's
// "error on error" policy, a failure to persist a counter update is
// logged and swallowed rather than propagated — the enumerator interface
// this satisfies has no error return to propagate through.
type IndexingRecorder struct {
	Actions   *Actions
	IndexName string
}

func (r IndexingRecorder) IncrementAttempt() {
	if err := r.Actions.IncrementIndexingAttempt(r.IndexName); err != nil {
		slog.Warn("storageactions: failed to increment indexing attempt counter",
			slog.String("index", r.IndexName), slog.Any("error", err))
	}
}

func (r IndexingRecorder) DecrementAttempt() {
	if err := r.Actions.DecrementIndexingAttempt(r.IndexName); err != nil {
		slog.Warn("storageactions: failed to decrement indexing attempt counter",
			slog.String("index", r.IndexName), slog.Any("error", err))
	}
}

func (r IndexingRecorder) IncrementFailure() {
	if err := r.Actions.IncrementIndexingFailure(r.IndexName); err != nil {
		slog.Warn("storageactions: failed to increment indexing failure counter",
			slog.String("index", r.IndexName), slog.Any("error", err))
	}
}

// ReduceRecorder adapts Actions to enumerator.AttemptRecorder for one
// index's reduce-phase statistics, kept distinct from indexing
// statistics per spec §6.
type ReduceRecorder struct {
	Actions   *Actions
	IndexName string
}

func (r ReduceRecorder) IncrementAttempt() {
	if err := r.Actions.IncrementReduceAttempt(r.IndexName); err != nil {
		slog.Warn("storageactions: failed to increment reduce attempt counter",
			slog.String("index", r.IndexName), slog.Any("error", err))
	}
}

func (r ReduceRecorder) DecrementAttempt() {
	if err := r.Actions.DecrementReduceAttempt(r.IndexName); err != nil {
		slog.Warn("storageactions: failed to decrement reduce attempt counter",
			slog.String("index", r.IndexName), slog.Any("error", err))
	}
}

func (r ReduceRecorder) IncrementFailure() {
	if err := r.Actions.IncrementReduceFailure(r.IndexName); err != nil {
		slog.Warn("storageactions: failed to increment reduce failure counter",
			slog.String("index", r.IndexName), slog.Any("error", err))
	}
}
