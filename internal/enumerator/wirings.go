package enumerator

// AttemptRecorder is the subset of the Storage Actions stats spec §6
// names that the enumerator's canonical wirings drive: one attempt per
// item processed, backed out again if that item's transform raised, plus
// one failure per item whose transform raised. Net effect: the attempt
// counter tracks items that succeeded, not every item processed.
type AttemptRecorder interface {
	IncrementAttempt()
	DecrementAttempt()
	IncrementFailure()
}

// ErrorSink is the subset of the Work Context spec §6 names: recording a
// per-item failure against the index it belongs to.
type ErrorSink interface {
	AddError(documentKey string, err error)
}

// IndexingCallbacks wires the enumerator to the indexing statistics and
// error sink: every item increments the attempt counter; a failing item
// backs that increment out again and increments the failure counter
// instead, so the attempt counter nets to the number of items that
// actually succeeded rather than every item processed. keyOf extracts
// the document key an item belongs to, for the error sink; it is never
// nil in practice but nil-checked regardless.
func IndexingCallbacks[S, T any](keyOf func(S) string, attempts AttemptRecorder, sink ErrorSink) Callbacks[S, T] {
	return Callbacks[S, T]{
		OnSuccess: func(item S, _ []T) {
			if attempts != nil {
				attempts.IncrementAttempt()
			}
		},
		OnError: func(item S, err error) {
			if attempts != nil {
				attempts.IncrementAttempt()
				attempts.DecrementAttempt()
				attempts.IncrementFailure()
			}
			if sink != nil {
				key := ""
				if keyOf != nil {
					key = keyOf(item)
				}
				sink.AddError(key, err)
			}
		},
	}
}

// ReduceCallbacks wires the enumerator to a reduce phase's own attempt and
// failure counters, kept distinct from indexing statistics per spec §6's
// Storage Actions. It otherwise mirrors IndexingCallbacks.
func ReduceCallbacks[S, T any](keyOf func(S) string, attempts AttemptRecorder, sink ErrorSink) Callbacks[S, T] {
	return IndexingCallbacks[S, T](keyOf, attempts, sink)
}

// SilentCallbacks wires no statistics at all: used while enumerating the
// map phase of a reduce, where a failing map input must still be skipped
// without aborting the batch, but only the final reduce step's own
// counters are meant to move.
func SilentCallbacks[S, T any]() Callbacks[S, T] {
	return Callbacks[S, T]{}
}
