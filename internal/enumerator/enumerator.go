// Package enumerator implements the pull-based fault-tolerant iterator
// spec §4.3 calls the "Robust Enumerator": it streams a transform across an
// input sequence, flattening zero-or-more outputs per source item, and
// isolates a failing item behind a recovered panic/returned-error fault
// barrier so one bad item never aborts the batch.
//
// The source system expresses this with exceptions skipping items inline;
// per the redesign notes this is re-expressed as a pull iterator whose Next
// returns a Result[T] variant, with the caller deciding whether to count,
// report, and continue past an error rather than relying on a language
// exception to unwind past it.
package enumerator

import "fmt"

// Result is the Ok(T) | Err(E) variant Next produces for one output: a
// source item either succeeded and produced a value, or failed and
// produced an error.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok builds a successful Result.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Failed builds a failed Result.
func Failed[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// IsOk reports whether this Result carries a value rather than an error.
func (r Result[T]) IsOk() bool {
	return r.Err == nil
}

// Callbacks are the four optional hooks spec §4.3 names. Counters are the
// caller's responsibility: the enumerator itself tracks no statistics, it
// only guarantees each hook fires at the right time.
type Callbacks[S, T any] struct {
	// BeforeAdvance runs before a source item is handed to the transform.
	// Returning false stops the enumerator (e.g. on a cancellation signal)
	// without treating the stop as an item failure.
	BeforeAdvance func() bool

	// CancelAdvance runs once, in place of the transform, when
	// BeforeAdvance returns false.
	CancelAdvance func()

	// OnError runs when transforming item raised err. The stream
	// continues to the next item afterward.
	OnError func(item S, err error)

	// OnSuccess runs when transforming item completed, with the outputs
	// it produced (possibly zero).
	OnSuccess func(item S, outputs []T)
}

// Transform maps one source item to zero or more output items.
type Transform[S, T any] func(item S) ([]T, error)

// Enumerator pulls items from a fixed input slice through transform,
// flattening each call's outputs into the stream Next yields one at a
// time, preserving input order.
type Enumerator[S, T any] struct {
	items     []S
	pos       int
	transform Transform[S, T]
	callbacks Callbacks[S, T]
	maxItems  int

	produced int
	buffer   []T
	done     bool
}

// New builds an Enumerator over items. maxItems caps the number of output
// items produced across all source items; 0 means unlimited.
func New[S, T any](items []S, transform Transform[S, T], maxItems int, callbacks Callbacks[S, T]) *Enumerator[S, T] {
	return &Enumerator[S, T]{
		items:     items,
		transform: transform,
		callbacks: callbacks,
		maxItems:  maxItems,
	}
}

// Next pulls the next output item. The returned bool is false once the
// enumerator is exhausted — input drained, max items reached, or
// BeforeAdvance vetoed further progress — at which point Result is the
// zero value and must be ignored.
func (e *Enumerator[S, T]) Next() (Result[T], bool) {
	for {
		if e.done {
			return Result[T]{}, false
		}
		if e.maxItems > 0 && e.produced >= e.maxItems {
			e.done = true
			return Result[T]{}, false
		}
		if len(e.buffer) > 0 {
			v := e.buffer[0]
			e.buffer = e.buffer[1:]
			e.produced++
			return Ok(v), true
		}
		if e.pos >= len(e.items) {
			e.done = true
			return Result[T]{}, false
		}

		item := e.items[e.pos]
		e.pos++

		if e.callbacks.BeforeAdvance != nil && !e.callbacks.BeforeAdvance() {
			e.done = true
			if e.callbacks.CancelAdvance != nil {
				e.callbacks.CancelAdvance()
			}
			return Result[T]{}, false
		}

		outputs, err := e.guardedTransform(item)
		if err != nil {
			if e.callbacks.OnError != nil {
				e.callbacks.OnError(item, err)
			}
			return Failed[T](err), true
		}

		if e.callbacks.OnSuccess != nil {
			e.callbacks.OnSuccess(item, outputs)
		}
		e.buffer = outputs
	}
}

// Drain pulls every remaining item, discarding failed Results after they
// have already reached OnError, and returns the successful values in
// order. This is the usual way a writer consumes the stream: spec §4.3
// promises failures do not abort it, so a caller that only wants the
// surviving outputs uses Drain rather than inspecting every Result.
func (e *Enumerator[S, T]) Drain() []T {
	var out []T
	for {
		res, ok := e.Next()
		if !ok {
			return out
		}
		if res.IsOk() {
			out = append(out, res.Value)
		}
	}
}

// guardedTransform is the fault barrier: a panic inside transform is
// recovered and reported through the same error path a returned error
// takes, so a misbehaving transform can never unwind past this item.
func (e *Enumerator[S, T]) guardedTransform(item S) (outputs []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError{recovered: r}
		}
	}()
	return e.transform(item)
}

type panicError struct {
	recovered any
}

func (p panicError) Error() string {
	return fmt.Sprintf("enumerator: transform panicked: %v", p.recovered)
}
