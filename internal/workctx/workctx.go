// Package workctx implements the "Work Context" spec §6 names: the
// per-batch configuration a write carries (batch size cap, RAM promotion
// threshold, whether the index runs entirely in memory), an error sink
// collecting per-document failures, and a cooperative cancellation
// signal the Robust Enumerator polls between items.
//
// Grounded on the teacher's context.Context-based cancellation idiom,
// generalized here into a standalone signal so a write can be cancelled
// independently of any one goroutine's ctx.Context lifetime while still
// composing with context.Context via WithContext.
package workctx

import (
	"context"
	"sync"

	"github.com/docidx/docidx/internal/config"
)

// ErrorRecord is one failure the error sink collected: the document key
// it occurred against (empty if the failure was not per-document), and
// the message describing it.
type ErrorRecord struct {
	IndexName   string
	DocumentKey string
	Message     string
}

// Context carries the batch-scoped configuration, error sink, and
// cancellation signal a write threads through the Robust Enumerator and
// Index Core. Safe for concurrent use: AddError and Cancel may be called
// from any goroutine.
type Context struct {
	MaxItemsPerBatch          int
	TempIndexInMemoryMaxBytes int64
	RunInMemory               bool

	mu     sync.Mutex
	errors []ErrorRecord

	ctx    context.Context
	cancel context.CancelFunc
}

// New builds a Context from an IndexingConfig, inheriting its batch size
// cap, promotion threshold, and in-memory flag.
func New(cfg config.IndexingConfig) *Context {
	ctx, cancel := context.WithCancel(context.Background())
	return &Context{
		MaxItemsPerBatch:          cfg.MaxNumberOfItemsToIndexInSingleBatch,
		TempIndexInMemoryMaxBytes: cfg.TempIndexInMemoryMaxBytes,
		RunInMemory:               cfg.RunInMemory,
		ctx:                       ctx,
		cancel:                    cancel,
	}
}

// WithContext builds a Context whose cancellation signal is tied to
// parent: cancelling parent cancels this Context too.
func WithContext(parent context.Context, cfg config.IndexingConfig) *Context {
	ctx, cancel := context.WithCancel(parent)
	return &Context{
		MaxItemsPerBatch:          cfg.MaxNumberOfItemsToIndexInSingleBatch,
		TempIndexInMemoryMaxBytes: cfg.TempIndexInMemoryMaxBytes,
		RunInMemory:               cfg.RunInMemory,
		ctx:                       ctx,
		cancel:                    cancel,
	}
}

// AddError records one failure against indexName. documentKey is empty
// for a failure that is not attributable to one document (e.g. a write
// action failure).
func (c *Context) AddError(indexName, documentKey, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, ErrorRecord{IndexName: indexName, DocumentKey: documentKey, Message: message})
}

// Errors returns a snapshot of every error recorded so far.
func (c *Context) Errors() []ErrorRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ErrorRecord, len(c.errors))
	copy(out, c.errors)
	return out
}

// Cancel signals cancellation: Cancelled starts returning true and Done's
// channel closes. Safe to call more than once.
func (c *Context) Cancel() {
	c.cancel()
}

// Cancelled reports whether Cancel has been called, or the parent
// context (if any) has been cancelled.
func (c *Context) Cancelled() bool {
	select {
	case <-c.ctx.Done():
		return true
	default:
		return false
	}
}

// Done returns a channel closed once the context is cancelled, for
// selecting alongside other cancellation sources.
func (c *Context) Done() <-chan struct{} {
	return c.ctx.Done()
}
