// Package indexcore implements the "Index Core" spec §4.1 names: the
// writable index handle, its Directory, the extension registry, the
// write lock, and dispose state, driving the write path and the
// RAM-to-disk promotion of a temp index.
//
// Grounded on the teacher's BleveBM25Index (internal/store/bm25.go): a
// single mutex-guarded bleve.Index handle, opened once and reused across
// calls, with the same open-or-create fallback this package's Directory
// now owns. The underlying index library collapses the spec's separate
// "writer" and "reader/snapshot" handles into one object that is safe
// for concurrent reads while a write is in flight, so this Index treats
// that one handle as both: ordinary writes publish nothing new to the
// Searcher Holder (there is nothing to republish), and the one place a
// second, genuinely distinct handle appears is RAM→disk promotion, which
// is exactly where Searcher Holder's refcounted hand-off matters: a
// lease taken out before promotion keeps the old RAM-backed handle alive
// until it's released, while a lease taken out after sees the
// filesystem-backed one.
package indexcore

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blevesearch/bleve/v2"

	"github.com/docidx/docidx/internal/analyzer"
	"github.com/docidx/docidx/internal/analyzergen"
	"github.com/docidx/docidx/internal/directory"
	"github.com/docidx/docidx/internal/document"
	"github.com/docidx/docidx/internal/enumerator"
	"github.com/docidx/docidx/internal/errs"
	"github.com/docidx/docidx/internal/extension"
	"github.com/docidx/docidx/internal/indexdef"
	"github.com/docidx/docidx/internal/searchholder"
	"github.com/docidx/docidx/internal/storageactions"
	"github.com/docidx/docidx/internal/workctx"
)

// WriteAction is the caller-supplied step of the write protocol: given a
// Writer bound to this call, append or delete records and report whether
// the Searcher Holder should be refreshed afterward.
type WriteAction func(w Writer) (shouldRecreateSearcher bool, err error)

// SourceTransform is the transformation index_documents applies to a
// source record — ordinarily a View Generator's IndexingFunction.
type SourceTransform func(src *document.Document) ([]*document.Document, error)

// ReduceTransform is the transformation reduce_documents applies to one
// group of map-phase records sharing a reduce key — ordinarily a View
// Generator's ReduceFunction.
type ReduceTransform func(records []*document.Document) ([]*document.Document, error)

// Index is the engine's unit of ownership: one Directory, one Definition,
// one writable handle, one Searcher Holder, one extension registry. The
// zero value is not usable; construct with New.
type Index struct {
	name            string
	def             *indexdef.Definition
	defaultAnalyzer string
	promotionDir    string

	factory    *analyzer.Factory
	searcher   *searchholder.Holder
	extensions *extension.Registry
	generators []analyzergen.Generator

	writeMu sync.Mutex
	dir     directory.Directory
	handle  bleve.Index
	// published is the handle last handed to the Searcher Holder, used to
	// tell whether a refresh actually needs to publish a new snapshot.
	published bleve.Index
	// ramRecords replays a RAM-resident temp index's history into its
	// filesystem replacement at promotion time.
	ramRecords []*document.Document
	// thresholdOverride is the current Work Context's
	// TempIndexInMemoryMaxBytes, refreshed on every IndexDocuments call.
	thresholdOverride int64
	// analyzerOverride is the default analyzer class the registered
	// Analyzer Generators resolved for the in-flight IndexDocuments call,
	// if any; empty means Write uses the Index's configured default.
	analyzerOverride string

	disposed atomic.Bool
}

// Config bundles the pieces a new Index needs beyond its name.
type Config struct {
	Definition      *indexdef.Definition
	Directory       directory.Directory
	AnalyzerFactory *analyzer.Factory
	DefaultAnalyzer string
	// PromotionDir roots the filesystem directory a RAM-resident temp
	// index is promoted into, as "<PromotionDir>/<name>".
	PromotionDir string
	// Generators are consulted, in order, to override the default
	// analyzer class for a batch before it is built.
	Generators []analyzergen.Generator
}

// New constructs an Index that owns no writer yet; the first write opens
// one against cfg.Directory.
func New(name string, cfg Config) *Index {
	return &Index{
		name:            name,
		def:             cfg.Definition,
		dir:             cfg.Directory,
		factory:         cfg.AnalyzerFactory,
		defaultAnalyzer: cfg.DefaultAnalyzer,
		promotionDir:    cfg.PromotionDir,
		generators:      cfg.Generators,
		searcher:        searchholder.New(),
		extensions:      extension.New(),
	}
}

// Name returns the Index's stable identifier.
func (idx *Index) Name() string { return idx.name }

// Definition returns the index's static schema, letting a caller check
// IsMapReduce before driving a reduce phase against this index.
func (idx *Index) Definition() *indexdef.Definition { return idx.def }

// SetExtension registers ext under key if no extension is registered
// under it yet, reporting whether the registration happened.
func (idx *Index) SetExtension(key string, ext extension.Extension) bool {
	return idx.extensions.TryAdd(key, ext)
}

// GetExtension returns the extension registered under key, if any.
func (idx *Index) GetExtension(key string) (extension.Extension, bool) {
	return idx.extensions.TryGet(key)
}

// GetSearcher returns a scoped lease on the current snapshot. The
// caller must call Lease.Release exactly once.
func (idx *Index) GetSearcher() (*searchholder.Lease, error) {
	return idx.searcher.GetSearcher()
}

// Write executes the write protocol: builds a per-field analyzer, opens
// the writer if none exists, invokes action, notifies extensions with
// the batch action indexed, checks RAM→disk promotion, and — if action
// asked for it — refreshes the Searcher Holder.
func (idx *Index) Write(action WriteAction, wc *workctx.Context) error {
	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	if idx.disposed.Load() {
		return errs.AlreadyDisposed(idx.name)
	}

	defaultAnalyzer := idx.defaultAnalyzer
	if idx.analyzerOverride != "" {
		defaultAnalyzer = idx.analyzerOverride
	}

	built, err := idx.factory.Build(idx.def, defaultAnalyzer)
	if err != nil {
		wrapped := errs.New(errs.ErrCodeAnalyzerConstruction, "building composite analyzer", err)
		wc.AddError(idx.name, "", wrapped.Error())
		return wrapped
	}
	defer built.Release()

	if idx.handle == nil {
		handle, err := idx.dir.Open(built.Mapping)
		if err != nil {
			return err
		}
		idx.handle = handle
	}

	bw := &batchWriter{idx: idx.handle}
	if ram, ok := idx.dir.(*directory.RAMDirectory); ok {
		bw.ramDir = ram
	}

	shouldRecreate, err := action(bw)
	if err != nil {
		wrapped := errs.New(errs.ErrCodeWriteActionFailed, "write action failed: "+err.Error(), err)
		wc.AddError(idx.name, "", wrapped.Error())
		return wrapped
	}

	if idx.def.IsTemp && idx.dir.IsRAM() {
		idx.ramRecords = append(idx.ramRecords, bw.buffer...)
	}

	if len(bw.buffer) > 0 {
		if err := idx.extensions.NotifyIndexed(document.CloneAll(bw.buffer)); err != nil {
			return err
		}
	}

	if err := idx.maybePromote(); err != nil {
		return err
	}

	if shouldRecreate {
		idx.refreshSearcher()
	}

	return nil
}

// refreshSearcher republishes the current handle if it has changed since
// the last publish. On the very first publish this is the "open a
// read-only searcher on the Directory" case spec §4.4 names; on every
// later call where the handle is unchanged it is a no-op, since the
// underlying index library's one handle already serves near-real-time
// reads without a separate reader to reopen.
func (idx *Index) refreshSearcher() {
	if idx.handle == idx.published {
		return
	}
	idx.searcher.SetSnapshot(idx.handle)
	idx.published = idx.handle
}

// maybePromote commits and promotes a RAM-resident temp index once its
// tracked size crosses the configured threshold, swapping the Index's
// Directory and handle to the new filesystem-backed ones. If the old
// handle has already been published, the Searcher Holder closes it once
// every lease against it drains; if it was never published, it is closed
// here before the swap.
func (idx *Index) maybePromote() error {
	if !idx.def.IsTemp || !idx.dir.IsRAM() {
		return nil
	}
	ramDir, ok := idx.dir.(*directory.RAMDirectory)
	if !ok {
		return nil
	}

	size, err := ramDir.SizeInBytes()
	if err != nil {
		return nil
	}
	threshold := idx.promotionThreshold()
	if threshold <= 0 || size < threshold {
		return nil
	}

	built, err := idx.factory.Build(idx.def, idx.defaultAnalyzer)
	if err != nil {
		return errs.New(errs.ErrCodeAnalyzerConstruction, "building analyzer for promotion", err)
	}
	defer built.Release()

	targetPath := idx.promotionPath()
	records := idx.ramRecords
	fsDir, newHandle, err := directory.Promote(targetPath, built.Mapping, func(dst bleve.Index) error {
		for _, rec := range records {
			if err := dst.Index(rec.Key, documentToBleveFields(rec)); err != nil {
				return fmt.Errorf("replaying record %q: %w", rec.Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return errs.Wrap(errs.ErrCodeDirectoryOpenFailed, fmt.Errorf("promoting index %q: %w", idx.name, err))
	}

	if idx.handle != idx.published {
		if err := idx.handle.Close(); err != nil {
			slog.Warn("indexcore: closing unpublished ram handle after promotion failed",
				slog.String("index", idx.name), slog.Any("error", err))
		}
	}
	idx.dir = fsDir
	idx.handle = newHandle
	idx.ramRecords = nil
	return nil
}

func (idx *Index) promotionThreshold() int64 {
	return idx.thresholdOverride
}

func (idx *Index) promotionPath() string {
	if idx.promotionDir == "" {
		return idx.name
	}
	return idx.promotionDir + "/" + idx.name
}

// SetPromotionThreshold is called once per write by the caller holding
// the current Work Context, since the threshold is a per-batch
// configuration value rather than a fixed property of the Index.
func (idx *Index) SetPromotionThreshold(bytes int64) {
	idx.thresholdOverride = bytes
}

// IndexDocuments implements the index_documents public operation: it
// streams input through transform via a Robust Enumerator wired to
// indexing statistics and the Work Context's error sink, appending every
// surviving record to the writer. Per-item failures are captured and
// counted; they never abort the batch.
//
// A map-reduce index's records are map-phase output, not the final
// committed content a plain index's counters describe, so per spec §4.3
// they move no statistics: the enumerator runs with SilentCallbacks
// instead of IndexingCallbacks. The reduce phase that later consumes
// these records (ReduceDocuments) is what moves real counters.
func (idx *Index) IndexDocuments(transform SourceTransform, input []*document.Document, wc *workctx.Context, actions *storageactions.Actions, minTimestamp time.Time) error {
	idx.SetPromotionThreshold(wc.TempIndexInMemoryMaxBytes)

	filtered := input
	if !minTimestamp.IsZero() {
		filtered = make([]*document.Document, 0, len(input))
		for _, d := range input {
			if isOlderThan(d, minTimestamp) {
				continue
			}
			filtered = append(filtered, d)
		}
	}

	idx.analyzerOverride = ""
	if len(idx.generators) > 0 && len(filtered) > 0 {
		resolved, err := analyzergen.ResolveForIndexing(idx.generators, idx.name, filtered[0], idx.defaultAnalyzer)
		if err != nil {
			wrapped := errs.New(errs.ErrCodeAnalyzerConstruction, "resolving analyzer generator", err)
			wc.AddError(idx.name, "", wrapped.Error())
			return wrapped
		}
		idx.analyzerOverride = resolved
	}

	var callbacks enumerator.Callbacks[*document.Document, *document.Document]
	if idx.def.IsMapReduce {
		callbacks = enumerator.SilentCallbacks[*document.Document, *document.Document]()
	} else {
		recorder := storageactions.IndexingRecorder{Actions: actions, IndexName: idx.name}
		sink := workCtxSink{indexName: idx.name, wc: wc}
		callbacks = enumerator.IndexingCallbacks[*document.Document, *document.Document](
			func(d *document.Document) string { return d.Key }, recorder, sink)
	}
	callbacks.BeforeAdvance = func() bool { return !wc.Cancelled() }

	return idx.Write(func(w Writer) (bool, error) {
		e := enumerator.New(filtered, func(src *document.Document) ([]*document.Document, error) {
			return transform(src)
		}, wc.MaxItemsPerBatch, callbacks)

		for {
			res, ok := e.Next()
			if !ok {
				break
			}
			if !res.IsOk() {
				continue
			}
			if err := w.Index(res.Value); err != nil {
				return false, err
			}
		}
		return true, nil
	}, wc)
}

// ReduceDocuments implements the reduce phase of a map-reduce index:
// groups is a sequence of map-phase record groups an external
// map/reduce planner has already partitioned by reduce key — that
// planner sits outside this collaborator's scope, which starts once a
// grouped stream of records is in hand. Each group runs through reduce,
// and whatever records it returns are written to the index; reduce
// attempts and failures are recorded through actions' reduce counters,
// kept distinct from the indexing counters IndexDocuments drives.
func (idx *Index) ReduceDocuments(reduce ReduceTransform, groups [][]*document.Document, wc *workctx.Context, actions *storageactions.Actions) error {
	idx.SetPromotionThreshold(wc.TempIndexInMemoryMaxBytes)

	recorder := storageactions.ReduceRecorder{Actions: actions, IndexName: idx.name}
	sink := workCtxSink{indexName: idx.name, wc: wc}
	callbacks := enumerator.ReduceCallbacks[[]*document.Document, *document.Document](
		func(group []*document.Document) string {
			if len(group) == 0 {
				return ""
			}
			return group[0].Key
		}, recorder, sink)
	callbacks.BeforeAdvance = func() bool { return !wc.Cancelled() }

	return idx.Write(func(w Writer) (bool, error) {
		e := enumerator.New(groups, func(g []*document.Document) ([]*document.Document, error) {
			return reduce(g)
		}, wc.MaxItemsPerBatch, callbacks)

		for {
			res, ok := e.Next()
			if !ok {
				break
			}
			if !res.IsOk() {
				continue
			}
			if err := w.Index(res.Value); err != nil {
				return false, err
			}
		}
		return true, nil
	}, wc)
}

// workCtxSink adapts a Work Context's three-argument AddError to the
// Robust Enumerator's ErrorSink, binding the owning Index's name ahead of
// time so per-item failures land tagged with both the index and the
// document key.
type workCtxSink struct {
	indexName string
	wc        *workctx.Context
}

func (s workCtxSink) AddError(documentKey string, err error) {
	s.wc.AddError(s.indexName, documentKey, err.Error())
}

// isOlderThan reports whether d's "updated_at" date field, if present,
// is strictly before minTimestamp — the incremental-reindex skip rule
// index_documents' min_timestamp parameter implements.
func isOlderThan(d *document.Document, minTimestamp time.Time) bool {
	for _, f := range d.FieldsNamed("updated_at") {
		if f.Kind == document.ValueKindDate {
			return f.Date.Before(minTimestamp)
		}
	}
	return false
}

// Remove implements the remove public operation: deletes every key under
// the write lock.
func (idx *Index) Remove(keys []string, wc *workctx.Context) error {
	return idx.Write(func(w Writer) (bool, error) {
		for _, key := range keys {
			if err := w.Delete(key); err != nil {
				return false, err
			}
		}
		return true, nil
	}, wc)
}

// Flush commits the writer. The underlying index library makes every
// write durable as soon as Index/Delete returns, so there is no separate
// commit step to perform; Flush exists to satisfy callers written
// against a library that does buffer writes, and is a safe no-op here.
func (idx *Index) Flush() error {
	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()
	if idx.disposed.Load() || idx.handle == nil {
		return nil
	}
	return nil
}

// Dispose idempotently tears down the Index: extensions, then the
// Searcher Holder's hold on the published handle, then the writer handle
// itself (if it was never published), then the Directory. Each step is
// logged and swallowed on failure so a later step still runs.
func (idx *Index) Dispose() error {
	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	if !idx.disposed.CompareAndSwap(false, true) {
		return nil
	}

	idx.extensions.DisposeAll()

	if err := idx.searcher.Dispose(); err != nil {
		slog.Warn("indexcore: releasing searcher snapshot failed during dispose",
			slog.String("index", idx.name), slog.Any("error", err))
	}

	if idx.handle != nil && idx.handle != idx.published {
		if err := idx.handle.Close(); err != nil {
			slog.Warn("indexcore: closing writer failed during dispose",
				slog.String("index", idx.name), slog.Any("error", err))
		}
	}

	if idx.dir != nil {
		if err := idx.dir.Close(); err != nil {
			slog.Warn("indexcore: closing directory failed during dispose",
				slog.String("index", idx.name), slog.Any("error", err))
		}
	}

	return nil
}

// Disposed reports whether Dispose has completed.
func (idx *Index) Disposed() bool {
	return idx.disposed.Load()
}
