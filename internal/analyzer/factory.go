// Package analyzer builds the per-field composite text analyzer the write
// and query paths share (spec §4.2's "Analyzer Factory"): registering the
// default analyzer as a fallback, attaching any explicitly declared
// per-field analyzer, and falling back to a lazily-created shared keyword
// or standard analyzer based on each field's indexing mode.
//
// Grounded in the underlying index library's analyzer registry (the same
// bleve custom-analyzer registration the teacher used for its code-aware
// tokenizer), with a hashicorp/golang-lru cache standing in for the
// "lazily created, shared" instances spec §4.2 calls for.
package analyzer

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2/mapping"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/docidx/docidx/internal/document"
	"github.com/docidx/docidx/internal/indexdef"
)

// Well-known analyzer class identifiers resolvable without a custom
// registration. Any other identifier is looked up in Factory's registered
// set and, failing that, skipped silently per spec §4.2.
const (
	ClassStandard = "standard"
	ClassKeyword  = "keyword"
	ClassSimple   = "simple"
)

// Built is the outcome of building a composite analyzer: the index mapping
// ready to hand to the underlying index library, plus the release
// callbacks the caller must invoke on every exit path (spec §4.2, §5).
type Built struct {
	Mapping *mapping.IndexMappingImpl

	// Release must be called exactly once, on every exit path, after the
	// write or query that requested this analyzer completes.
	Release func()
}

// Factory builds composite per-field analyzers and tracks the shared
// keyword/standard instances it lazily creates so repeated writes against
// the same field set do not re-register them.
type Factory struct {
	mu sync.Mutex

	// known holds analyzer class identifiers the factory can resolve
	// beyond the three well-known ones: custom analyzers registered with
	// the underlying index library's registry (e.g. a code-aware
	// analyzer), keyed by the identifier used in a Definition.
	known map[string]struct{}

	// shared caches the refcount for each lazily-created shared
	// analyzer kind ("keyword", "standard"), bounded so a long-lived
	// factory backing many indexes does not grow unbounded.
	shared *lru.Cache[string, *sharedEntry]
}

type sharedEntry struct {
	mu       sync.Mutex
	refCount int
}

// NewFactory builds a Factory whose shared-analyzer cache holds up to
// cacheSize entries — generous for the handful of analyzer kinds any one
// process actually uses, but bounded so it cannot leak.
func NewFactory(cacheSize int, knownClasses ...string) (*Factory, error) {
	if cacheSize <= 0 {
		cacheSize = 16
	}
	cache, err := lru.New[string, *sharedEntry](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating analyzer cache: %w", err)
	}

	known := make(map[string]struct{}, len(knownClasses))
	for _, c := range knownClasses {
		known[c] = struct{}{}
	}

	return &Factory{known: known, shared: cache}, nil
}

// RegisterClass marks classID as resolvable by this factory: a Definition
// entry naming it will be attached to its field rather than skipped.
func (f *Factory) RegisterClass(classID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.known[classID] = struct{}{}
}

// resolves reports whether classID is a class this factory can attach.
func (f *Factory) resolves(classID string) bool {
	if classID == ClassStandard || classID == ClassKeyword || classID == ClassSimple {
		return true
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.known[classID]
	return ok
}

// Build produces a composite analyzer for def: the default analyzer is
// registered as the fallback; fields with a resolvable explicit analyzer
// entry get that analyzer; NotAnalyzed fields without one get a lazily
// shared keyword analyzer; Analyzed (or Default) fields without one get a
// lazily shared standard analyzer. Unknown class identifiers are skipped
// silently, falling through to the indexing-mode rule. A field declared
// only in FieldAnalyzers (an analyzer override with no explicit indexing
// mode) still gets its analyzer instance attached, indexed as Default.
func (f *Factory) Build(def *indexdef.Definition, defaultAnalyzer string) (*Built, error) {
	if defaultAnalyzer == "" {
		defaultAnalyzer = ClassStandard
	}

	im := mapping.NewIndexMapping()
	im.DefaultAnalyzer = defaultAnalyzer

	var releases []func()
	docMapping := mapping.NewDocumentMapping()

	for fieldName, mode := range def.FieldIndexingModes {
		analyzerName, release := f.analyzerFor(def, fieldName, mode)
		if release != nil {
			releases = append(releases, release)
		}

		fm := mapping.NewTextFieldMapping()
		fm.Analyzer = analyzerName
		fm.Store = true
		fm.Index = mode != document.IndexingModeNotAnalyzed || analyzerName != ""
		docMapping.AddFieldMappingsAt(fieldName, fm)
	}

	for fieldName := range def.FieldAnalyzers {
		if _, ok := def.FieldIndexingModes[fieldName]; ok {
			continue
		}

		analyzerName, release := f.analyzerFor(def, fieldName, document.IndexingModeDefault)
		if release != nil {
			releases = append(releases, release)
		}

		fm := mapping.NewTextFieldMapping()
		fm.Analyzer = analyzerName
		fm.Store = true
		fm.Index = true
		docMapping.AddFieldMappingsAt(fieldName, fm)
	}

	im.DefaultMapping = docMapping

	return &Built{
		Mapping: im,
		Release: func() {
			for _, r := range releases {
				r()
			}
		},
	}, nil
}

// analyzerFor picks the analyzer name for one field, acquiring a shared
// instance's refcount when the Definition does not pin an explicit,
// resolvable analyzer class.
func (f *Factory) analyzerFor(def *indexdef.Definition, fieldName string, mode document.IndexingMode) (string, func()) {
	if classID, ok := def.FieldAnalyzers[fieldName]; ok && f.resolves(classID) {
		return classID, nil
	}

	switch mode {
	case document.IndexingModeNotAnalyzed:
		return f.acquireShared(ClassKeyword)
	default:
		return f.acquireShared(ClassStandard)
	}
}

// acquireShared returns the shared analyzer name for kind and a release
// callback that decrements its refcount. The entry itself is evicted by
// the LRU cache's own bound, not by refcount reaching zero — refcounting
// here tracks in-flight use, it does not free memory directly.
func (f *Factory) acquireShared(kind string) (string, func()) {
	f.mu.Lock()
	entry, ok := f.shared.Get(kind)
	if !ok {
		entry = &sharedEntry{}
		f.shared.Add(kind, entry)
	}
	f.mu.Unlock()

	entry.mu.Lock()
	entry.refCount++
	entry.mu.Unlock()

	release := func() {
		entry.mu.Lock()
		entry.refCount--
		entry.mu.Unlock()
	}
	return kind, release
}
