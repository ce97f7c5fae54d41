// Package engine is the host-process wiring the CLI drives: one
// Analyzer Factory and one Storage Actions database shared by every
// named index the process opens, each index's Definition persisted
// alongside its data so a later process can reopen it unchanged.
//
// Grounded on the teacher's BM25Factory (internal/store/bm25_factory.go):
// a single factory owning the shared, expensive-to-build pieces, handing
// out one per-name index instance, and disposing every one of them on
// shutdown.
package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/docidx/docidx/internal/analyzer"
	"github.com/docidx/docidx/internal/analyzergen"
	"github.com/docidx/docidx/internal/config"
	"github.com/docidx/docidx/internal/directory"
	"github.com/docidx/docidx/internal/indexcore"
	"github.com/docidx/docidx/internal/storageactions"
)

// Engine owns every open Index under one host Config.
type Engine struct {
	cfg     config.Config
	factory *analyzer.Factory
	actions *storageactions.Actions

	// generators apply to every index this Engine opens; register with
	// AddGenerator before the first Create/Get of an index that should
	// use them, since a Definition's Analyzer Generator list is fixed at
	// open time.
	generators []analyzergen.Generator

	mu      sync.Mutex
	indexes map[string]*indexcore.Index
	schemas map[string]Schema
}

// AddGenerator registers an Analyzer Generator consulted by every index
// opened after this call.
func (e *Engine) AddGenerator(g analyzergen.Generator) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generators = append(e.generators, g)
}

// Open builds an Engine rooted at cfg.DataDir, opening (or creating) the
// shared statistics database there.
func Open(cfg config.Config) (*Engine, error) {
	factory, err := analyzer.NewFactory(128)
	if err != nil {
		return nil, fmt.Errorf("building analyzer factory: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	actions, err := storageactions.Open(filepath.Join(cfg.DataDir, "stats.db"))
	if err != nil {
		return nil, fmt.Errorf("opening statistics database: %w", err)
	}

	return &Engine{
		cfg:     cfg,
		factory: factory,
		actions: actions,
		indexes: make(map[string]*indexcore.Index),
		schemas: make(map[string]Schema),
	}, nil
}

// Actions returns the shared Storage Actions database.
func (e *Engine) Actions() *storageactions.Actions { return e.actions }

func (e *Engine) indexDir(name string) string {
	return filepath.Join(e.cfg.DataDir, "indexes", name)
}

// Create persists schema under name's data directory and opens the
// resulting Index. It fails if an index with this name already exists.
func (e *Engine) Create(schema Schema) (*indexcore.Index, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	dir := e.indexDir(schema.Name)
	if _, err := os.Stat(schemaPath(dir)); err == nil {
		return nil, fmt.Errorf("index %q already exists", schema.Name)
	}

	if err := writeSchema(dir, schema); err != nil {
		return nil, err
	}

	return e.openLocked(schema)
}

// Get returns the already-open Index for name, opening it from its
// persisted schema if this is the first access this process has made.
func (e *Engine) Get(name string) (*indexcore.Index, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if idx, ok := e.indexes[name]; ok {
		return idx, nil
	}

	schema, err := readSchema(e.indexDir(name))
	if err != nil {
		return nil, err
	}
	return e.openLocked(schema)
}

// openLocked constructs the Index for schema and registers it. Callers
// must hold e.mu.
func (e *Engine) openLocked(schema Schema) (*indexcore.Index, error) {
	dir := e.indexDir(schema.Name)

	var backing directory.Directory
	if schema.IsTemp || e.cfg.Indexing.RunInMemory {
		backing = directory.NewRAM()
	} else {
		backing = directory.NewFS(dir)
	}

	idx := indexcore.New(schema.Name, indexcore.Config{
		Definition:      schema.Definition(),
		Directory:       backing,
		AnalyzerFactory: e.factory,
		DefaultAnalyzer: schema.DefaultAnalyzer,
		PromotionDir:    filepath.Join(e.cfg.DataDir, "indexes"),
		Generators:      e.generators,
	})

	e.indexes[schema.Name] = idx
	e.schemas[schema.Name] = schema
	return idx, nil
}

// Schema returns the persisted Schema for name, if this process has
// opened or created it.
func (e *Engine) Schema(name string) (Schema, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.schemas[name]
	return s, ok
}

// Names lists every index this process has opened or created.
func (e *Engine) Names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	names := make([]string, 0, len(e.indexes))
	for name := range e.indexes {
		names = append(names, name)
	}
	return names
}

// Close disposes every open Index and the shared statistics database,
// collecting rather than short-circuiting on the first failure so every
// resource still gets a teardown attempt.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var firstErr error
	for name, idx := range e.indexes {
		if err := idx.Dispose(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("disposing index %q: %w", name, err)
		}
	}
	if err := e.actions.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing statistics database: %w", err)
	}
	return firstErr
}
