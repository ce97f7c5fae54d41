// Package indexdef holds the immutable per-index schema (spec §3's
// "Definition" entity): which fields get which analyzer, which indexing
// mode each field uses, and whether the index is a temp/in-memory or
// map-reduce index. It has no dependency on the write or query path so
// both can share one Definition value without import cycles.
package indexdef

import "github.com/docidx/docidx/internal/document"

// Definition is immutable once constructed; Index Core and Query
// Operation both read it but never mutate it after the index is created.
type Definition struct {
	// Name is the index's stable identifier.
	Name string

	// IsMapReduce marks a map-reduce index rather than a plain one.
	IsMapReduce bool

	// IsTemp marks a non-persistent index eligible for RAM→disk
	// promotion once it crosses the configured byte threshold.
	IsTemp bool

	// FieldAnalyzers maps a field name to an analyzer class identifier.
	// Identifiers that the Analyzer Factory cannot resolve are skipped
	// silently, per spec §4.2.
	FieldAnalyzers map[string]string

	// FieldIndexingModes maps a field name to its indexing mode.
	FieldIndexingModes map[string]document.IndexingMode

	// DeclaredFields is the full set of field names the schema declares,
	// independent of indexing mode — Query Operation validates against
	// this set (spec §4.5 step 1).
	DeclaredFields map[string]struct{}
}

// New builds an empty Definition for the given index name.
func New(name string) *Definition {
	return &Definition{
		Name:               name,
		FieldAnalyzers:     map[string]string{},
		FieldIndexingModes: map[string]document.IndexingMode{},
		DeclaredFields:     map[string]struct{}{},
	}
}

// DeclareField registers a field in the schema with the given analyzer
// class identifier (empty string for none) and indexing mode.
func (d *Definition) DeclareField(name string, analyzerClass string, mode document.IndexingMode) {
	d.DeclaredFields[name] = struct{}{}
	if analyzerClass != "" {
		d.FieldAnalyzers[name] = analyzerClass
	}
	d.FieldIndexingModes[name] = mode
}

// HasField reports whether name is declared directly, or is a `_Range`
// sidecar of a declared field — the cases spec §4.5 step 1 allows in a
// query's text. The well-known distance field is deliberately excluded
// here: it only makes sense as a sort key, never as a field a query
// body can reference, so callers validating sort descriptors use
// HasSortableField instead.
func (d *Definition) HasField(name string) bool {
	if _, ok := d.DeclaredFields[name]; ok {
		return true
	}
	if stripped, ok := document.StripSuffix(name, document.SuffixRange); ok {
		if _, ok := d.DeclaredFields[stripped]; ok {
			return true
		}
	}
	return false
}

// HasSortableField reports whether name may appear in a sort
// descriptor: everything HasField allows, plus the well-known distance
// field (for sort only, per spec §4.5 step 1).
func (d *Definition) HasSortableField(name string) bool {
	return d.HasField(name) || name == document.DistanceFieldName
}
