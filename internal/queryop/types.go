// Package queryop implements the "Query Operation" spec §4.5 names: the
// eight-step algorithm that validates a query against an index's field
// schema, parses and rewrites it through Query Triggers, leases the
// current Searcher Holder snapshot, pages through hits honoring
// distinctness across page boundaries, and projects each surviving hit's
// stored fields per the CreateProperty rules.
package queryop

import (
	"github.com/docidx/docidx/internal/analyzergen"
	"github.com/docidx/docidx/internal/indexdef"
	"github.com/docidx/docidx/internal/searchholder"
)

// PageSizeAll is the sentinel Query.PageSize value requesting every hit
// the query matches, collected with a single pass rather than paged.
const PageSizeAll = -1

// Query is the cursor and shape a Query Operation call carries.
type Query struct {
	// Text is the raw query string; empty matches every document.
	Text string

	// Start is the zero-based offset of the first hit this page begins
	// at, honored across repeated calls with the same Query.
	Start int

	// PageSize is how many included results to return, or PageSizeAll.
	PageSize int

	// SortFields are field names, optionally prefixed with "-" for
	// descending, in priority order. Empty means score order.
	SortFields []string

	// Distinct, when true, suppresses a projected result that is
	// field-for-field identical to one already returned on an earlier
	// page of the same cursor walk.
	Distinct bool
}

// FieldsToFetch is the ordered set of logical field names a query
// projects from each surviving hit's stored fields.
type FieldsToFetch []string

// IncludeInResults is the caller-supplied predicate spec §4.5 names,
// evaluated against a hit's projection before the distinct filter.
type IncludeInResults func(projected map[string]any) bool

// Result is one page's outcome.
type Result struct {
	Documents []map[string]any
	TotalHits uint64
	// Skipped counts hits excluded by IncludeInResults or the distinct
	// filter while assembling this page.
	Skipped int
}

// Request bundles everything one Query Operation call needs beyond the
// Query itself.
type Request struct {
	IndexName        string
	Definition       *indexdef.Definition
	Searcher         func() (*searchholder.Lease, error)
	Query            Query
	Fields           FieldsToFetch
	IncludeInResults IncludeInResults
	Triggers         []QueryTrigger

	// DefaultAnalyzer is the class querying otherwise uses to build a
	// match query across all fields; Generators may override it per query.
	// Leaving both unset falls back to query-string parsing, which
	// resolves per-field analyzers from the index mapping directly.
	DefaultAnalyzer string
	Generators      []analyzergen.Generator
}
