package queryop

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/docidx/docidx/internal/analyzergen"
	"github.com/docidx/docidx/internal/errs"
	"github.com/docidx/docidx/internal/indexdef"
)

// fieldRefPattern recognizes a `field:` prefix in query-string syntax —
// the shape a validated query references a schema field by.
var fieldRefPattern = regexp.MustCompile(`(?:^|[\s(+\-])([A-Za-z_][A-Za-z0-9_]*):`)

// Execute runs the eight-step Query Operation algorithm against req.
func Execute(req Request) (*Result, error) {
	if err := validateFields(req.Definition, req.Query); err != nil {
		return nil, err
	}

	analyzerClass := req.DefaultAnalyzer
	if len(req.Generators) > 0 {
		resolved, err := analyzergen.ResolveForQuerying(req.Generators, req.IndexName, req.Query.Text, analyzerClass)
		if err != nil {
			return nil, fmt.Errorf("resolving query analyzer: %w", err)
		}
		analyzerClass = resolved
	}

	q := buildQuery(req.Query.Text, analyzerClass)
	for _, trigger := range req.Triggers {
		rewritten, err := trigger.ProcessQuery(req.IndexName, q, &req.Query)
		if err != nil {
			return nil, err
		}
		if rewritten != nil {
			q = rewritten
		}
	}

	lease, err := req.Searcher()
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	idx, ok := lease.Searcher().(bleve.Index)
	if !ok {
		return nil, fmt.Errorf("queryop: current snapshot is not a search index")
	}

	originalPageSize := req.Query.PageSize
	wantsAll := originalPageSize == PageSizeAll
	start := req.Query.Start
	pageSize := originalPageSize

	seen := make(map[string]struct{})
	out := make([]map[string]any, 0)
	totalSkipped := 0
	var totalHits uint64

	// rawStart is the raw hit index the per-page loop below actually
	// walks from. For a non-distinct query it is just start. For a
	// distinct query, duplicates ahead of Start can shift the raw and
	// distinct offsets apart, so it is resolved by replaying hits from
	// the beginning until Start distinct results have been registered.
	rawStart := start
	distinctOffsetFound := !(req.Query.Distinct && start > 0)
	distinctCount := 0
	replayPos := 0

	for {
		fetchSize := pageSize
		if wantsAll {
			count, err := idx.DocCount()
			if err != nil {
				return nil, fmt.Errorf("counting documents for unbounded page: %w", err)
			}
			fetchSize = int(count)
		} else {
			fetchSize = start + pageSize
		}

		sr := bleve.NewSearchRequestOptions(q, fetchSize, 0, false)
		sr.Fields = fetchFieldNames(req.Fields)
		if len(req.Query.SortFields) > 0 {
			sr.SortBy(req.Query.SortFields)
		}

		result, err := idx.Search(sr)
		if err != nil {
			return nil, fmt.Errorf("executing query: %w", err)
		}
		totalHits = result.Total

		// Distinct bookkeeping (step 6): accumulate projections from
		// the beginning of the result set until Start distinct results
		// have been registered, rather than marking the raw [0,Start)
		// hits as seen — a duplicate ahead of Start would otherwise let
		// a later page re-emit a value an earlier page already returned.
		if !distinctOffsetFound {
			for replayPos < len(result.Hits) && distinctCount < req.Query.Start {
				projected := Project(req.Fields, result.Hits[replayPos].Fields)
				if req.IncludeInResults == nil || req.IncludeInResults(projected) {
					key := distinctKey(projected)
					if _, dup := seen[key]; !dup {
						seen[key] = struct{}{}
						distinctCount++
					}
				}
				replayPos++
			}
			switch {
			case distinctCount >= req.Query.Start:
				distinctOffsetFound = true
				rawStart = replayPos
				start = rawStart
			case uint64(len(result.Hits)) >= totalHits:
				// Every hit has been replayed and there still aren't
				// Start distinct predecessors: the requested page
				// starts past the end of the distinct result set.
				distinctOffsetFound = true
				rawStart = len(result.Hits)
				start = rawStart
			default:
				// Not enough hits fetched yet to find the Nth distinct
				// predecessor; widen the fetch and retry.
				pageSize += (req.Query.Start - distinctCount) + originalPageSize
				continue
			}
		}

		end := len(result.Hits)
		if !wantsAll && rawStart+pageSize < end {
			end = rawStart + pageSize
		}

		roundSkipped := 0
		for i := rawStart; i < end; i++ {
			projected := Project(req.Fields, result.Hits[i].Fields)

			if req.IncludeInResults != nil && !req.IncludeInResults(projected) {
				roundSkipped++
				continue
			}
			if req.Query.Distinct {
				key := distinctKey(projected)
				if _, dup := seen[key]; dup {
					roundSkipped++
					continue
				}
				seen[key] = struct{}{}
			}

			out = append(out, projected)
			if !wantsAll && len(out) == originalPageSize {
				break
			}
		}
		totalSkipped += roundSkipped

		if wantsAll {
			break
		}
		if len(out) >= originalPageSize {
			break
		}
		if roundSkipped == 0 {
			// Nothing left to skip means the index itself ran out of
			// hits within this window; a wider page cannot help.
			break
		}

		// Step 8: re-enter with a page scaled by the observed skip rate.
		start += pageSize
		rawStart = start
		pageSize = roundSkipped * originalPageSize
	}

	return &Result{Documents: out, TotalHits: totalHits, Skipped: totalSkipped}, nil
}

// buildQuery parses Text per step 2: empty text matches everything.
// With no analyzer override, the underlying index library's query-string
// syntax is used, which resolves per-field analyzers from the index
// mapping the Analyzer Factory already built. An analyzerClass resolved
// by an Analyzer Generator instead builds a plain match query pinned to
// that analyzer, matching across every field the query-string form would
// otherwise split per field.
func buildQuery(text, analyzerClass string) query.Query {
	if strings.TrimSpace(text) == "" {
		return bleve.NewMatchAllQuery()
	}
	if analyzerClass != "" {
		mq := bleve.NewMatchQuery(text)
		mq.Analyzer = analyzerClass
		return mq
	}
	return bleve.NewQueryStringQuery(text)
}

// validateFields implements step 1: every field the query text
// references must be declared or a `_Range` sidecar of a declared
// field. A sort descriptor allows the same, plus the well-known
// distance field — sorting by distance is meaningful, but a query body
// referencing it by name is not, so that allowance doesn't extend to
// referencedFields.
func validateFields(def *indexdef.Definition, q Query) error {
	for _, name := range referencedFields(q.Text) {
		if !def.HasField(name) {
			return errs.InvalidArgument(fmt.Sprintf("query references undeclared field %q", name))
		}
	}
	for _, raw := range q.SortFields {
		name := strings.TrimPrefix(raw, "-")
		if !def.HasSortableField(name) {
			return errs.InvalidArgument(fmt.Sprintf("sort references undeclared field %q", name))
		}
	}
	return nil
}

// referencedFields extracts every `field:` prefix the query-string
// syntax recognizes as a field reference.
func referencedFields(text string) []string {
	matches := fieldRefPattern.FindAllStringSubmatch(text, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// distinctKey canonicalizes a projection for the distinct filter: JSON
// encoding a `map[string]any` sorts its keys, so two projections with
// the same fields and values always encode identically.
func distinctKey(projected map[string]any) string {
	b, err := json.Marshal(projected)
	if err != nil {
		return fmt.Sprintf("%v", projected)
	}
	return string(b)
}
