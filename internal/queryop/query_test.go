package queryop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blevesearch/bleve/v2"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/docidx/docidx/internal/analyzer"
	"github.com/docidx/docidx/internal/directory"
	"github.com/docidx/docidx/internal/document"
	"github.com/docidx/docidx/internal/indexdef"
	"github.com/docidx/docidx/internal/searchholder"
)

// buildTestIndex indexes docs into a fresh RAM-backed bleve index and
// publishes it through a Searcher Holder, returning the Definition and
// holder an Execute call needs.
func buildTestIndex(t *testing.T, docs []*document.Document) (*indexdef.Definition, *searchholder.Holder) {
	t.Helper()

	def := indexdef.New("widgets")
	def.DeclareField("title", "", document.IndexingModeAnalyzed)
	def.DeclareField("category", "", document.IndexingModeNotAnalyzed)

	factory, err := analyzer.NewFactory(16)
	require.NoError(t, err)
	built, err := factory.Build(def, analyzer.ClassStandard)
	require.NoError(t, err)
	defer built.Release()

	ramDir := directory.NewRAM()
	idx, err := ramDir.Open(built.Mapping)
	require.NoError(t, err)

	for _, d := range docs {
		fields := map[string]any{}
		for _, f := range d.Fields {
			if f.Kind == document.ValueKindText {
				fields[f.Name] = f.Text
			}
		}
		require.NoError(t, idx.Index(d.Key, fields))
	}

	holder := searchholder.New()
	holder.SetSnapshot(idx)
	return def, holder
}

func newDoc(key, title, category string) *document.Document {
	d := document.New(key)
	d.AddField(document.NewTextField("title", title))
	d.AddField(document.NewKeywordField("category", category))
	return d
}

func TestExecute_EmptyQueryMatchesEverything(t *testing.T) {
	def, holder := buildTestIndex(t, []*document.Document{
		newDoc("w/1", "red gizmo", "tools"),
		newDoc("w/2", "blue widget", "tools"),
	})

	result, err := Execute(Request{
		IndexName:  "widgets",
		Definition: def,
		Searcher:   holder.GetSearcher,
		Query:      Query{PageSize: 10},
		Fields:     FieldsToFetch{"title", "category"},
	})
	require.NoError(t, err)
	assert.Len(t, result.Documents, 2)
}

func TestExecute_RejectsUndeclaredField(t *testing.T) {
	def, holder := buildTestIndex(t, []*document.Document{newDoc("w/1", "red gizmo", "tools")})

	_, err := Execute(Request{
		IndexName:  "widgets",
		Definition: def,
		Searcher:   holder.GetSearcher,
		Query:      Query{Text: "nonexistent:value", PageSize: 10},
		Fields:     FieldsToFetch{"title"},
	})
	require.Error(t, err)
}

func TestValidateFields_DistanceFieldAllowedInSortNotInQueryText(t *testing.T) {
	def := indexdef.New("widgets")
	def.DeclareField("title", "", document.IndexingModeAnalyzed)

	err := validateFields(def, Query{Text: document.DistanceFieldName + ":1"})
	assert.Error(t, err)

	err = validateFields(def, Query{SortFields: []string{document.DistanceFieldName}})
	assert.NoError(t, err)
}

func TestExecute_FieldScopedQueryMatchesSubset(t *testing.T) {
	def, holder := buildTestIndex(t, []*document.Document{
		newDoc("w/1", "red gizmo", "tools"),
		newDoc("w/2", "blue widget", "parts"),
	})

	result, err := Execute(Request{
		IndexName:  "widgets",
		Definition: def,
		Searcher:   holder.GetSearcher,
		Query:      Query{Text: "category:tools", PageSize: 10},
		Fields:     FieldsToFetch{"title"},
	})
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)
	assert.Equal(t, "red gizmo", result.Documents[0]["title"])
}

func TestExecute_IncludeInResultsFiltersAndCountsSkipped(t *testing.T) {
	def, holder := buildTestIndex(t, []*document.Document{
		newDoc("w/1", "red gizmo", "tools"),
		newDoc("w/2", "blue widget", "parts"),
	})

	result, err := Execute(Request{
		IndexName:  "widgets",
		Definition: def,
		Searcher:   holder.GetSearcher,
		Query:      Query{PageSize: 10},
		Fields:     FieldsToFetch{"title", "category"},
		IncludeInResults: func(projected map[string]any) bool {
			return projected["category"] == "tools"
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)
	assert.Equal(t, 1, result.Skipped)
}

func TestExecute_DistinctSuppressesDuplicateProjections(t *testing.T) {
	def, holder := buildTestIndex(t, []*document.Document{
		newDoc("w/1", "gizmo", "tools"),
		newDoc("w/2", "gizmo", "tools"),
		newDoc("w/3", "widget", "parts"),
	})

	result, err := Execute(Request{
		IndexName:  "widgets",
		Definition: def,
		Searcher:   holder.GetSearcher,
		Query:      Query{PageSize: 10, Distinct: true},
		Fields:     FieldsToFetch{"title", "category"},
	})
	require.NoError(t, err)
	assert.Len(t, result.Documents, 2)
}

func TestExecute_DistinctPagingTracksDistinctOffsetNotRawOffset(t *testing.T) {
	def, holder := buildTestIndex(t, []*document.Document{
		newDoc("w/1", "gizmo", "tools"),
		newDoc("w/2", "gizmo", "tools"),
		newDoc("w/3", "widget", "parts"),
	})

	page := func(start int) []map[string]any {
		result, err := Execute(Request{
			IndexName:  "widgets",
			Definition: def,
			Searcher:   holder.GetSearcher,
			Query:      Query{PageSize: 1, Start: start, Distinct: true, SortFields: []string{"title"}},
			Fields:     FieldsToFetch{"title"},
		})
		require.NoError(t, err)
		return result.Documents
	}

	// Sorted by title: gizmo, gizmo, widget. Distinct collapses the
	// duplicate "gizmo" into a single logical result ahead of "widget".
	first := page(0)
	require.Len(t, first, 1)
	assert.Equal(t, "gizmo", first[0]["title"])

	second := page(1)
	require.Len(t, second, 1)
	assert.Equal(t, "widget", second[0]["title"])

	// A raw offset of 2 would land back on the "widget" row; the
	// distinct offset of 2 is past the end of the two distinct values.
	third := page(2)
	assert.Empty(t, third)
}

func TestExecute_PageSizeAllIgnoresPaging(t *testing.T) {
	docs := make([]*document.Document, 0, 5)
	for i := 0; i < 5; i++ {
		docs = append(docs, newDoc(
			string(rune('a'+i))+"/doc", "item", "tools"))
	}
	def, holder := buildTestIndex(t, docs)

	result, err := Execute(Request{
		IndexName:  "widgets",
		Definition: def,
		Searcher:   holder.GetSearcher,
		Query:      Query{PageSize: PageSizeAll},
		Fields:     FieldsToFetch{"title"},
	})
	require.NoError(t, err)
	assert.Len(t, result.Documents, 5)
}

type prefixTrigger struct {
	applied bool
}

func (p *prefixTrigger) ProcessQuery(indexName string, q blevequery.Query, original *Query) (blevequery.Query, error) {
	p.applied = true
	return bleve.NewMatchAllQuery(), nil
}

func TestExecute_QueryTriggerRewritesParsedQuery(t *testing.T) {
	def, holder := buildTestIndex(t, []*document.Document{
		newDoc("w/1", "red gizmo", "tools"),
		newDoc("w/2", "blue widget", "parts"),
	})

	trigger := &prefixTrigger{}
	result, err := Execute(Request{
		IndexName:  "widgets",
		Definition: def,
		Searcher:   holder.GetSearcher,
		Query:      Query{Text: "category:tools", PageSize: 10},
		Fields:     FieldsToFetch{"title"},
		Triggers:   []QueryTrigger{trigger},
	})
	require.NoError(t, err)
	assert.True(t, trigger.applied)
	assert.Len(t, result.Documents, 2)
}
