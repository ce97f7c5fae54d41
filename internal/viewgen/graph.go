package viewgen

import (
	"fmt"
	"time"

	"github.com/docidx/docidx/internal/document"
	"github.com/docidx/docidx/internal/value"
)

// GraphViewFields are the fields every record a graph view produces
// carries, used to answer ContainsField without inspecting any one
// record.
var GraphViewFields = []string{"path", "value"}

// NewGraphView builds a View whose single indexing function decodes a
// source document's "json" field into a value.Graph, resolving every
// "$id"/"$ref" back-reference per spec §9, and flattens the reachable
// value tree into one index record per leaf path. Records are keyed by
// the dotted path from the document root ("customer.address.city",
// "orders.0.total"), so a query can target a specific position in the
// original shape rather than the whole record.
func NewGraphView() *StaticView {
	fields := make(map[string]struct{}, len(GraphViewFields))
	for _, f := range GraphViewFields {
		fields[f] = struct{}{}
	}
	return &StaticView{
		Fields:    fields,
		Functions: []IndexingFunction{graphFlattenFunction},
	}
}

// graphFlattenFunction adapts value.Load into an IndexingFunction: it
// loads the source document's "json" field as a Graph, walks every leaf
// value reachable from the root, and converts each into its own index
// record via leafToDocument.
func graphFlattenFunction(doc *document.Document) ([]*document.Document, error) {
	raw := fieldText(doc, "json")
	if raw == "" {
		return nil, nil
	}

	g, err := value.Load([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("loading graph for document %q: %w", doc.Key, err)
	}

	var out []*document.Document
	ordinal := 0
	visitedRefs := make(map[int]bool)
	flattenValue(g, g.Root, "", visitedRefs, func(path string, leaf *value.Value) {
		out = append(out, leafToDocument(doc.Key, ordinal, path, leaf))
		ordinal++
	})
	return out, nil
}

// flattenValue walks v depth-first, calling emit once per leaf (every
// kind but Object/Array/Ref) with its dotted path from the root. A Ref
// is followed into the arena slot its target registered; visitedRefs
// tracks which arena slots a Ref has already dereferenced so a "$ref"
// cycle stops flattening instead of recursing forever.
func flattenValue(g *value.Graph, v *value.Value, path string, visitedRefs map[int]bool, emit func(path string, leaf *value.Value)) {
	switch v.Kind() {
	case value.KindRef:
		idx, _ := v.AsRef()
		if visitedRefs[idx] {
			return
		}
		visitedRefs[idx] = true
		flattenValue(g, g.At(idx), path, visitedRefs, emit)
	case value.KindObject:
		fields, _ := v.AsObject()
		for name, fv := range fields {
			flattenValue(g, fv, joinPath(path, name), visitedRefs, emit)
		}
	case value.KindArray:
		items, _ := v.AsArray()
		for i, iv := range items {
			flattenValue(g, iv, joinPath(path, fmt.Sprintf("%d", i)), visitedRefs, emit)
		}
	default:
		emit(path, v)
	}
}

func joinPath(path, segment string) string {
	if path == "" {
		return segment
	}
	return path + "." + segment
}

// leafToDocument converts one flattened leaf into its own index record,
// keyed off the owning source document's key plus a per-record ordinal
// so re-indexing the same source document deterministically replaces
// the same set of records.
func leafToDocument(sourceKey string, ordinal int, path string, leaf *value.Value) *document.Document {
	key := fmt.Sprintf("%s/graph/%d", sourceKey, ordinal)
	d := document.New(key)
	d.AddField(document.NewKeywordField("path", path))

	switch leaf.Kind() {
	case value.KindString:
		s, _ := leaf.AsString()
		d.AddField(document.NewTextField("value", s))
	case value.KindInt:
		i, _ := leaf.AsInt()
		d.AddField(document.NewIntField("value", i))
	case value.KindLong:
		l, _ := leaf.AsLong()
		d.AddField(document.NewLongField("value", l))
	case value.KindDouble:
		v, _ := leaf.AsDouble()
		d.AddField(document.NewDoubleField("value", v))
	case value.KindBool:
		b, _ := leaf.AsBool()
		d.AddField(document.NewKeywordField("value", fmt.Sprintf("%t", b)))
	case value.KindDate:
		t, _ := leaf.AsDate()
		d.AddField(document.NewKeywordField("value", t.Format(time.RFC3339)))
	default:
		d.AddField(document.NewKeywordField("value", document.NullValueSentinel))
	}
	return d
}
