// Package viewgen implements the "View Generator" collaborator spec §6
// names: a capability set (does this view touch a given field, what
// indexing functions does it expose, does it have a reduce step) plus
// the transformation a view applies to turn one source document into
// zero or more index records.
//
// The default implementation turns a tree-sitter-backed symbol-boundary
// chunker into an indexing function: instead of one index record per
// source document, a code-aware view emits one record per function,
// method, type, const, or var declaration, so a query scores against the
// matching span rather than the whole file.
package viewgen

import (
	"context"
	"fmt"

	"github.com/docidx/docidx/internal/document"
)

// IndexingFunction maps one source document to zero or more index
// records. A view may expose more than one — e.g. one per output field
// set — though the default code view exposes exactly one.
type IndexingFunction func(doc *document.Document) ([]*document.Document, error)

// ReduceFunction merges the index records multiple indexing functions (or
// multiple map-phase outputs sharing a reduce key) produced into fewer
// records. Not every view has one.
type ReduceFunction func(records []*document.Document) ([]*document.Document, error)

// View is the capability set and transformation spec §6 names.
type View interface {
	// ContainsField reports whether this view's output documents can
	// carry a field with this name, for Query Operation's field
	// validation (spec §4.5 step 1) when the query targets a
	// map-reduce index rather than the raw schema.
	ContainsField(name string) bool

	// IndexingFunctions returns the ordered list of map-phase
	// transformations this view applies.
	IndexingFunctions() []IndexingFunction

	// ReduceFunction returns the reduce-phase transformation, if this
	// view defines one.
	ReduceFunction() (ReduceFunction, bool)
}

// StaticView is a View whose field set and functions are fixed at
// construction — the shape most views take once they're no longer being
// authored interactively.
type StaticView struct {
	Fields    map[string]struct{}
	Functions []IndexingFunction
	Reduce    ReduceFunction
}

func (v *StaticView) ContainsField(name string) bool {
	_, ok := v.Fields[name]
	return ok
}

func (v *StaticView) IndexingFunctions() []IndexingFunction {
	return v.Functions
}

func (v *StaticView) ReduceFunction() (ReduceFunction, bool) {
	if v.Reduce == nil {
		return nil, false
	}
	return v.Reduce, true
}

// CodeViewFields are the fields every record a code view produces
// carries, used to answer ContainsField without inspecting any one
// record.
var CodeViewFields = []string{
	"content", "language",
	"file_path", "start_line", "end_line", "symbol_names",
}

// NewCodeView builds a View whose single indexing function splits a
// source document's "content" and "file_path" fields through the
// tree-sitter chunker: every function, method, type, const, or var the
// parser recognizes becomes its own index record, falling back to a
// single whole-file record for languages or content it cannot parse.
//
// The View holds the only reference to the underlying parser; callers
// that build a View for the lifetime of one batch rather than the whole
// process should use NewCodeTransform instead so they can release it.
func NewCodeView() *StaticView {
	fn, _ := NewCodeTransform()
	fields := make(map[string]struct{}, len(CodeViewFields))
	for _, f := range CodeViewFields {
		fields[f] = struct{}{}
	}
	return &StaticView{
		Fields:    fields,
		Functions: []IndexingFunction{fn},
	}
}

// NewCodeTransform builds the same symbol-boundary chunking transform
// NewCodeView wires in, plus a close func that releases the underlying
// tree-sitter parser. Intended for callers — such as a CLI command that
// runs one batch through the code view and exits — that want the
// transform without the full View wrapper and need to release the
// parser deterministically rather than leaving it for the garbage
// collector.
func NewCodeTransform() (IndexingFunction, func()) {
	chunker := NewCodeChunker()
	return codeChunkFunction(chunker), chunker.Close
}

// codeChunkFunction adapts chunker into an IndexingFunction: it reads the
// source document's "content"/"file_path"/"language" fields, chunks them,
// and converts each resulting Chunk into its own index record via
// chunkToDocument.
func codeChunkFunction(chunker *CodeChunker) IndexingFunction {
	return func(doc *document.Document) ([]*document.Document, error) {
		content := fieldText(doc, "content")
		if content == "" {
			return nil, nil
		}

		file := &FileInput{
			Path:     fieldText(doc, "file_path"),
			Content:  []byte(content),
			Language: fieldText(doc, "language"),
		}

		chunks, err := chunker.Chunk(context.Background(), file)
		if err != nil {
			return nil, fmt.Errorf("chunking document %q: %w", doc.Key, err)
		}

		out := make([]*document.Document, 0, len(chunks))
		for i, ch := range chunks {
			out = append(out, chunkToDocument(doc.Key, i, ch))
		}
		return out, nil
	}
}

// chunkToDocument converts one Chunk into an index record keyed off the
// owning source document's key plus the chunk's position within it, so
// re-indexing the same source document deterministically replaces the
// same set of records rather than accumulating duplicates.
func chunkToDocument(sourceKey string, ordinal int, ch *Chunk) *document.Document {
	key := fmt.Sprintf("%s/chunks/%d", sourceKey, ordinal)
	d := document.New(key)
	d.AddField(document.NewTextField("content", ch.Content))
	d.AddField(document.NewKeywordField("language", ch.Language))
	d.AddField(document.NewKeywordField("file_path", ch.FilePath))
	d.AddField(document.NewIntField("start_line", int32(ch.StartLine)))
	d.AddField(document.NewIntField("end_line", int32(ch.EndLine)))
	if ch.Symbol != nil {
		d.AddField(document.NewKeywordField("symbol_names", ch.Symbol.Name))
	}
	return d
}

func fieldText(doc *document.Document, name string) string {
	for _, f := range doc.FieldsNamed(name) {
		if f.Kind == document.ValueKindText {
			return f.Text
		}
	}
	return ""
}
