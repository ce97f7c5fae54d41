package indexcore

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/blevesearch/bleve/v2"

	"github.com/docidx/docidx/internal/directory"
	"github.com/docidx/docidx/internal/document"
)

// Writer is what a WriteAction appends records through. It is only valid
// for the duration of the call that receives it.
type Writer interface {
	Index(doc *document.Document) error
	Delete(key string) error
}

// batchWriter adapts the underlying index library's handle to Writer,
// tracking every record it successfully indexes so the write protocol can
// hand that buffer to the extension registry and, for a RAM-resident temp
// index, to the promotion replay path.
type batchWriter struct {
	idx    bleve.Index
	ramDir *directory.RAMDirectory

	buffer []*document.Document
}

func (w *batchWriter) Index(doc *document.Document) error {
	fields := documentToBleveFields(doc)
	if err := w.idx.Index(doc.Key, fields); err != nil {
		return err
	}
	w.buffer = append(w.buffer, doc)
	if w.ramDir != nil {
		w.ramDir.Track(estimateEncodedSize(fields))
	}
	return nil
}

func (w *batchWriter) Delete(key string) error {
	return w.idx.Delete(key)
}

// documentToBleveFields flattens a Document's ordered field list into the
// map the underlying index library indexes: a field appearing once
// becomes a scalar value, a field repeated under the same name (a
// multi-valued logical field, or a sidecar) becomes a slice so the
// mapping's array handling applies.
func documentToBleveFields(doc *document.Document) map[string]any {
	order := make([]string, 0, len(doc.Fields))
	grouped := make(map[string][]any, len(doc.Fields))
	for _, f := range doc.Fields {
		if _, seen := grouped[f.Name]; !seen {
			order = append(order, f.Name)
		}
		grouped[f.Name] = append(grouped[f.Name], fieldValue(f))
	}

	out := make(map[string]any, len(order))
	for _, name := range order {
		vals := grouped[name]
		if len(vals) == 1 {
			out[name] = vals[0]
		} else {
			out[name] = vals
		}
	}
	return out
}

// fieldValue converts one Field's typed payload into the value the
// underlying index library's document mapping expects. Binary payloads
// have no native representation there, so they are base64-encoded into a
// string field — document.Field.Indexed is false for binary fields, so
// this never feeds the analyzer.
func fieldValue(f document.Field) any {
	switch f.Kind {
	case document.ValueKindText:
		return f.Text
	case document.ValueKindInt:
		return float64(f.Int)
	case document.ValueKindLong:
		return float64(f.Long)
	case document.ValueKindDouble:
		return f.Double
	case document.ValueKindFloat:
		return float64(f.Float)
	case document.ValueKindBinary:
		return base64.StdEncoding.EncodeToString(f.Binary)
	case document.ValueKindDate:
		return f.Date.Format(time.RFC3339)
	default:
		return nil
	}
}

// estimateEncodedSize approximates the on-disk footprint of one record
// for the RAM→disk promotion threshold check. The underlying in-memory
// index exposes no real size accounting, so this uses the JSON-encoded
// size of the same field map handed to the indexer as a stand-in.
func estimateEncodedSize(fields map[string]any) int64 {
	b, err := json.Marshal(fields)
	if err != nil {
		return 0
	}
	return int64(len(b))
}
