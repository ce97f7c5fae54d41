package viewgen

import (
	"fmt"
	"strings"

	"github.com/docidx/docidx/internal/document"
)

// CountViewFields are the fields every record a count view's map or
// reduce phase produces carries.
var CountViewFields = []string{"word", "count"}

// NewCountView builds a View demonstrating the map-reduce round trip:
// the map phase splits a source document's "text" field into lowercase
// words and emits one (word, count=1) record per occurrence; the reduce
// phase merges every record sharing the same "word" value into a single
// record carrying their summed count.
func NewCountView() *StaticView {
	fields := make(map[string]struct{}, len(CountViewFields))
	for _, f := range CountViewFields {
		fields[f] = struct{}{}
	}
	return &StaticView{
		Fields:    fields,
		Functions: []IndexingFunction{countMapFunction},
		Reduce:    countReduceFunction,
	}
}

const wordTrimCutset = ".,!?;:\"'()[]{}"

// countMapFunction is the map phase's IndexingFunction: one (word,
// count=1) record per whitespace-delimited word in the source
// document's "text" field, lowercased and stripped of surrounding
// punctuation.
func countMapFunction(doc *document.Document) ([]*document.Document, error) {
	text := fieldText(doc, "text")
	if text == "" {
		return nil, nil
	}

	fields := strings.Fields(text)
	out := make([]*document.Document, 0, len(fields))
	for i, raw := range fields {
		word := strings.ToLower(strings.Trim(raw, wordTrimCutset))
		if word == "" {
			continue
		}
		d := document.New(fmt.Sprintf("%s/word/%d", doc.Key, i))
		d.AddField(document.NewKeywordField("word", word))
		d.AddField(document.NewIntField("count", 1))
		out = append(out, d)
	}
	return out, nil
}

// countReduceFunction is the reduce phase: records is assumed to already
// share one reduce key (every record's "word" field holds the same
// value), per reduce_documents' grouping contract. The merged record's
// key is derived from that shared word rather than any one input
// record's key, so re-running the reduce phase replaces the same record.
func countReduceFunction(records []*document.Document) ([]*document.Document, error) {
	if len(records) == 0 {
		return nil, nil
	}

	word := fieldText(records[0], "word")
	var total int32
	for _, r := range records {
		for _, f := range r.Fields {
			if f.Name != "count" {
				continue
			}
			// A record read back from a JSON round trip (export, then
			// "docidx reduce" from stdin) carries its count as a Double,
			// since the JSON decoder has no integer type of its own; a
			// record built directly by countMapFunction carries an Int.
			switch f.Kind {
			case document.ValueKindInt:
				total += f.Int
			case document.ValueKindLong:
				total += int32(f.Long)
			case document.ValueKindDouble:
				total += int32(f.Double)
			}
		}
	}

	d := document.New("word/" + word)
	d.AddField(document.NewKeywordField("word", word))
	d.AddField(document.NewIntField("count", total))
	return []*document.Document{d}, nil
}
