// Package document defines the indexable record shape the Index Core's
// write path consumes: an ordered set of named, typed fields plus the
// reserved sidecar field conventions that carry array/range/JSON metadata
// for a logical field alongside its primary stored value.
package document

import "time"

// Reserved sidecar suffixes. A field named "<name><suffix>" is metadata
// about the logical field "<name>", never a user-visible projection key.
const (
	SuffixIsArray       = "_IsArray"
	SuffixRange         = "_Range"
	SuffixConvertToJSON = "_ConvertToJson"
)

// Reserved field and sentinel-value conventions. These names are part of
// the on-disk contract: an existing index written with one of these values
// must remain readable, so they are fixed rather than configurable.
const (
	// DocumentIDFieldName is the field carrying a document's external key.
	DocumentIDFieldName = "__document_id"

	// DistanceFieldName is the well-known sort field for spatial queries.
	DistanceFieldName = "__distance"

	// NullValueSentinel is stored in place of an actual null so the field
	// survives the underlying index's inability to store nil directly.
	NullValueSentinel = "NULL_VALUE"

	// EmptyStringSentinel distinguishes a stored empty string from a
	// stored null, since both would otherwise serialize identically.
	EmptyStringSentinel = "EMPTY_STRING"
)

// ReservedSuffixes lists every sidecar suffix, for membership checks.
var ReservedSuffixes = []string{SuffixIsArray, SuffixRange, SuffixConvertToJSON}

// HasReservedSuffix reports whether fieldName ends with one of the
// reserved sidecar suffixes.
func HasReservedSuffix(fieldName string) bool {
	for _, suffix := range ReservedSuffixes {
		if len(fieldName) > len(suffix) && fieldName[len(fieldName)-len(suffix):] == suffix {
			return true
		}
	}
	return false
}

// StripSuffix removes suffix from fieldName if present, returning the
// logical field name and whether a strip occurred.
func StripSuffix(fieldName, suffix string) (string, bool) {
	if len(fieldName) > len(suffix) && fieldName[len(fieldName)-len(suffix):] == suffix {
		return fieldName[:len(fieldName)-len(suffix)], true
	}
	return fieldName, false
}

// ValueKind discriminates the payload a Field carries.
type ValueKind int

const (
	ValueKindText ValueKind = iota
	ValueKindInt
	ValueKindLong
	ValueKindDouble
	ValueKindFloat
	ValueKindBinary
	ValueKindDate
)

// IndexingMode controls whether and how a field's text is analyzed.
type IndexingMode int

const (
	// IndexingModeDefault defers to the per-field Definition (spec §3):
	// Analyzed if an analyzer is declared or implied, NotAnalyzed otherwise.
	IndexingModeDefault IndexingMode = iota
	IndexingModeAnalyzed
	IndexingModeNotAnalyzed
)

// Field is a single named value within a Document.
type Field struct {
	Name string

	Kind   ValueKind
	Text   string
	Int    int32
	Long   int64
	Double float64
	Float  float32
	Binary []byte
	Date   time.Time

	Stored   bool
	Indexed  bool
	Analyzed bool
}

// NewTextField builds a stored, indexed, analyzed text field — the common
// case for a document's searchable body fields.
func NewTextField(name, text string) Field {
	return Field{Name: name, Kind: ValueKindText, Text: text, Stored: true, Indexed: true, Analyzed: true}
}

// NewKeywordField builds a stored, indexed, not-analyzed text field, the
// shape used for exact-match identifiers and tags.
func NewKeywordField(name, text string) Field {
	return Field{Name: name, Kind: ValueKindText, Text: text, Stored: true, Indexed: true, Analyzed: false}
}

// NewIntField builds a stored, indexed numeric field.
func NewIntField(name string, v int32) Field {
	return Field{Name: name, Kind: ValueKindInt, Int: v, Stored: true, Indexed: true}
}

// NewLongField builds a stored, indexed 64-bit numeric field.
func NewLongField(name string, v int64) Field {
	return Field{Name: name, Kind: ValueKindLong, Long: v, Stored: true, Indexed: true}
}

// NewDoubleField builds a stored, indexed floating-point field.
func NewDoubleField(name string, v float64) Field {
	return Field{Name: name, Kind: ValueKindDouble, Double: v, Stored: true, Indexed: true}
}

// NewBinaryField builds a stored, unindexed binary field.
func NewBinaryField(name string, v []byte) Field {
	return Field{Name: name, Kind: ValueKindBinary, Binary: v, Stored: true, Indexed: false}
}

// NewSidecarField builds the `<name><suffix>` metadata field that marks a
// logical field as array-valued, range-typed, or JSON-encoded.
func NewSidecarField(logicalName, suffix, text string) Field {
	return NewKeywordField(logicalName+suffix, text)
}

// Document is an ordered collection of fields produced by a View
// Generator's transformation of one source record.
type Document struct {
	// Key is the document's external identifier, stored under
	// DocumentIDFieldName but kept accessible without a field scan.
	Key string

	Fields []Field
}

// New builds a Document whose DocumentIDFieldName field is set from key.
func New(key string) *Document {
	return &Document{
		Key:    key,
		Fields: []Field{NewKeywordField(DocumentIDFieldName, key)},
	}
}

// AddField appends f to the document's field list.
func (d *Document) AddField(f Field) {
	d.Fields = append(d.Fields, f)
}

// FieldsNamed returns every field in the document with the given name, in
// document order. A document may legitimately carry several fields of the
// same name to represent a multi-valued logical field.
func (d *Document) FieldsNamed(name string) []Field {
	var out []Field
	for _, f := range d.Fields {
		if f.Name == name {
			out = append(out, f)
		}
	}
	return out
}

// HasSidecar reports whether the document carries a `<logicalName><suffix>`
// field, and returns its first value's Text if so.
func (d *Document) HasSidecar(logicalName, suffix string) (string, bool) {
	fields := d.FieldsNamed(logicalName + suffix)
	if len(fields) == 0 {
		return "", false
	}
	return fields[0].Text, true
}
