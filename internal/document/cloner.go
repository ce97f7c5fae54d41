package document

// Clone produces an independent deep copy of a Document so that an Index
// Extension observer invoked with it during on_documents_indexed may
// retain the copy past the write batch that produced it, without racing
// the writer's own buffer reuse.
//
// Numeric fields preserve their concrete numeric type (int, long, double,
// float) rather than normalizing to one width; binary fields are copied
// byte for byte; text fields preserve their Stored and Indexed flags, and
// their Analyzed flag is derived from Indexed (see cloneField).
func Clone(d *Document) *Document {
	if d == nil {
		return nil
	}

	clone := &Document{
		Key:    d.Key,
		Fields: make([]Field, len(d.Fields)),
	}
	for i, f := range d.Fields {
		clone.Fields[i] = cloneField(f)
	}
	return clone
}

// CloneAll clones every document in docs, preserving order.
func CloneAll(docs []*Document) []*Document {
	out := make([]*Document, len(docs))
	for i, d := range docs {
		out[i] = Clone(d)
	}
	return out
}

func cloneField(f Field) Field {
	clone := f
	if f.Binary != nil {
		clone.Binary = make([]byte, len(f.Binary))
		copy(clone.Binary, f.Binary)
	}

	// Text fields preserve stored/indexing-mode semantics: indexed text
	// is analyzed-no-norms, not-indexed text is not-analyzed-no-norms.
	// Norms are not modeled separately here since the underlying index
	// library (bleve) does not expose a norms toggle distinct from
	// "analyzed" — so that collapses onto the existing Analyzed flag.
	if clone.Kind == ValueKindText {
		clone.Analyzed = clone.Indexed
	}
	return clone
}
