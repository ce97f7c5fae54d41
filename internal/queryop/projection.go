package queryop

import (
	"encoding/json"

	"github.com/docidx/docidx/internal/document"
)

// fetchFieldNames expands fields-to-fetch into the stored-field name set
// a search request must ask the underlying index for: each logical name
// plus the sidecar names that decide how it decodes.
func fetchFieldNames(fields FieldsToFetch) []string {
	out := make([]string, 0, len(fields)*3)
	for _, name := range fields {
		out = append(out, name, name+document.SuffixIsArray, name+document.SuffixConvertToJSON)
	}
	return out
}

// Project builds one result document from a hit's raw stored fields
// (the underlying index library's flattened `map[string]any`), applying
// the field-to-fetch projection and CreateProperty rules spec §4.5
// names. Reserved sidecar fields are never emitted directly — they are
// only consulted to decode or shape the logical field they describe.
func Project(fields FieldsToFetch, stored map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for _, name := range fields {
		if document.HasReservedSuffix(name) {
			continue
		}
		raw, ok := stored[name]
		if !ok {
			continue
		}
		_, forceArray := stored[name+document.SuffixIsArray]

		switch v := raw.(type) {
		case []any:
			decoded := make([]any, 0, len(v))
			for _, one := range v {
				decoded = append(decoded, createProperty(name, one, stored))
			}
			if len(decoded) == 1 && !forceArray {
				out[name] = decoded[0]
			} else {
				out[name] = decoded
			}
		default:
			value := createProperty(name, raw, stored)
			if forceArray {
				out[name] = []any{value}
			} else {
				out[name] = value
			}
		}
	}
	return out
}

// createProperty decodes one stored value for field name per the
// CreateProperty rules: a `_ConvertToJson` sidecar means the stored
// string is a JSON object to parse; the reserved null and empty-string
// sentinels decode to their real values; anything else, including every
// non-string (already-numeric, already-boolean) stored value, passes
// through unchanged.
func createProperty(name string, raw any, stored map[string]any) any {
	s, ok := raw.(string)
	if !ok {
		return raw
	}

	if _, convertsToJSON := stored[name+document.SuffixConvertToJSON]; convertsToJSON {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(s), &parsed); err == nil {
			return parsed
		}
		return s
	}

	switch s {
	case document.NullValueSentinel:
		return nil
	case document.EmptyStringSentinel:
		return ""
	default:
		return s
	}
}
