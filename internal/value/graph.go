package value

import (
	"encoding/json"
	"fmt"
)

// idKey and refKey are the reserved JSON properties the source format uses
// to tag and re-reference a shared subtree.
const (
	idKey  = "$id"
	refKey = "$ref"
)

// Graph is the result of loading a raw JSON document: every object and
// array encountered becomes an arena slot, and every "$ref" the document
// contained is resolved to a Ref value pointing at the arena slot its "$id"
// registered, rather than a duplicated copy of that subtree.
type Graph struct {
	// Root is the top-level decoded value.
	Root *Value

	// Arena holds every object/array node in encounter order; a Ref's
	// index refers into this slice.
	Arena []*Value
}

// At returns the arena slot at index i, or nil if out of range.
func (g *Graph) At(i int) *Value {
	if i < 0 || i >= len(g.Arena) {
		return nil
	}
	return g.Arena[i]
}

// Load decodes raw JSON into a Graph, resolving "$id"/"$ref" pairs.
//
// Pass one walks the decoded tree once, building Value nodes and recording
// every arena index registered under a "$id". Pass two walks the tree again
// and replaces any "$ref"-bearing object with a Ref into the slot its
// target "$id" registered. A "$ref" to an unknown "$id" is an error: the
// source document is malformed, not merely sparse.
func Load(raw []byte) (*Graph, error) {
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}

	g := &Graph{}
	ids := map[string]int{}

	root := g.firstPass(decoded, ids)
	if err := g.secondPass(root, ids); err != nil {
		return nil, err
	}

	g.Root = root
	return g, nil
}

// firstPass converts decoded JSON into Value nodes, appending every
// object/array to the arena and recording "$id" registrations as it goes.
func (g *Graph) firstPass(decoded interface{}, ids map[string]int) *Value {
	switch d := decoded.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(d)
	case float64:
		return numberValue(d)
	case string:
		return String(d)
	case []interface{}:
		items := make([]*Value, len(d))
		v := Array(items)
		idx := len(g.Arena)
		g.Arena = append(g.Arena, v)
		for i, item := range d {
			items[i] = g.firstPass(item, ids)
		}
		v.arr = items
		_ = idx
		return v
	case map[string]interface{}:
		fields := make(map[string]*Value, len(d))
		v := Object(fields)
		idx := len(g.Arena)
		g.Arena = append(g.Arena, v)
		for k, raw := range d {
			fields[k] = g.firstPass(raw, ids)
		}
		if idVal, ok := fields[idKey]; ok {
			if s, ok := idVal.AsString(); ok {
				ids[s] = idx
				delete(fields, idKey)
			}
		}
		return v
	default:
		return Null()
	}
}

// secondPass walks the tree replacing any object carrying a "$ref" with a
// Ref value, recursing into surviving objects/arrays.
func (g *Graph) secondPass(v *Value, ids map[string]int) error {
	switch v.Kind() {
	case KindObject:
		fields, _ := v.AsObject()
		if refVal, ok := fields[refKey]; ok {
			target, ok := refVal.AsString()
			if !ok {
				return fmt.Errorf("%q must be a string", refKey)
			}
			idx, ok := ids[target]
			if !ok {
				return fmt.Errorf("unresolved %s %q", refKey, target)
			}
			*v = *Ref(idx)
			return nil
		}
		for _, f := range fields {
			if err := g.secondPass(f, ids); err != nil {
				return err
			}
		}
	case KindArray:
		items, _ := v.AsArray()
		for _, item := range items {
			if err := g.secondPass(item, ids); err != nil {
				return err
			}
		}
	}
	return nil
}

// numberValue matches encoding/json's float64 decoding but preserves an
// integral distinction where the number has no fractional part and fits in
// an int64, mirroring the source format's Int/Long/Double split.
func numberValue(f float64) *Value {
	if f == float64(int64(f)) {
		i := int64(f)
		if i >= -1<<31 && i < 1<<31 {
			return Int(int32(i))
		}
		return Long(i)
	}
	return Double(f)
}
