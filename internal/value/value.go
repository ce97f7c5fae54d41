// Package value implements the tagged value sum type that a View
// Generator's transformation function populates a document's fields with,
// and the two-pass loader that turns a raw, possibly self-referential JSON
// document into a graph of those values.
//
// A source document arrives as arbitrary JSON; before it can be projected
// into indexable records its dynamic shape needs a single, explicit
// representation rather than a bag of interface{} values scattered through
// the transform. Value is that representation, and Graph is the loader that
// resolves "$id"/"$ref" back-reference conventions into arena indices so
// that cyclic document graphs never require copying a subtree into itself.
package value

import "time"

// Kind discriminates the variant a Value currently holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindLong
	KindDouble
	KindString
	KindDate
	KindObject
	KindArray
	// KindRef holds an arena index produced by resolving a "$ref" during
	// graph loading, rather than a copy of the referenced subtree.
	KindRef
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindDate:
		return "date"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindRef:
		return "ref"
	default:
		return "unknown"
	}
}

// Value is a tagged union over the field types a source document's dynamic
// shape can take: Null | Bool | Int | Long | Double | String | Date |
// Object | Array, plus Ref for an unresolved-by-copy graph back-reference.
type Value struct {
	kind Kind
	b    bool
	i    int32
	l    int64
	d    float64
	s    string
	t    time.Time
	obj  map[string]*Value
	arr  []*Value
	ref  int
}

// Null returns the null value.
func Null() *Value { return &Value{kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) *Value { return &Value{kind: KindBool, b: b} }

// Int wraps a 32-bit integer.
func Int(i int32) *Value { return &Value{kind: KindInt, i: i} }

// Long wraps a 64-bit integer.
func Long(l int64) *Value { return &Value{kind: KindLong, l: l} }

// Double wraps a 64-bit float.
func Double(d float64) *Value { return &Value{kind: KindDouble, d: d} }

// String wraps a string.
func String(s string) *Value { return &Value{kind: KindString, s: s} }

// Date wraps a timestamp.
func Date(t time.Time) *Value { return &Value{kind: KindDate, t: t} }

// Object wraps a field-name-to-value map.
func Object(fields map[string]*Value) *Value {
	if fields == nil {
		fields = map[string]*Value{}
	}
	return &Value{kind: KindObject, obj: fields}
}

// Array wraps an ordered list of values.
func Array(items []*Value) *Value {
	if items == nil {
		items = []*Value{}
	}
	return &Value{kind: KindArray, arr: items}
}

// Ref wraps an arena index produced while resolving a "$ref".
func Ref(arenaIndex int) *Value { return &Value{kind: KindRef, ref: arenaIndex} }

// Kind reports which variant v holds.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

// AsBool returns the boolean payload and whether v holds one.
func (v *Value) AsBool() (bool, bool) {
	if v == nil || v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsInt returns the int32 payload and whether v holds one.
func (v *Value) AsInt() (int32, bool) {
	if v == nil || v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// AsLong returns the int64 payload and whether v holds one.
func (v *Value) AsLong() (int64, bool) {
	if v == nil || v.kind != KindLong {
		return 0, false
	}
	return v.l, true
}

// AsDouble returns the float64 payload and whether v holds one.
func (v *Value) AsDouble() (float64, bool) {
	if v == nil || v.kind != KindDouble {
		return 0, false
	}
	return v.d, true
}

// AsString returns the string payload and whether v holds one.
func (v *Value) AsString() (string, bool) {
	if v == nil || v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// AsDate returns the time payload and whether v holds one.
func (v *Value) AsDate() (time.Time, bool) {
	if v == nil || v.kind != KindDate {
		return time.Time{}, false
	}
	return v.t, true
}

// AsObject returns the field map and whether v holds one.
func (v *Value) AsObject() (map[string]*Value, bool) {
	if v == nil || v.kind != KindObject {
		return nil, false
	}
	return v.obj, true
}

// AsArray returns the element list and whether v holds one.
func (v *Value) AsArray() ([]*Value, bool) {
	if v == nil || v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

// AsRef returns the arena index and whether v holds one.
func (v *Value) AsRef() (int, bool) {
	if v == nil || v.kind != KindRef {
		return 0, false
	}
	return v.ref, true
}

// IsNull reports whether v is absent or explicitly null.
func (v *Value) IsNull() bool {
	return v == nil || v.kind == KindNull
}

// Get looks up a field on an object value using the source format's
// fallback chain: the raw name, then the name with a leading underscore
// stripped, then the literal field "Id". Returns nil if v is not an object
// or no candidate name matches.
func (v *Value) Get(name string) *Value {
	fields, ok := v.AsObject()
	if !ok {
		return nil
	}
	if f, ok := fields[name]; ok {
		return f
	}
	if len(name) > 0 && name[0] == '_' {
		if f, ok := fields[name[1:]]; ok {
			return f
		}
	}
	if f, ok := fields["Id"]; ok {
		return f
	}
	return nil
}
