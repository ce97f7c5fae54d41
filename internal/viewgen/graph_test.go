package viewgen

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docidx/docidx/internal/document"
)

func newJSONDoc(key, raw string) *document.Document {
	d := document.New(key)
	d.AddField(document.NewTextField("json", raw))
	return d
}

// fieldString renders a field's value as text regardless of which Kind
// carries it, so a test can assert on a leaf's value without caring
// whether the graph view stored it as text, an int, or a double.
func fieldString(f document.Field) string {
	switch f.Kind {
	case document.ValueKindInt:
		return fmt.Sprintf("%d", f.Int)
	case document.ValueKindLong:
		return fmt.Sprintf("%d", f.Long)
	case document.ValueKindDouble:
		return fmt.Sprintf("%g", f.Double)
	default:
		return f.Text
	}
}

func pathValues(t *testing.T, docs []*document.Document) map[string]string {
	t.Helper()
	out := make(map[string]string, len(docs))
	for _, d := range docs {
		path := ""
		val := ""
		for _, f := range d.Fields {
			switch f.Name {
			case "path":
				path = f.Text
			case "value":
				val = fieldString(f)
			}
		}
		out[path] = val
	}
	return out
}

func TestGraphView_FlattensSimpleObjectIntoOneRecordPerLeaf(t *testing.T) {
	view := NewGraphView()
	doc := newJSONDoc("docs/1", `{"name":"alice","age":30}`)

	out, err := view.IndexingFunctions()[0](doc)
	require.NoError(t, err)
	require.Len(t, out, 2)

	values := pathValues(t, out)
	assert.Equal(t, "alice", values["name"])
	assert.Equal(t, "30", values["age"])
}

func TestGraphView_FlattensNestedObjectsAndArrays(t *testing.T) {
	view := NewGraphView()
	doc := newJSONDoc("docs/1", `{"customer":{"name":"bob"},"orders":[{"total":5},{"total":7}]}`)

	out, err := view.IndexingFunctions()[0](doc)
	require.NoError(t, err)

	values := pathValues(t, out)
	assert.Equal(t, "bob", values["customer.name"])
	assert.Equal(t, "5", values["orders.0.total"])
	assert.Equal(t, "7", values["orders.1.total"])
}

func TestGraphView_ResolvesRefWithoutDuplicatingSharedSubtree(t *testing.T) {
	view := NewGraphView()
	raw := `{
		"customer": {"$id": "c1", "name": "carol"},
		"billTo": {"$ref": "c1"}
	}`
	doc := newJSONDoc("docs/1", raw)

	out, err := view.IndexingFunctions()[0](doc)
	require.NoError(t, err)

	values := pathValues(t, out)
	assert.Equal(t, "carol", values["customer.name"])
	assert.Equal(t, "carol", values["billTo.name"])
}

func TestGraphView_CyclicRefTerminatesFlattening(t *testing.T) {
	view := NewGraphView()
	raw := `{
		"$id": "a",
		"name": "node-a",
		"next": {
			"$id": "b",
			"name": "node-b",
			"next": {"$ref": "a"}
		}
	}`
	doc := newJSONDoc("docs/1", raw)

	done := make(chan struct{})
	var out []*document.Document
	var err error
	go func() {
		out, err = view.IndexingFunctions()[0](doc)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("flattening a cyclic graph did not terminate")
	}

	require.NoError(t, err)
	values := pathValues(t, out)
	assert.Equal(t, "node-a", values["name"])
	assert.Equal(t, "node-b", values["next.name"])
}

func TestGraphView_EmptyJSONFieldProducesNoRecords(t *testing.T) {
	view := NewGraphView()
	doc := document.New("docs/1")

	out, err := view.IndexingFunctions()[0](doc)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGraphView_ContainsFieldMatchesDeclaredFields(t *testing.T) {
	view := NewGraphView()
	assert.True(t, view.ContainsField("path"))
	assert.True(t, view.ContainsField("value"))
	assert.False(t, view.ContainsField("nonexistent"))
}

func TestGraphView_InvalidJSONIsAnError(t *testing.T) {
	view := NewGraphView()
	doc := newJSONDoc("docs/1", `not json`)

	_, err := view.IndexingFunctions()[0](doc)
	assert.Error(t, err)
}
