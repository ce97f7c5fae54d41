package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SetsDocumentIDField(t *testing.T) {
	d := New("docs/1")

	assert.Equal(t, "docs/1", d.Key)
	fields := d.FieldsNamed(DocumentIDFieldName)
	require.Len(t, fields, 1)
	assert.Equal(t, "docs/1", fields[0].Text)
}

func TestAddField_AppendsInOrder(t *testing.T) {
	d := New("docs/1")
	d.AddField(NewTextField("title", "hello"))
	d.AddField(NewIntField("views", 3))

	require.Len(t, d.Fields, 3)
	assert.Equal(t, "title", d.Fields[1].Name)
	assert.Equal(t, "views", d.Fields[2].Name)
}

func TestFieldsNamed_ReturnsAllMatches(t *testing.T) {
	d := New("docs/1")
	d.AddField(NewTextField("tag", "a"))
	d.AddField(NewTextField("tag", "b"))

	tags := d.FieldsNamed("tag")
	require.Len(t, tags, 2)
	assert.Equal(t, "a", tags[0].Text)
	assert.Equal(t, "b", tags[1].Text)
}

func TestHasSidecar(t *testing.T) {
	d := New("docs/1")
	d.AddField(NewSidecarField("tag", SuffixIsArray, "true"))

	v, ok := d.HasSidecar("tag", SuffixIsArray)
	assert.True(t, ok)
	assert.Equal(t, "true", v)

	_, ok = d.HasSidecar("missing", SuffixIsArray)
	assert.False(t, ok)
}

func TestHasReservedSuffix(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"price_Range", true},
		{"tag_IsArray", true},
		{"notes_ConvertToJson", true},
		{"price", false},
		{"_Range", false}, // suffix with no logical name is not "reserved usage"
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HasReservedSuffix(tt.name), tt.name)
	}
}

func TestStripSuffix(t *testing.T) {
	stripped, ok := StripSuffix("price_Range", SuffixRange)
	assert.True(t, ok)
	assert.Equal(t, "price", stripped)

	_, ok = StripSuffix("price", SuffixRange)
	assert.False(t, ok)
}
