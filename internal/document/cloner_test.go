package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClone_ProducesIndependentCopy(t *testing.T) {
	original := New("docs/1")
	original.AddField(NewTextField("title", "hello"))
	original.AddField(NewBinaryField("blob", []byte{1, 2, 3}))

	clone := Clone(original)

	require.Equal(t, original.Key, clone.Key)
	require.Len(t, clone.Fields, len(original.Fields))

	// Mutating the clone's binary payload must not affect the original.
	clone.Fields[2].Binary[0] = 99
	assert.Equal(t, byte(1), original.Fields[2].Binary[0])
}

func TestClone_PreservesNumericType(t *testing.T) {
	d := New("docs/1")
	d.AddField(NewIntField("a", 1))
	d.AddField(NewLongField("b", 2))
	d.AddField(NewDoubleField("c", 3.5))

	clone := Clone(d)

	assert.Equal(t, ValueKindInt, clone.Fields[1].Kind)
	assert.Equal(t, int32(1), clone.Fields[1].Int)
	assert.Equal(t, ValueKindLong, clone.Fields[2].Kind)
	assert.Equal(t, int64(2), clone.Fields[2].Long)
	assert.Equal(t, ValueKindDouble, clone.Fields[3].Kind)
	assert.Equal(t, 3.5, clone.Fields[3].Double)
}

func TestClone_PreservesIndexingMode(t *testing.T) {
	d := New("docs/1")
	d.AddField(NewTextField("indexed", "x"))
	d.AddField(Field{Name: "notindexed", Kind: ValueKindText, Text: "y", Stored: true, Indexed: false})

	clone := Clone(d)

	assert.True(t, clone.Fields[1].Analyzed)
	assert.False(t, clone.Fields[2].Analyzed)
}

func TestClone_Nil(t *testing.T) {
	assert.Nil(t, Clone(nil))
}

func TestCloneAll(t *testing.T) {
	docs := []*Document{New("a"), New("b")}
	clones := CloneAll(docs)

	require.Len(t, clones, 2)
	assert.Equal(t, "a", clones[0].Key)
	assert.Equal(t, "b", clones[1].Key)
	assert.NotSame(t, docs[0], clones[0])
}
