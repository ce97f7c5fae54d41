package viewgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docidx/docidx/internal/document"
)

func TestCodeView_ContainsField(t *testing.T) {
	v := NewCodeView()
	assert.True(t, v.ContainsField("content"))
	assert.True(t, v.ContainsField("symbol_names"))
	assert.False(t, v.ContainsField("nonexistent"))
}

func TestCodeView_ReduceFunction_NoneConfigured(t *testing.T) {
	v := NewCodeView()
	_, ok := v.ReduceFunction()
	assert.False(t, ok)
}

func TestCodeView_IndexingFunction_SplitsSourceIntoRecordsPerFunction(t *testing.T) {
	v := NewCodeView()
	require.Len(t, v.IndexingFunctions(), 1)

	source := &document.Document{Key: "files/main.go"}
	source.AddField(document.NewTextField("content", `package main

import "fmt"

func Hello() {
	fmt.Println("Hello")
}

func Goodbye() {
	fmt.Println("Goodbye")
}
`))
	source.AddField(document.NewKeywordField("file_path", "main.go"))
	source.AddField(document.NewKeywordField("language", "go"))

	records, err := v.IndexingFunctions()[0](source)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "files/main.go/chunks/0", records[0].Key)
	assert.Equal(t, "files/main.go/chunks/1", records[1].Key)

	firstContent := records[0].FieldsNamed("content")
	require.Len(t, firstContent, 1)
	assert.Contains(t, firstContent[0].Text, "Hello")

	firstSymbols := records[0].FieldsNamed("symbol_names")
	require.Len(t, firstSymbols, 1)
	assert.Equal(t, "Hello", firstSymbols[0].Text)
}

func TestCodeView_IndexingFunction_EmptyContentProducesNoRecords(t *testing.T) {
	v := NewCodeView()
	source := document.New("files/empty.go")

	records, err := v.IndexingFunctions()[0](source)
	require.NoError(t, err)
	assert.Nil(t, records)
}

func TestStaticView_ReduceFunctionWhenConfigured(t *testing.T) {
	called := false
	v := &StaticView{
		Fields: map[string]struct{}{"content": {}},
		Reduce: func(records []*document.Document) ([]*document.Document, error) {
			called = true
			return records, nil
		},
	}

	reduce, ok := v.ReduceFunction()
	require.True(t, ok)
	_, err := reduce(nil)
	require.NoError(t, err)
	assert.True(t, called)
}
