package directory

import (
	"path/filepath"
	"testing"

	"github.com/blevesearch/bleve/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRAMDirectory_OpenProducesUsableIndex(t *testing.T) {
	d := NewRAM()
	idx, err := d.Open(bleve.NewIndexMapping())
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Index("doc/1", map[string]any{"title": "hello"}))
	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestRAMDirectory_IsRAM(t *testing.T) {
	assert.True(t, NewRAM().IsRAM())
	assert.Equal(t, "", NewRAM().Path())
}

func TestRAMDirectory_TrackAdvancesSize(t *testing.T) {
	d := NewRAM()
	size, err := d.SizeInBytes()
	require.NoError(t, err)
	assert.Zero(t, size)

	d.Track(100)
	d.Track(50)

	size, err = d.SizeInBytes()
	require.NoError(t, err)
	assert.EqualValues(t, 150, size)
}

func TestRAMDirectory_CloseIsNoop(t *testing.T) {
	assert.NoError(t, NewRAM().Close())
}

func TestFSDirectory_OpenCreatesThenReopens(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "idx")

	d1 := NewFS(path)
	idx1, err := d1.Open(bleve.NewIndexMapping())
	require.NoError(t, err)
	require.NoError(t, idx1.Index("doc/1", map[string]any{"title": "hello"}))
	require.NoError(t, idx1.Close())
	require.NoError(t, d1.Close())

	d2 := NewFS(path)
	idx2, err := d2.Open(bleve.NewIndexMapping())
	require.NoError(t, err)
	defer idx2.Close()
	defer d2.Close()

	count, err := idx2.DocCount()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestFSDirectory_OpenTwiceWithoutClosingFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "idx")

	d1 := NewFS(path)
	idx1, err := d1.Open(bleve.NewIndexMapping())
	require.NoError(t, err)
	defer idx1.Close()
	defer d1.Close()

	d2 := NewFS(path)
	_, err = d2.Open(bleve.NewIndexMapping())
	assert.Error(t, err)
}

func TestFSDirectory_SizeInBytesGrowsAfterWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "idx")

	d := NewFS(path)
	idx, err := d.Open(bleve.NewIndexMapping())
	require.NoError(t, err)
	defer idx.Close()
	defer d.Close()

	before, err := d.SizeInBytes()
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		require.NoError(t, idx.Index("doc/"+string(rune('a'+i%26))+string(rune('0'+i/26)), map[string]any{
			"title": "a reasonably long piece of text to make the segment grow",
		}))
	}

	after, err := d.SizeInBytes()
	require.NoError(t, err)
	assert.Greater(t, after, before)
}

func TestFSDirectory_IsRAMFalse(t *testing.T) {
	d := NewFS("/tmp/whatever")
	assert.False(t, d.IsRAM())
	assert.Equal(t, "/tmp/whatever", d.Path())
}

func TestPromote_ReplaysRecordsIntoFilesystemDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "promoted")

	replayed := false
	fsDir, idx, err := Promote(path, bleve.NewIndexMapping(), func(dst bleve.Index) error {
		replayed = true
		return dst.Index("doc/1", map[string]any{"title": "promoted"})
	})
	require.NoError(t, err)
	defer idx.Close()
	defer fsDir.Close()

	assert.True(t, replayed)
	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.False(t, fsDir.IsRAM())
}

func TestPromote_ReplayErrorClosesTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "promoted")

	_, _, err := Promote(path, bleve.NewIndexMapping(), func(dst bleve.Index) error {
		return assert.AnError
	})
	assert.Error(t, err)

	// The lock must have been released so a fresh open succeeds.
	d2 := NewFS(path)
	idx2, err := d2.Open(bleve.NewIndexMapping())
	require.NoError(t, err)
	idx2.Close()
	d2.Close()
}
