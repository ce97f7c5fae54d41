package storageactions

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_NoActivityIsZero(t *testing.T) {
	a, err := Open("")
	require.NoError(t, err)
	defer a.Close()

	c, err := a.Snapshot("orders")
	require.NoError(t, err)
	assert.Zero(t, c.IndexingAttempts)
}

func TestIncrementIndexingAttempt_Accumulates(t *testing.T) {
	a, err := Open("")
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.IncrementIndexingAttempt("orders"))
	require.NoError(t, a.IncrementIndexingAttempt("orders"))
	require.NoError(t, a.IncrementIndexingFailure("orders"))

	c, err := a.Snapshot("orders")
	require.NoError(t, err)
	assert.EqualValues(t, 2, c.IndexingAttempts)
	assert.EqualValues(t, 1, c.IndexingFailures)
}

func TestDecrementIndexingAttempt_Lowers(t *testing.T) {
	a, err := Open("")
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.IncrementIndexingAttempt("orders"))
	require.NoError(t, a.IncrementIndexingAttempt("orders"))
	require.NoError(t, a.DecrementIndexingAttempt("orders"))

	c, err := a.Snapshot("orders")
	require.NoError(t, err)
	assert.EqualValues(t, 1, c.IndexingAttempts)
}

func TestReduceCounters_TrackedSeparatelyFromIndexing(t *testing.T) {
	a, err := Open("")
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.IncrementIndexingAttempt("orders"))
	require.NoError(t, a.IncrementReduceAttempt("orders"))
	require.NoError(t, a.IncrementReduceFailure("orders"))

	c, err := a.Snapshot("orders")
	require.NoError(t, err)
	assert.EqualValues(t, 1, c.IndexingAttempts)
	assert.EqualValues(t, 1, c.ReduceAttempts)
	assert.EqualValues(t, 1, c.ReduceFailures)
}

func TestCountersPerIndexAreIndependent(t *testing.T) {
	a, err := Open("")
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.IncrementIndexingAttempt("orders"))
	require.NoError(t, a.IncrementIndexingAttempt("products"))
	require.NoError(t, a.IncrementIndexingAttempt("products"))

	orders, err := a.Snapshot("orders")
	require.NoError(t, err)
	products, err := a.Snapshot("products")
	require.NoError(t, err)

	assert.EqualValues(t, 1, orders.IndexingAttempts)
	assert.EqualValues(t, 2, products.IndexingAttempts)
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stats.db")

	a1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, a1.IncrementIndexingAttempt("orders"))
	require.NoError(t, a1.Close())

	a2, err := Open(path)
	require.NoError(t, err)
	defer a2.Close()

	c, err := a2.Snapshot("orders")
	require.NoError(t, err)
	assert.EqualValues(t, 1, c.IndexingAttempts)
}

func TestIndexingRecorder_SatisfiesEnumeratorInterface(t *testing.T) {
	a, err := Open("")
	require.NoError(t, err)
	defer a.Close()

	rec := IndexingRecorder{Actions: a, IndexName: "orders"}
	rec.IncrementAttempt()
	rec.IncrementFailure()

	c, err := a.Snapshot("orders")
	require.NoError(t, err)
	assert.EqualValues(t, 1, c.IndexingAttempts)
	assert.EqualValues(t, 1, c.IndexingFailures)
}

func TestIndexingRecorder_DecrementAttempt_BacksOutFailedItem(t *testing.T) {
	a, err := Open("")
	require.NoError(t, err)
	defer a.Close()

	rec := IndexingRecorder{Actions: a, IndexName: "orders"}
	rec.IncrementAttempt()
	rec.IncrementAttempt()
	rec.DecrementAttempt()
	rec.IncrementFailure()

	c, err := a.Snapshot("orders")
	require.NoError(t, err)
	assert.EqualValues(t, 1, c.IndexingAttempts)
	assert.EqualValues(t, 1, c.IndexingFailures)
}

func TestReduceRecorder_SatisfiesEnumeratorInterface(t *testing.T) {
	a, err := Open("")
	require.NoError(t, err)
	defer a.Close()

	rec := ReduceRecorder{Actions: a, IndexName: "orders"}
	rec.IncrementAttempt()

	c, err := a.Snapshot("orders")
	require.NoError(t, err)
	assert.EqualValues(t, 1, c.ReduceAttempts)
}

func TestReduceRecorder_DecrementAttempt_BacksOutFailedItem(t *testing.T) {
	a, err := Open("")
	require.NoError(t, err)
	defer a.Close()

	rec := ReduceRecorder{Actions: a, IndexName: "orders"}
	rec.IncrementAttempt()
	rec.DecrementAttempt()

	c, err := a.Snapshot("orders")
	require.NoError(t, err)
	assert.EqualValues(t, 0, c.ReduceAttempts)
}
