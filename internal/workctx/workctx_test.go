package workctx

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docidx/docidx/internal/config"
)

func testCfg() config.IndexingConfig {
	return config.IndexingConfig{
		MaxNumberOfItemsToIndexInSingleBatch: 100,
		TempIndexInMemoryMaxBytes:            1024,
		RunInMemory:                          true,
	}
}

func TestNew_InheritsConfig(t *testing.T) {
	c := New(testCfg())
	assert.Equal(t, 100, c.MaxItemsPerBatch)
	assert.EqualValues(t, 1024, c.TempIndexInMemoryMaxBytes)
	assert.True(t, c.RunInMemory)
	assert.False(t, c.Cancelled())
}

func TestAddError_AccumulatesInOrder(t *testing.T) {
	c := New(testCfg())
	c.AddError("orders", "docs/1", "boom")
	c.AddError("orders", "", "batch failed")

	errs := c.Errors()
	require.Len(t, errs, 2)
	assert.Equal(t, "docs/1", errs[0].DocumentKey)
	assert.Equal(t, "", errs[1].DocumentKey)
}

func TestAddError_ConcurrentSafe(t *testing.T) {
	c := New(testCfg())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.AddError("orders", "docs/x", "boom")
		}()
	}
	wg.Wait()
	assert.Len(t, c.Errors(), 50)
}

func TestCancel_SetsCancelledAndClosesDone(t *testing.T) {
	c := New(testCfg())
	c.Cancel()
	assert.True(t, c.Cancelled())

	select {
	case <-c.Done():
	default:
		t.Fatal("expected Done channel to be closed")
	}
}

func TestWithContext_ParentCancellationPropagates(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	c := WithContext(parent, testCfg())
	assert.False(t, c.Cancelled())

	cancel()
	assert.True(t, c.Cancelled())
}
