package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxHeap_TopIsLargest(t *testing.T) {
	pq := NewMax(10)
	for _, s := range []float64{3, 1, 4, 1, 5, 9, 2, 6} {
		pq.PushItem(Item{Score: s})
	}
	top, ok := pq.Top()
	require.True(t, ok)
	assert.Equal(t, 9.0, top.Score)
}

func TestMinHeap_TopIsSmallest(t *testing.T) {
	pq := NewMin(10)
	for _, s := range []float64{3, 1, 4, 1, 5, 9, 2, 6} {
		pq.PushItem(Item{Score: s})
	}
	top, ok := pq.Top()
	require.True(t, ok)
	assert.Equal(t, 1.0, top.Score)
}

func TestPopItem_DrainsInHeapOrder(t *testing.T) {
	pq := NewMax(10)
	for _, s := range []float64{3, 1, 4, 1, 5} {
		pq.PushItem(Item{Score: s})
	}
	var last float64 = 1e18
	for pq.Len() > 0 {
		it, ok := pq.PopItem()
		require.True(t, ok)
		assert.LessOrEqual(t, it.Score, last)
		last = it.Score
	}
}

func TestPopItem_EmptyReturnsFalse(t *testing.T) {
	pq := NewMax(1)
	_, ok := pq.PopItem()
	assert.False(t, ok)
}
