package queue

import "container/heap"

var _ heap.Interface = (*PriorityQueue)(nil)

// Item is one entry in the priority queue: a catalog index and its
// accumulated score (lower is more similar, per spec.md §4.3).
type Item struct {
	Index int
	Score float64
}

// PriorityQueue is a binary heap over Items, usable as either a min-heap or
// a max-heap.
type PriorityQueue struct {
	isMaxHeap bool
	items     []Item
}

// NewMin creates a min-heap (smallest Score on top).
func NewMin(capacity int) *PriorityQueue {
	return &PriorityQueue{items: make([]Item, 0, capacity)}
}

// NewMax creates a max-heap (largest Score on top).
func NewMax(capacity int) *PriorityQueue {
	return &PriorityQueue{isMaxHeap: true, items: make([]Item, 0, capacity)}
}

// Len returns the number of items in the queue.
func (pq *PriorityQueue) Len() int { return len(pq.items) }

// Top returns the item on top of the heap without removing it.
func (pq *PriorityQueue) Top() (Item, bool) {
	if len(pq.items) == 0 {
		return Item{}, false
	}
	return pq.items[0], true
}

// PushItem inserts an item, maintaining the heap invariant.
func (pq *PriorityQueue) PushItem(it Item) {
	heap.Push(pq, it)
}

// PopItem removes and returns the top item.
func (pq *PriorityQueue) PopItem() (Item, bool) {
	if len(pq.items) == 0 {
		return Item{}, false
	}
	return heap.Pop(pq).(Item), true
}

// Items returns the heap's backing slice. Order is heap order, not sorted.
func (pq *PriorityQueue) Items() []Item {
	return pq.items
}

func (pq *PriorityQueue) less(i, j int) bool {
	if pq.isMaxHeap {
		return pq.items[i].Score > pq.items[j].Score
	}
	return pq.items[i].Score < pq.items[j].Score
}

// heap.Interface

func (pq *PriorityQueue) Less(i, j int) bool { return pq.less(i, j) }
func (pq *PriorityQueue) Swap(i, j int)      { pq.items[i], pq.items[j] = pq.items[j], pq.items[i] }

func (pq *PriorityQueue) Push(x any) {
	pq.items = append(pq.items, x.(Item))
}

func (pq *PriorityQueue) Pop() any {
	n := len(pq.items)
	item := pq.items[n-1]
	pq.items = pq.items[:n-1]
	return item
}
