// Package listener implements the min/max heaps the listener-optimized
// recursion tree uses to detect when a stable reaction's stale propensity
// bound has been crossed by a change to one of its input species (spec.md
// §3). Go has no generic n-ary heap in the standard library, so both heaps
// are built on container/heap (see DESIGN.md for why no third-party heap
// was available in the retrieved pack).
package listener

import "container/heap"

// Entry is the payload carried alongside a listener's key: which reaction
// registered it, which node in the recursion tree owns it, and that node's
// identity token so a stale listener from a removed node can be recognized
// and discarded.
type Entry struct {
	ReactionIdx int
	NodeIdx     int
	NodeID      uint64
}

type item struct {
	key   int64
	entry Entry
}

type minHeap []item

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return h[i].key < h[j].key }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x interface{}) { *h = append(*h, x.(item)) }
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// MinListener is a min-heap keyed by an int64 cutoff: it pops entries whose
// key is smaller than a queried threshold, used to detect when a component's
// upper bound has risen above a reaction's recorded ceiling.
type MinListener struct {
	h minHeap
}

// Push registers a new listener entry at the given key.
func (l *MinListener) Push(key int64, entry Entry) {
	heap.Push(&l.h, item{key: key, entry: entry})
}

// PopIfSmallerThan pops and returns the smallest entry if its key is smaller
// than the given threshold, or ok=false if the heap is empty or its minimum
// is not smaller than the threshold.
func (l *MinListener) PopIfSmallerThan(threshold int64) (Entry, bool) {
	if len(l.h) == 0 || !(l.h[0].key < threshold) {
		return Entry{}, false
	}
	it := heap.Pop(&l.h).(item)
	return it.entry, true
}

// Len returns the number of registered listeners.
func (l *MinListener) Len() int { return len(l.h) }

// Entries returns a snapshot of every registered entry, in heap order (not
// sorted by key). Used only by debug validation to check listener coverage
// without disturbing the heap.
func (l *MinListener) Entries() []Entry {
	out := make([]Entry, len(l.h))
	for i, it := range l.h {
		out[i] = it.entry
	}
	return out
}

// Retain keeps only the entries for which keep returns true, rebuilding the
// heap in place. container/heap exposes no native retain primitive.
func (l *MinListener) Retain(keep func(Entry) bool) {
	kept := l.h[:0]
	for _, it := range l.h {
		if keep(it.entry) {
			kept = append(kept, it)
		}
	}
	l.h = kept
	heap.Init(&l.h)
}

type maxHeap []item

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return h[i].key > h[j].key }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) { *h = append(*h, x.(item)) }
func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// MaxListener is a max-heap keyed by an int64 cutoff: it pops entries whose
// key is larger than a queried threshold, used to detect when a component's
// lower bound has fallen below a reaction's recorded floor.
type MaxListener struct {
	h maxHeap
}

// Push registers a new listener entry at the given key.
func (l *MaxListener) Push(key int64, entry Entry) {
	heap.Push(&l.h, item{key: key, entry: entry})
}

// PopIfLargerThan pops and returns the largest entry if its key is larger
// than the given threshold, or ok=false otherwise.
func (l *MaxListener) PopIfLargerThan(threshold int64) (Entry, bool) {
	if len(l.h) == 0 || !(l.h[0].key > threshold) {
		return Entry{}, false
	}
	it := heap.Pop(&l.h).(item)
	return it.entry, true
}

// Len returns the number of registered listeners.
func (l *MaxListener) Len() int { return len(l.h) }

// Entries returns a snapshot of every registered entry, in heap order (not
// sorted by key). Used only by debug validation to check listener coverage
// without disturbing the heap.
func (l *MaxListener) Entries() []Entry {
	out := make([]Entry, len(l.h))
	for i, it := range l.h {
		out[i] = it.entry
	}
	return out
}

// Retain keeps only the entries for which keep returns true, rebuilding the
// heap in place.
func (l *MaxListener) Retain(keep func(Entry) bool) {
	kept := l.h[:0]
	for _, it := range l.h {
		if keep(it.entry) {
			kept = append(kept, it)
		}
	}
	l.h = kept
	heap.Init(&l.h)
}
