// Package frontier provides the min-priority queue shared by weighted graph
// search and journey search.
//
// There is no decrease-key operation. Callers re-push an item with its new
// priority and discard stale entries when they are popped.
package frontier

import (
	"container/heap"

	"golang.org/x/exp/constraints"
)

// Frontier is a binary min-heap of payloads keyed by priority. Among equal
// priorities, items pop in insertion order.
type Frontier[P constraints.Ordered, T any] struct {
	items entries[P, T]
	seq   uint64
}

// New returns an empty frontier.
func New[P constraints.Ordered, T any]() *Frontier[P, T] {
	return &Frontier[P, T]{}
}

// Push inserts payload with the given priority.
func (f *Frontier[P, T]) Push(priority P, payload T) {
	f.seq++
	heap.Push(&f.items, entry[P, T]{priority: priority, seq: f.seq, payload: payload})
}

// Pop removes and returns the entry with the lowest priority. ok is false
// when the frontier is empty.
func (f *Frontier[P, T]) Pop() (priority P, payload T, ok bool) {
	if len(f.items) == 0 {
		return priority, payload, false
	}
	e := heap.Pop(&f.items).(entry[P, T])
	return e.priority, e.payload, true
}

// Peek returns the lowest-priority entry without removing it.
func (f *Frontier[P, T]) Peek() (priority P, payload T, ok bool) {
	if len(f.items) == 0 {
		return priority, payload, false
	}
	return f.items[0].priority, f.items[0].payload, true
}

// Len reports the number of queued entries, stale ones included.
func (f *Frontier[P, T]) Len() int {
	return len(f.items)
}

type entry[P constraints.Ordered, T any] struct {
	priority P
	seq      uint64
	payload  T
}

type entries[P constraints.Ordered, T any] []entry[P, T]

func (e entries[P, T]) Len() int { return len(e) }

func (e entries[P, T]) Less(i, j int) bool {
	if e[i].priority != e[j].priority {
		return e[i].priority < e[j].priority
	}
	return e[i].seq < e[j].seq
}

func (e entries[P, T]) Swap(i, j int) { e[i], e[j] = e[j], e[i] }

func (e *entries[P, T]) Push(x any) {
	*e = append(*e, x.(entry[P, T]))
}

func (e *entries[P, T]) Pop() any {
	old := *e
	n := len(old)
	item := old[n-1]
	var zero entry[P, T]
	old[n-1] = zero
	*e = old[:n-1]
	return item
}
