package container

import (
	"cmp"
	"iter"
	"slices"

	"github.com/joshuapare/corekit/core/memory"
	"github.com/joshuapare/corekit/internal/fatal"
)

// sortMapState is the storage shared by the handles of one map. epoch
// changes on every transition between the sorted and the unsorted view.
type sortMapState[K, V any] struct {
	data  Array[Entry[K, V]]
	cmp   func(a, b K) int
	epoch uint64
}

func (s *sortMapState[K, V]) search(k K) (int, bool) {
	return slices.BinarySearchFunc(s.data.Items(), k, func(e Entry[K, V], k K) int {
		return s.cmp(e.Key, k)
	})
}

func (s *sortMapState[K, V]) advance() uint64 {
	s.epoch++
	return s.epoch
}

// SortMap is the sorted view of a map kept as an ordered array. It answers
// lookups by binary search.
//
// Writes turn the map into a SortMapBuilder and invalidate the SortMap they
// were called on; Sort on the builder yields a fresh SortMap. Using an
// invalidated handle is a fatal assertion.
type SortMap[K, V any] struct {
	s     *sortMapState[K, V]
	epoch uint64
}

// SortMapBuilder is the unsorted view of a map with pending writes. It has
// no lookups; call Sort first.
type SortMapBuilder[K, V any] struct {
	s     *sortMapState[K, V]
	epoch uint64
}

// NewSortMap creates an empty map ordered by cmp.Compare.
func NewSortMap[K cmp.Ordered, V any](a memory.Allocator) SortMap[K, V] {
	return NewSortMapFunc[K, V](a, cmp.Compare[K])
}

// NewSortMapFunc creates an empty map ordered by compare.
func NewSortMapFunc[K, V any](a memory.Allocator, compare func(a, b K) int) SortMap[K, V] {
	fatal.Check(compare != nil, "Comparator must be != nil")
	s := &sortMapState[K, V]{cmp: compare}
	s.data.InitAllocator(a)
	return SortMap[K, V]{s: s}
}

func (m SortMap[K, V]) state() *sortMapState[K, V] {
	fatal.Check(m.s != nil, "SortMap is not initialized")
	fatal.Check(m.s.epoch == m.epoch, "SortMap handle is stale: the map was modified through another handle")
	return m.s
}

// Len returns the number of entries.
func (m SortMap[K, V]) Len() int { return m.state().data.Len() }

// Has reports whether k is present.
func (m SortMap[K, V]) Has(k K) bool {
	_, ok := m.state().search(k)
	return ok
}

// Get returns the value for k, or def when k is absent.
func (m SortMap[K, V]) Get(k K, def V) V {
	s := m.state()
	if i, ok := s.search(k); ok {
		return s.data.At(i).Value
	}
	return def
}

// Lookup returns the value for k and whether it was present.
func (m SortMap[K, V]) Lookup(k K) (V, bool) {
	s := m.state()
	if i, ok := s.search(k); ok {
		return s.data.At(i).Value, true
	}
	var zero V
	return zero, false
}

// All yields the entries in ascending key order.
func (m SortMap[K, V]) All() iter.Seq2[K, V] {
	s := m.state()
	return func(yield func(K, V) bool) {
		fatal.Check(s.epoch == m.epoch, "SortMap modified during iteration")
		for _, e := range s.data.Items() {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

// Set stores v under k, overwriting the value in place when k is present
// and appending otherwise.
func (m SortMap[K, V]) Set(k K, v V) SortMapBuilder[K, V] {
	s := m.state()
	if i, ok := s.search(k); ok {
		e := s.data.Ptr(i)
		memory.Destruct(&e.Value)
		e.Value = v
	} else {
		s.data.Push(Entry[K, V]{Key: k, Value: v})
	}
	return SortMapBuilder[K, V]{s: s, epoch: s.advance()}
}

// Remove deletes k by moving the last entry into its place.
func (m SortMap[K, V]) Remove(k K) SortMapBuilder[K, V] {
	s := m.state()
	if i, ok := s.search(k); ok {
		s.removeAt(i)
	}
	return SortMapBuilder[K, V]{s: s, epoch: s.advance()}
}

// Edit returns a builder for a batch of writes without changing the map.
func (m SortMap[K, V]) Edit() SortMapBuilder[K, V] {
	s := m.state()
	return SortMapBuilder[K, V]{s: s, epoch: s.advance()}
}

// Clear removes every entry. An empty map is sorted.
func (m SortMap[K, V]) Clear() SortMap[K, V] {
	s := m.state()
	s.clear()
	return SortMap[K, V]{s: s, epoch: s.advance()}
}

// Close destroys the entries and releases the storage. Every handle of
// the map is invalidated.
func (m SortMap[K, V]) Close() {
	s := m.state()
	s.clear()
	s.data.Destroy()
	s.advance()
}

func (b SortMapBuilder[K, V]) state() *sortMapState[K, V] {
	fatal.Check(b.s != nil, "SortMapBuilder is not initialized")
	fatal.Check(b.s.epoch == b.epoch, "SortMapBuilder handle is stale: the map was sorted or closed")
	return b.s
}

// Len returns the number of stored entries, duplicates pending Sort
// included.
func (b SortMapBuilder[K, V]) Len() int { return b.state().data.Len() }

// Set appends the pair. When k is written more than once, the last value
// wins at Sort.
func (b SortMapBuilder[K, V]) Set(k K, v V) SortMapBuilder[K, V] {
	b.state().data.Push(Entry[K, V]{Key: k, Value: v})
	return b
}

// Remove deletes every pending entry for k.
func (b SortMapBuilder[K, V]) Remove(k K) SortMapBuilder[K, V] {
	s := b.state()
	for i := 0; i < s.data.Len(); {
		if s.cmp(s.data.At(i).Key, k) == 0 {
			s.removeAt(i)
			continue
		}
		i++
	}
	return b
}

// Sort orders the entries and resolves duplicate keys, keeping the value
// written last.
func (b SortMapBuilder[K, V]) Sort() SortMap[K, V] {
	s := b.state()

	items := s.data.Items()
	slices.SortStableFunc(items, func(x, y Entry[K, V]) int {
		return s.cmp(x.Key, y.Key)
	})

	// Stable sort keeps equal keys in write order: keep each run's last.
	w := 0
	for r := range items {
		if r+1 < len(items) && s.cmp(items[r].Key, items[r+1].Key) == 0 {
			memory.Destruct(&items[r].Key)
			memory.Destruct(&items[r].Value)
			continue
		}
		items[w] = items[r]
		w++
	}
	s.data.truncate(w)

	return SortMap[K, V]{s: s, epoch: s.advance()}
}

// Close destroys the entries and releases the storage.
func (b SortMapBuilder[K, V]) Close() {
	s := b.state()
	s.clear()
	s.data.Destroy()
	s.advance()
}

// clear destroys every entry.
func (s *sortMapState[K, V]) clear() {
	items := s.data.Items()
	for i := range items {
		memory.Destruct(&items[i].Key)
		memory.Destruct(&items[i].Value)
	}
	s.data.truncate(0)
}

// removeAt destroys the entry at i and moves the last entry into its place.
func (s *sortMapState[K, V]) removeAt(i int) {
	e := s.data.Ptr(i)
	memory.Destruct(&e.Key)
	memory.Destruct(&e.Value)

	last := s.data.Len() - 1
	if i != last {
		s.data.Set(i, s.data.At(last))
	}
	s.data.truncate(last)
}
