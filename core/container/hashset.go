package container

import (
	"iter"

	"github.com/joshuapare/corekit/core/memory"
)

// HashSet is a set of K backed by a Robin-Hood table.
type HashSet[K comparable] struct {
	t table[K, K]
}

// NewHashSet creates an empty set allocating from a. No memory is taken
// until the first Insert.
func NewHashSet[K comparable](a memory.Allocator, opts ...Option[K]) *HashSet[K] {
	o := buildOptions(opts)
	return &HashSet[K]{
		t: newTable[K, K](a, o.hash,
			func(k *K) K { return *k },
			memory.Destruct[K]),
	}
}

// Len returns the number of keys in the set.
func (s *HashSet[K]) Len() int { return int(s.t.size) }

// Cap returns the number of slots.
func (s *HashSet[K]) Cap() int { return int(s.t.capacity) }

// Has reports whether k is in the set.
func (s *HashSet[K]) Has(k K) bool {
	_, ok := s.t.find(k)
	return ok
}

// Insert adds k if it is not already present.
func (s *HashSet[K]) Insert(k K) {
	s.t.add(k, k)
}

// Remove deletes k and reports whether it was present.
func (s *HashSet[K]) Remove(k K) bool {
	return s.t.remove(k)
}

// Clear removes every key, keeping the capacity.
func (s *HashSet[K]) Clear() { s.t.clear() }

// Grow doubles the capacity, or allocates the initial 16 slots.
func (s *HashSet[K]) Grow() { s.t.grow() }

// Rehash rebuilds the set with n slots. n must be a power of two large
// enough to keep the load under 90%.
func (s *HashSet[K]) Rehash(n int) { s.t.rehash(uint32(n)) }

// All yields the keys in slot order.
func (s *HashSet[K]) All() iter.Seq[K] {
	return func(yield func(K) bool) {
		s.t.each(func(k *K) bool { return yield(*k) })
	}
}

// Close destroys the keys and releases the set's memory.
func (s *HashSet[K]) Close() { s.t.close() }
