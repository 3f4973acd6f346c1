package container

import (
	"iter"

	"github.com/joshuapare/corekit/core/memory"
)

// Entry is a key/value pair as stored by HashMap and SortMap.
type Entry[K, V any] struct {
	Key   K
	Value V
}

// HashMap maps K to V with a Robin-Hood table.
type HashMap[K comparable, V any] struct {
	t table[K, Entry[K, V]]
}

// NewHashMap creates an empty map allocating from a. No memory is taken
// until the first insertion.
func NewHashMap[K comparable, V any](a memory.Allocator, opts ...Option[K]) *HashMap[K, V] {
	o := buildOptions(opts)
	return &HashMap[K, V]{
		t: newTable[K, Entry[K, V]](a, o.hash,
			func(e *Entry[K, V]) K { return e.Key },
			func(e *Entry[K, V]) {
				memory.Destruct(&e.Key)
				memory.Destruct(&e.Value)
			}),
	}
}

// Len returns the number of entries.
func (m *HashMap[K, V]) Len() int { return int(m.t.size) }

// Cap returns the number of slots.
func (m *HashMap[K, V]) Cap() int { return int(m.t.capacity) }

// Has reports whether k is present.
func (m *HashMap[K, V]) Has(k K) bool {
	_, ok := m.t.find(k)
	return ok
}

// Get returns the value for k, or def when k is absent.
func (m *HashMap[K, V]) Get(k K, def V) V {
	if i, ok := m.t.find(k); ok {
		return m.t.data[i].Value
	}
	return def
}

// Lookup returns the value for k and whether it was present.
func (m *HashMap[K, V]) Lookup(k K) (V, bool) {
	if i, ok := m.t.find(k); ok {
		return m.t.data[i].Value, true
	}
	var zero V
	return zero, false
}

// Ptr returns a pointer to the stored value for k, or nil. The pointer is
// invalidated by the next insertion, Rehash, Clear or Close.
func (m *HashMap[K, V]) Ptr(k K) *V {
	if i, ok := m.t.find(k); ok {
		return &m.t.data[i].Value
	}
	return nil
}

// Set stores v under k, overwriting any previous value.
func (m *HashMap[K, V]) Set(k K, v V) {
	if i, ok := m.t.find(k); ok {
		memory.Destruct(&m.t.data[i].Value)
		m.t.data[i].Value = v
		return
	}
	m.t.add(k, Entry[K, V]{Key: k, Value: v})
}

// Emplace returns a pointer to the value for k, first inserting a value
// constructed with the map's allocator when k is absent. The pointer has
// the lifetime described at Ptr.
func (m *HashMap[K, V]) Emplace(k K) *V {
	i, ok := m.t.find(k)
	if !ok {
		e := Entry[K, V]{Key: k}
		memory.Construct(&e.Value, m.t.alloc)
		i = m.t.add(k, e)
	}
	return &m.t.data[i].Value
}

// Remove deletes k, destroying its value, and reports whether it was
// present.
func (m *HashMap[K, V]) Remove(k K) bool {
	return m.t.remove(k)
}

// Clear removes every entry, keeping the capacity.
func (m *HashMap[K, V]) Clear() { m.t.clear() }

// Grow doubles the capacity, or allocates the initial 16 slots.
func (m *HashMap[K, V]) Grow() { m.t.grow() }

// Rehash rebuilds the map with n slots. n must be a power of two large
// enough to keep the load under 90%.
func (m *HashMap[K, V]) Rehash(n int) { m.t.rehash(uint32(n)) }

// All yields the entries in slot order. The map must not be modified
// during iteration.
func (m *HashMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		m.t.each(func(e *Entry[K, V]) bool { return yield(e.Key, e.Value) })
	}
}

// Close destroys the entries and releases the map's memory.
func (m *HashMap[K, V]) Close() { m.t.close() }
