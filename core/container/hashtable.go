package container

import (
	"github.com/joshuapare/corekit/core/memory"
	"github.com/joshuapare/corekit/internal/fatal"
)

const (
	slotFree     uint32 = 0x00000000
	slotOccupied uint32 = 0x0123abcd
	slotDeleted  uint32 = 0x80000000

	initialCapacity = 16
	maxLoadFactor   = 0.9
)

// slot is the index record of one table position.
type slot struct {
	hash  uint32
	state uint32
}

func isDeleted(state uint32) bool { return state&slotDeleted != 0 }

// table is the Robin-Hood core shared by HashSet (E = K) and HashMap
// (E = Entry[K, V]).
type table[K comparable, E any] struct {
	alloc   memory.Allocator
	hash    func(K) uint32
	key     func(*E) K
	destroy func(*E)

	mem   memory.Pair[slot, E]
	index []slot
	data  []E

	capacity uint32
	mask     uint32
	size     uint32
}

func newTable[K comparable, E any](a memory.Allocator, hash func(K) uint32, key func(*E) K, destroy func(*E)) table[K, E] {
	fatal.Check(a != nil, "Allocator must be != nil")
	fatal.Check(hash != nil, "Hasher must be != nil")
	return table[K, E]{alloc: a, hash: hash, key: key, destroy: destroy}
}

// probeDistance is how far position i is from the home slot of hash.
func (t *table[K, E]) probeDistance(hash, i uint32) uint32 {
	return (i + t.capacity - (hash & t.mask)) & t.mask
}

// find returns the position of k.
func (t *table[K, E]) find(k K) (uint32, bool) {
	if t.size == 0 {
		return 0, false
	}

	h := t.hash(k)
	i := h & t.mask
	for dist := uint32(0); ; dist++ {
		s := t.index[i]
		if s.state == slotFree {
			return 0, false
		}
		// A resident closer to home than we are means k would have
		// displaced it on insert.
		if dist > t.probeDistance(s.hash, i) {
			return 0, false
		}
		if !isDeleted(s.state) && s.hash == h && t.key(&t.data[i]) == k {
			return i, true
		}
		i = (i + 1) & t.mask
	}
}

// insert places e, whose key must be absent. The table must have room.
func (t *table[K, E]) insert(h uint32, e E) {
	i := h & t.mask
	for dist := uint32(0); ; dist++ {
		s := &t.index[i]
		if s.state == slotFree {
			t.data[i] = e
			s.hash = h
			s.state = slotOccupied
			return
		}

		// A tombstone keeps the distance of the entry it replaced. Taking
		// it with a smaller distance would end lookups for keys further
		// down the run before they reach them.
		existing := t.probeDistance(s.hash, i)
		if isDeleted(s.state) {
			if existing <= dist {
				t.data[i] = e
				s.hash = h
				s.state = slotOccupied
				return
			}
			i = (i + 1) & t.mask
			continue
		}

		// Steal from the rich: take the slot and carry the resident on.
		if existing < dist {
			h, s.hash = s.hash, h
			e, t.data[i] = t.data[i], e
			dist = existing
		}
		i = (i + 1) & t.mask
	}
}

// add inserts e under key k unless k is present, growing as needed.
// Returns the position of k.
func (t *table[K, E]) add(k K, e E) uint32 {
	if t.capacity == 0 {
		t.grow()
	}
	if i, ok := t.find(k); ok {
		return i
	}

	t.insert(t.hash(k), e)
	t.size++
	if t.full() {
		t.grow()
	}

	i, ok := t.find(k)
	fatal.Check(ok, "Inserted key not found")
	return i
}

func (t *table[K, E]) remove(k K) bool {
	i, ok := t.find(k)
	if !ok {
		return false
	}
	t.destroy(&t.data[i])
	t.index[i].state |= slotDeleted
	t.size--
	return true
}

func (t *table[K, E]) full() bool {
	return float64(t.size) >= float64(t.capacity)*maxLoadFactor
}

func (t *table[K, E]) grow() {
	n := uint32(initialCapacity)
	if t.capacity != 0 {
		n = t.capacity * 2
	}
	t.rehash(n)
}

// rehash moves every live entry into a fresh allocation of n slots by its
// stored hash and releases the old one. Tombstones are dropped.
func (t *table[K, E]) rehash(n uint32) {
	fatal.Check(memory.IsPowerOfTwo(n), "Capacity must be a power of two, got %d", n)
	fatal.Check(float64(n)*maxLoadFactor > float64(t.size),
		"Capacity %d cannot hold %d entries", n, t.size)

	mem, err := memory.AllocPair[slot, E](t.alloc, int(n))
	if err != nil {
		fatal.Failf("Hash table rehash to %d slots: %v", n, err)
	}

	// AllocPair zeroes the index, so every new slot starts FREE.
	nt := *t
	nt.mem = mem
	nt.index = mem.First()
	nt.data = mem.Second()
	nt.capacity = n
	nt.mask = n - 1

	for i := range t.capacity {
		s := t.index[i]
		if s.state != slotFree && !isDeleted(s.state) {
			nt.insert(s.hash, t.data[i])
		}
	}

	t.mem.Free(t.alloc)
	*t = nt
}

// clear destroys the live entries and frees every slot. Capacity is kept.
func (t *table[K, E]) clear() {
	for i := range t.capacity {
		if t.index[i].state == slotOccupied {
			t.destroy(&t.data[i])
		}
		t.index[i] = slot{}
	}
	t.size = 0
}

// close destroys the live entries and releases the allocation. The table
// is empty and reusable afterwards.
func (t *table[K, E]) close() {
	for i := range t.capacity {
		if t.index[i].state == slotOccupied {
			t.destroy(&t.data[i])
		}
	}
	t.mem.Free(t.alloc)
	t.index, t.data = nil, nil
	t.capacity, t.mask, t.size = 0, 0, 0
}

// each calls fn for every live entry until fn returns false.
func (t *table[K, E]) each(fn func(*E) bool) {
	for i := range t.capacity {
		if t.index[i].state == slotOccupied {
			if !fn(&t.data[i]) {
				return
			}
		}
	}
}
