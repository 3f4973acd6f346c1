package container

import (
	"github.com/joshuapare/corekit/core/memory"
	"github.com/joshuapare/corekit/internal/fatal"
)

// Array is a growable array whose storage comes from an allocator.
//
// The zero value has no allocator; it becomes usable after InitAllocator,
// which is what lets an Array live as a HashMap value created by Emplace.
type Array[T any] struct {
	alloc memory.Allocator
	block memory.Block[T]
	items []T
}

// NewArray creates an empty array allocating from a.
func NewArray[T any](a memory.Allocator) *Array[T] {
	arr := &Array[T]{}
	arr.InitAllocator(a)
	return arr
}

// InitAllocator sets the allocator of an empty array.
func (a *Array[T]) InitAllocator(alloc memory.Allocator) {
	fatal.Check(a.block.Len() == 0, "Array already holds memory")
	a.alloc = alloc
}

// Len returns the number of items.
func (a *Array[T]) Len() int { return len(a.items) }

// Cap returns the number of items the array can hold without growing.
func (a *Array[T]) Cap() int { return a.block.Len() }

// At returns the item at i.
func (a *Array[T]) At(i int) T {
	fatal.Check(i >= 0 && i < len(a.items), "Index out of bounds: %d (len %d)", i, len(a.items))
	return a.items[i]
}

// Ptr returns a pointer to the item at i, valid until the array grows.
func (a *Array[T]) Ptr(i int) *T {
	fatal.Check(i >= 0 && i < len(a.items), "Index out of bounds: %d (len %d)", i, len(a.items))
	return &a.items[i]
}

// Set replaces the item at i.
func (a *Array[T]) Set(i int, v T) {
	fatal.Check(i >= 0 && i < len(a.items), "Index out of bounds: %d (len %d)", i, len(a.items))
	a.items[i] = v
}

// Push appends v and returns its index.
func (a *Array[T]) Push(v T) int {
	if len(a.items) == a.block.Len() {
		a.grow(0)
	}
	a.items = append(a.items, v)
	return len(a.items) - 1
}

// Pop removes and returns the last item.
func (a *Array[T]) Pop() T {
	n := len(a.items)
	fatal.Check(n > 0, "Pop on empty Array")
	v := a.items[n-1]
	var zero T
	a.items[n-1] = zero
	a.items = a.items[:n-1]
	return v
}

// Reserve makes room for at least n items.
func (a *Array[T]) Reserve(n int) {
	if n > a.block.Len() {
		a.grow(n)
	}
}

// Items returns the live items. The slice aliases the array's storage and
// is invalidated by the next growth.
func (a *Array[T]) Items() []T { return a.items }

// Clear destroys every item. The capacity is kept.
func (a *Array[T]) Clear() {
	for i := range a.items {
		memory.Destruct(&a.items[i])
	}
	a.items = a.items[:0]
}

// Destroy clears the array and releases its storage.
func (a *Array[T]) Destroy() {
	a.Clear()
	if a.block.Len() > 0 {
		a.block.Free(a.alloc)
	}
	a.items = nil
}

// Close is Destroy for arrays owned directly by the caller.
func (a *Array[T]) Close() { a.Destroy() }

// truncate drops the items past n without destroying them.
func (a *Array[T]) truncate(n int) {
	clear(a.items[n:])
	a.items = a.items[:n]
}

func (a *Array[T]) grow(atLeast int) {
	capacity := max(2*a.block.Len()+1, atLeast)
	a.setCapacity(capacity)
}

func (a *Array[T]) setCapacity(n int) {
	fatal.Check(a.alloc != nil, "Array has no allocator")

	block, err := memory.AllocBlock[T](a.alloc, n)
	if err != nil {
		fatal.Failf("Array growth to %d items: %v", n, err)
	}
	items := block.Items()[:len(a.items)]
	copy(items, a.items)

	if a.block.Len() > 0 {
		a.block.Free(a.alloc)
	}
	a.block = block
	a.items = items
}

var (
	_ memory.AllocatorAware = (*Array[int])(nil)
	_ memory.Destroyer      = (*Array[int])(nil)
)
