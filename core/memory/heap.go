package memory

import (
	"math"
	"sync"

	"github.com/joshuapare/corekit/internal/fatal"
)

// HeapAllocator is the root allocator over the Go heap.
//
// Each allocation is an independent Go byte slice of size+align bytes,
// aligned inside. Live allocations are indexed by address so AllocatedSize
// and Deallocate are O(1) and a double free is detected.
type HeapAllocator struct {
	mu    sync.Mutex
	live  map[uintptr]heapAlloc
	total uint64
}

type heapAlloc struct {
	mem  []byte // keeps the backing slice reachable
	size uint32
}

// NewHeap creates an empty HeapAllocator.
func NewHeap() *HeapAllocator {
	return &HeapAllocator{live: make(map[uintptr]heapAlloc)}
}

// Allocate returns size bytes aligned to align. The memory is zeroed.
func (h *HeapAllocator) Allocate(size, align uint32) []byte {
	align = normalizeAlign(align)

	mem := make([]byte, int(size)+int(align))
	off := AlignOffset(mem, 0, align)
	p := userSlice(mem, off, size)

	h.mu.Lock()
	h.live[addrOf(p)] = heapAlloc{mem: mem, size: size}
	h.total += uint64(size)
	h.mu.Unlock()

	return p
}

// Deallocate releases p. Releasing an address this allocator does not own
// is fatal.
func (h *HeapAllocator) Deallocate(p []byte) {
	if p == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	key := addrOf(p)
	a, ok := h.live[key]
	if !ok {
		fatal.Failf("Deallocating %#x which is not a live heap allocation (double free?)", key)
	}
	delete(h.live, key)
	h.total -= uint64(a.size)
}

// AllocatedSize returns the requested size of a live allocation, or
// SizeNotTracked for unknown addresses.
func (h *HeapAllocator) AllocatedSize(p []byte) uint32 {
	if p == nil {
		return SizeNotTracked
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	a, ok := h.live[addrOf(p)]
	if !ok {
		return SizeNotTracked
	}
	return a.size
}

// TotalAllocated returns the sum of live allocation sizes, saturating just
// below SizeNotTracked.
func (h *HeapAllocator) TotalAllocated() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return saturate(h.total)
}

// NumAllocations returns the number of live allocations.
func (h *HeapAllocator) NumAllocations() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.live)
}

// Leaks returns a *LeakError describing outstanding allocations, or nil.
func (h *HeapAllocator) Leaks() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.live) == 0 {
		return nil
	}
	return &LeakError{Allocator: "heap", Allocations: len(h.live), Bytes: h.total}
}

// Close asserts that every allocation has been returned.
func (h *HeapAllocator) Close() {
	h.mu.Lock()
	n, total := len(h.live), h.total
	h.mu.Unlock()

	fatal.Check(n == 0, "Missing %d deallocations causing a leak of %d bytes", n, total)
}

func saturate(v uint64) uint32 {
	if v >= uint64(SizeNotTracked) {
		return math.MaxUint32 - 1
	}
	return uint32(v)
}

var _ Allocator = (*HeapAllocator)(nil)
