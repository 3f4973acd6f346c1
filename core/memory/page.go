package memory

import (
	"sync"

	"github.com/joshuapare/corekit/internal/fatal"
	"github.com/joshuapare/corekit/internal/logger"
	"github.com/joshuapare/corekit/internal/vmem"
)

// PageAllocator hands out whole OS pages that live outside the Go heap.
//
// Every request becomes its own mapping rounded up to the page size, so it
// is only worth using for large, long-lived regions such as the backing
// block of a LinearAllocator or PoolAllocator.
type PageAllocator struct {
	mu    sync.Mutex
	live  map[uintptr][]byte // user address -> full mapping
	total uint64
}

// NewPageAllocator creates an empty PageAllocator.
func NewPageAllocator() *PageAllocator {
	return &PageAllocator{live: make(map[uintptr][]byte)}
}

// PageSize returns the mapping granularity.
func (pa *PageAllocator) PageSize() uint32 {
	return uint32(vmem.PageSize())
}

// Allocate maps enough pages for size bytes. Mappings are page aligned, so
// align may be at most the page size. Returns nil when the OS refuses.
func (pa *PageAllocator) Allocate(size, align uint32) []byte {
	align = normalizeAlign(align)
	if align > pa.PageSize() {
		fatal.Failf("Alignment %d exceeds page size %d", align, pa.PageSize())
	}

	mapping, err := vmem.Reserve(max(int(size), 1))
	if err != nil {
		logger.Warn("page allocation failed", "size", size, "err", err)
		return nil
	}
	p := userSlice(mapping, 0, size)

	pa.mu.Lock()
	pa.live[addrOf(p)] = mapping
	pa.total += uint64(len(mapping))
	pa.mu.Unlock()

	return p
}

// Deallocate unmaps the pages behind p.
func (pa *PageAllocator) Deallocate(p []byte) {
	if p == nil {
		return
	}

	pa.mu.Lock()
	key := addrOf(p)
	mapping, ok := pa.live[key]
	if ok {
		delete(pa.live, key)
		pa.total -= uint64(len(mapping))
	}
	pa.mu.Unlock()

	if !ok {
		fatal.Failf("Deallocating %#x which is not a live page mapping (double free?)", key)
	}
	if err := vmem.Release(mapping); err != nil {
		fatal.Failf("Releasing %d bytes at %#x: %v", len(mapping), key, err)
	}
}

// AllocatedSize returns the page-rounded size of the mapping behind p.
func (pa *PageAllocator) AllocatedSize(p []byte) uint32 {
	if p == nil {
		return SizeNotTracked
	}
	pa.mu.Lock()
	defer pa.mu.Unlock()
	mapping, ok := pa.live[addrOf(p)]
	if !ok {
		return SizeNotTracked
	}
	return uint32(len(mapping))
}

// TotalAllocated returns the bytes mapped for live allocations.
func (pa *PageAllocator) TotalAllocated() uint32 {
	pa.mu.Lock()
	defer pa.mu.Unlock()
	return saturate(pa.total)
}

// Leaks returns a *LeakError describing outstanding mappings, or nil.
func (pa *PageAllocator) Leaks() error {
	pa.mu.Lock()
	defer pa.mu.Unlock()
	if len(pa.live) == 0 {
		return nil
	}
	return &LeakError{Allocator: "pages", Allocations: len(pa.live), Bytes: pa.total}
}

// Close asserts that every mapping has been released.
func (pa *PageAllocator) Close() {
	pa.mu.Lock()
	n, total := len(pa.live), pa.total
	pa.mu.Unlock()

	fatal.Check(n == 0, "Missing %d page deallocations causing a leak of %d bytes", n, total)
}

var _ Allocator = (*PageAllocator)(nil)
