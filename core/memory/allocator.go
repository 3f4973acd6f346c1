package memory

import (
	"unsafe"

	"github.com/joshuapare/corekit/internal/fatal"
)

const (
	// DefaultAlign is used when Allocate is called with align == 0.
	DefaultAlign uint32 = 4

	// SizeNotTracked is returned by allocators that do not record sizes.
	SizeNotTracked uint32 = 0xFFFFFFFF
)

// Allocator is the contract every memory consumer in the core depends on.
//
// Implementations:
//   - HeapAllocator: Go heap, tracked sizes
//   - PageAllocator: OS pages, tracked sizes
//   - LinearAllocator: bump pointer, bulk Clear only
//   - StackAllocator: strict LIFO
//   - PoolAllocator: fixed-size blocks
//   - ProxyAllocator: named forwarding for memory accounting
type Allocator interface {
	// Allocate returns size bytes aligned to align (a power of two, 0 meaning
	// DefaultAlign). The slice has len == cap == size. Returns nil when the
	// request cannot be satisfied.
	Allocate(size, align uint32) []byte

	// Deallocate releases memory previously returned by Allocate on the same
	// allocator. Deallocate(nil) is a no-op.
	Deallocate(p []byte)

	// AllocatedSize returns the usable size of a live allocation, or
	// SizeNotTracked.
	AllocatedSize(p []byte) uint32

	// TotalAllocated returns the bytes currently outstanding, or SizeNotTracked.
	TotalAllocated() uint32
}

// IsPowerOfTwo reports whether v is a non-zero power of two.
func IsPowerOfTwo(v uint32) bool {
	return v != 0 && v&(v-1) == 0
}

// AlignTop rounds addr up to the next multiple of align.
func AlignTop(addr uintptr, align uint32) uintptr {
	if !IsPowerOfTwo(align) {
		fatal.Failf("Alignment must be a power of two, got %d", align)
	}
	a := uintptr(align)
	return (addr + a - 1) &^ (a - 1)
}

// AlignOffset returns the smallest offset >= off at which base's memory is
// aligned to align. The result may exceed len(base).
func AlignOffset(base []byte, off, align uint32) uint32 {
	start := addrOf(base)
	return uint32(AlignTop(start+uintptr(off), align) - start)
}

// alignUp rounds n up to a multiple of align, failing on overflow.
func alignUp(n, align uint32) uint32 {
	a := uint64(align)
	v := (uint64(n) + a - 1) &^ (a - 1)
	if v > uint64(^uint32(0)) {
		fatal.Failf("Size %d overflows when aligned to %d", n, align)
	}
	return uint32(v)
}

// normalizeAlign maps 0 to DefaultAlign and rejects non powers of two.
func normalizeAlign(align uint32) uint32 {
	if align == 0 {
		return DefaultAlign
	}
	if !IsPowerOfTwo(align) {
		fatal.Failf("Alignment must be a power of two, got %d", align)
	}
	return align
}

// addrOf returns the address of the first byte of p.
func addrOf(p []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(p)))
}

// offsetIn returns the offset of p's first byte inside region.
func offsetIn(region, p []byte) (uint32, bool) {
	if len(region) == 0 {
		return 0, false
	}
	base, a := addrOf(region), addrOf(p)
	if a < base || a >= base+uintptr(len(region)) {
		return 0, false
	}
	return uint32(a - base), true
}

// userSlice returns region[off:off+size] with capacity clipped to size.
//
// A zero-size allocation keeps one byte of capacity so its first-byte
// address stays well defined; every allocator reserves at least align bytes
// past the user offset, so that byte is always owned by the allocation.
func userSlice(region []byte, off, size uint32) []byte {
	end := off + size
	if size == 0 {
		return region[off:off:min(end+1, uint32(len(region)))]
	}
	return region[off:end:end]
}
