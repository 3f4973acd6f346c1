package memory

import (
	"math"

	"github.com/joshuapare/corekit/internal/fatal"
)

// LinearAllocator is a bump-pointer allocator over one fixed block.
//
// Key characteristics:
//   - O(1) Allocate: align the cursor, advance it by size+align
//   - Deallocate is a no-op; Clear reclaims everything at once
//   - Never grows: Allocate returns nil when the block is exhausted
//   - Close with a non-zero offset is a fatal leak
//
// Suited to per-frame or per-scope scratch memory.
type LinearAllocator struct {
	backing Allocator // nil when wrapping an external buffer
	start   []byte
	total   uint32
	offset  uint32
}

// NewLinear takes size bytes from backing. The block is returned to
// backing on Close.
func NewLinear(backing Allocator, size uint32) *LinearAllocator {
	mem := backing.Allocate(size, DefaultAlign)
	fatal.Check(mem != nil, "Linear allocator could not obtain %d bytes", size)

	return &LinearAllocator{
		backing: backing,
		start:   mem,
		total:   size,
	}
}

// NewLinearFromBuffer allocates out of buf, which stays owned by the caller.
func NewLinearFromBuffer(buf []byte) *LinearAllocator {
	fatal.Check(uint64(len(buf)) <= math.MaxUint32, "Buffer of %d bytes is too large", len(buf))
	return &LinearAllocator{
		start: buf,
		total: uint32(len(buf)),
	}
}

// Allocate reserves size+align bytes and returns size of them starting at
// the first aligned address. Returns nil when the block cannot fit the
// reservation.
func (l *LinearAllocator) Allocate(size, align uint32) []byte {
	align = normalizeAlign(align)

	actual := uint64(size) + uint64(align)
	if uint64(l.offset)+actual > uint64(l.total) {
		return nil
	}

	user := AlignOffset(l.start, l.offset, align)
	l.offset += uint32(actual)

	return userSlice(l.start, user, size)
}

// Deallocate does nothing. Single deallocations are not supported; use Clear.
func (l *LinearAllocator) Deallocate([]byte) {}

// Clear makes the whole block available again. Every slice handed out
// before Clear must no longer be used.
func (l *LinearAllocator) Clear() {
	l.offset = 0
}

// AllocatedSize is not tracked per allocation.
func (l *LinearAllocator) AllocatedSize([]byte) uint32 {
	return SizeNotTracked
}

// TotalAllocated returns the bytes consumed since the last Clear,
// alignment padding included.
func (l *LinearAllocator) TotalAllocated() uint32 {
	return l.offset
}

// Offset returns the cursor position.
func (l *LinearAllocator) Offset() uint32 { return l.offset }

// Size returns the capacity of the block.
func (l *LinearAllocator) Size() uint32 { return l.total }

// Close returns the block to the backing allocator and asserts that the
// allocator was cleared.
func (l *LinearAllocator) Close() {
	if l.backing != nil && l.start != nil {
		l.backing.Deallocate(l.start)
	}
	l.start = nil

	fatal.Check(l.offset == 0, "Memory leak of %d bytes, maybe you forgot to call Clear()?", l.offset)
}

var _ Allocator = (*LinearAllocator)(nil)
