package memory

import (
	"math"

	"github.com/joshuapare/corekit/internal/buf"
	"github.com/joshuapare/corekit/internal/fatal"
)

// stackHeaderSize is the in-band header {offset u32, allocID u32} stored
// immediately before every user allocation.
const stackHeaderSize = 8

// StackAllocator allocates linearly from one block and releases in LIFO
// order. Every allocation is preceded by a header recording the stack top
// before the call and a monotonically assigned allocation id; Deallocate
// checks the id to enforce that only the most recent allocation is freed.
type StackAllocator struct {
	backing Allocator // nil when wrapping an external buffer
	begin   []byte
	top     uint32
	total   uint32
	count   uint32
}

// NewStack takes size bytes from backing. The block is returned to backing
// on Close.
func NewStack(backing Allocator, size uint32) *StackAllocator {
	mem := backing.Allocate(size, DefaultAlign)
	fatal.Check(mem != nil, "Stack allocator could not obtain %d bytes", size)

	return &StackAllocator{
		backing: backing,
		begin:   mem,
		total:   size,
	}
}

// NewStackFromBuffer allocates out of b, which stays owned by the caller.
func NewStackFromBuffer(b []byte) *StackAllocator {
	fatal.Check(uint64(len(b)) <= math.MaxUint32, "Buffer of %d bytes is too large", len(b))
	return &StackAllocator{
		begin: b,
		total: uint32(len(b)),
	}
}

// Allocate reserves header+size+align bytes on top of the stack. Returns nil
// when the block is exhausted.
func (s *StackAllocator) Allocate(size, align uint32) []byte {
	align = normalizeAlign(align)

	actual := uint64(stackHeaderSize) + uint64(size) + uint64(align)
	if uint64(s.top)+actual > uint64(s.total) {
		return nil
	}

	offset := s.top

	// Align user data only, the header sits right before it.
	hdr := AlignOffset(s.begin, s.top+stackHeaderSize, align) - stackHeaderSize
	ok := buf.PutU32LE(s.begin[hdr:], offset) && buf.PutU32LE(s.begin[hdr+4:], s.count)
	fatal.Check(ok, "Stack header at %d exceeds the block of %d bytes", hdr, s.total)

	s.top = offset + uint32(actual)
	s.count++

	return userSlice(s.begin, hdr+stackHeaderSize, size)
}

// Deallocate pops p off the stack. p must be the most recent live
// allocation.
func (s *StackAllocator) Deallocate(p []byte) {
	if p == nil {
		return
	}

	var hdr []byte
	off, ok := offsetIn(s.begin, p)
	if ok {
		hdr, ok = buf.Slice(s.begin, int(off)-stackHeaderSize, stackHeaderSize)
	}
	if !ok {
		fatal.Failf("Pointer %#x does not belong to this stack allocator", addrOf(p))
	}

	if s.count == 0 || buf.U32LE(hdr[4:]) != s.count-1 {
		fatal.Failf("Deallocations must occur in LIFO order")
	}

	s.top = buf.U32LE(hdr)
	s.count--
}

// AllocatedSize is not tracked per allocation.
func (s *StackAllocator) AllocatedSize([]byte) uint32 {
	return SizeNotTracked
}

// TotalAllocated returns the stack top, headers and padding included.
func (s *StackAllocator) TotalAllocated() uint32 {
	return s.top
}

// AllocationCount returns the number of live allocations.
func (s *StackAllocator) AllocationCount() uint32 { return s.count }

// Size returns the capacity of the block.
func (s *StackAllocator) Size() uint32 { return s.total }

// Close returns the block to the backing allocator and asserts that every
// allocation was popped.
func (s *StackAllocator) Close() {
	if s.backing != nil && s.begin != nil {
		s.backing.Deallocate(s.begin)
	}
	s.begin = nil

	fatal.Check(s.count == 0 && s.top == 0,
		"Missing %d deallocations causing a leak of %d bytes", s.count, s.top)
}

var _ Allocator = (*StackAllocator)(nil)
