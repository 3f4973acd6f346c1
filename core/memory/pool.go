package memory

import (
	"github.com/joshuapare/corekit/internal/buf"
	"github.com/joshuapare/corekit/internal/fatal"
)

const (
	// poolLinkSize is the width of the free-list link stored in a free slot.
	poolLinkSize = 8

	// poolEndOfList terminates the free list.
	poolEndOfList = ^uint64(0)
)

// PoolAllocator hands out fixed-size blocks from one pre-sliced region.
//
// Free slots form a singly linked list threaded through their own memory:
// the first 8 bytes of a free slot hold the offset of the next free slot.
// This deliberately reuses freed memory, so every slot is at least 8 bytes
// wide regardless of the block size.
//
// Requests must match the block size and alignment given at construction,
// and exhausting the pool is fatal: the capacity is a configuration
// decision, not a runtime condition.
type PoolAllocator struct {
	backing Allocator
	start   []byte

	freeList uint64

	blockSize  uint32
	blockAlign uint32
	stride     uint32
	numBlocks  uint32

	numAllocations uint32
	allocatedSize  uint32
}

// NewPool carves numBlocks blocks of blockSize bytes aligned to blockAlign
// out of a single region taken from backing.
func NewPool(backing Allocator, numBlocks, blockSize, blockAlign uint32) *PoolAllocator {
	fatal.Check(numBlocks > 0, "Unsupported number of blocks")
	fatal.Check(blockSize > 0, "Unsupported block size")
	fatal.Check(IsPowerOfTwo(blockAlign), "Unsupported block alignment %d", blockAlign)

	stride := alignUp(max(blockSize, poolLinkSize), blockAlign)
	poolSize, err := buf.ArraySize(int(numBlocks), int(stride))
	if err != nil {
		fatal.Failf("Pool of %d x %d bytes: %v", numBlocks, stride, err)
	}

	mem := backing.Allocate(poolSize, blockAlign)
	fatal.Check(mem != nil, "Pool allocator could not obtain %d bytes", poolSize)

	// Initialize intrusive freelist
	for i := uint32(0); i < numBlocks; i++ {
		next := uint64(i+1) * uint64(stride)
		if i == numBlocks-1 {
			next = poolEndOfList
		}
		ok := buf.PutU64LE(mem[uint64(i)*uint64(stride):], next)
		fatal.Check(ok, "Pool link of block %d exceeds the region", i)
	}

	return &PoolAllocator{
		backing:    backing,
		start:      mem,
		freeList:   0,
		blockSize:  blockSize,
		blockAlign: blockAlign,
		stride:     stride,
		numBlocks:  numBlocks,
	}
}

// Allocate pops a block off the free list. size and align must equal the
// pool's block size and alignment.
func (p *PoolAllocator) Allocate(size, align uint32) []byte {
	align = normalizeAlign(align)
	if size != p.blockSize {
		fatal.Failf("Size must match block size (%d != %d)", size, p.blockSize)
	}
	if align != p.blockAlign {
		fatal.Failf("Align must match block align (%d != %d)", align, p.blockAlign)
	}
	if p.freeList == poolEndOfList {
		fatal.Failf("Out of memory (%d blocks in use)", p.numAllocations)
	}

	off := uint32(p.freeList)
	p.freeList = buf.U64LE(p.start[off:])

	p.numAllocations++
	p.allocatedSize += p.blockSize

	return userSlice(p.start, off, p.blockSize)
}

// Deallocate pushes the block back onto the head of the free list.
func (p *PoolAllocator) Deallocate(data []byte) {
	if data == nil {
		return
	}

	fatal.Check(p.numAllocations > 0, "Did not allocate")

	off, ok := offsetIn(p.start, data)
	if !ok || off%p.stride != 0 {
		fatal.Failf("Pointer %#x is not a block of this pool", addrOf(data))
	}

	ok = buf.PutU64LE(p.start[off:], p.freeList)
	fatal.Check(ok, "Pool link at %d exceeds the region", off)
	p.freeList = uint64(off)

	p.numAllocations--
	p.allocatedSize -= p.blockSize
}

// AllocatedSize returns the block size.
func (p *PoolAllocator) AllocatedSize(data []byte) uint32 {
	if data == nil {
		return SizeNotTracked
	}
	return p.blockSize
}

// TotalAllocated returns the bytes held by live blocks.
func (p *PoolAllocator) TotalAllocated() uint32 {
	return p.allocatedSize
}

// NumAllocations returns the number of live blocks.
func (p *PoolAllocator) NumAllocations() uint32 { return p.numAllocations }

// NumBlocks returns the pool capacity in blocks.
func (p *PoolAllocator) NumBlocks() uint32 { return p.numBlocks }

// Available returns the number of free blocks.
func (p *PoolAllocator) Available() uint32 { return p.numBlocks - p.numAllocations }

// BlockSize returns the size of every block.
func (p *PoolAllocator) BlockSize() uint32 { return p.blockSize }

// BlockAlign returns the alignment of every block.
func (p *PoolAllocator) BlockAlign() uint32 { return p.blockAlign }

// Close returns the region to the backing allocator.
func (p *PoolAllocator) Close() {
	if p.start != nil {
		p.backing.Deallocate(p.start)
	}
	p.start = nil
}

var _ Allocator = (*PoolAllocator)(nil)
