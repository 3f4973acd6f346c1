package memory

import (
	"testing"

	"github.com/joshuapare/corekit/internal/fatal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolAllocator_Bounds(t *testing.T) {
	h := NewHeap()
	p := NewPool(h, 4, 16, 8)

	var blocks [][]byte
	for range 4 {
		b := p.Allocate(16, 8)
		require.NotNil(t, b)
		require.Len(t, b, 16)
		assert.Zero(t, addrOf(b)%8)
		blocks = append(blocks, b)
	}
	assert.Equal(t, uint32(4), p.NumAllocations())
	assert.Zero(t, p.Available())
	assert.Equal(t, uint32(64), p.TotalAllocated())

	seen := map[uintptr]bool{}
	for _, b := range blocks {
		assert.False(t, seen[addrOf(b)], "blocks must be distinct")
		seen[addrOf(b)] = true
	}

	f := fatal.Catch(func() { p.Allocate(16, 8) })
	require.NotNil(t, f)
	assert.Contains(t, f.Msg, "Out of memory")

	for _, b := range blocks {
		p.Deallocate(b)
	}
	assert.Zero(t, p.TotalAllocated())
	p.Close()
	h.Close()
}

func TestPoolAllocator_ReusesLastFreed(t *testing.T) {
	h := NewHeap()
	p := NewPool(h, 4, 16, 8)

	blocks := make([][]byte, 4)
	for i := range blocks {
		blocks[i] = p.Allocate(16, 8)
	}
	p.Deallocate(blocks[2])

	again := p.Allocate(16, 8)
	assert.Equal(t, addrOf(blocks[2]), addrOf(again))

	for _, b := range blocks {
		p.Deallocate(b)
	}
	p.Close()
	h.Close()
}

func TestPoolAllocator_SmallBlocksKeepFreeList(t *testing.T) {
	p := NewPool(NewHeap(), 3, 1, 1)

	a := p.Allocate(1, 1)
	b := p.Allocate(1, 1)
	a[0], b[0] = 0xFF, 0xFF
	p.Deallocate(a)

	// The freed slot is reused first, then the untouched third slot.
	c := p.Allocate(1, 1)
	d := p.Allocate(1, 1)
	assert.Equal(t, addrOf(a), addrOf(c))
	assert.NotEqual(t, addrOf(b), addrOf(d))
	assert.Equal(t, uint32(3), p.NumAllocations())
}

func TestPoolAllocator_StrideHonorsAlignment(t *testing.T) {
	p := NewPool(NewHeap(), 5, 12, 16)
	for range 5 {
		b := p.Allocate(12, 16)
		require.NotNil(t, b)
		assert.Zero(t, addrOf(b)%16)
	}
}

func TestPoolAllocator_Misuse(t *testing.T) {
	p := NewPool(NewHeap(), 2, 16, 8)

	f := fatal.Catch(func() { p.Allocate(8, 8) })
	require.NotNil(t, f)
	assert.Contains(t, f.Msg, "Size must match block size")

	f = fatal.Catch(func() { p.Allocate(16, 4) })
	require.NotNil(t, f)
	assert.Contains(t, f.Msg, "Align must match block align")

	f = fatal.Catch(func() { p.Deallocate(make([]byte, 16)) })
	require.NotNil(t, f)
	assert.Equal(t, "Did not allocate", f.Msg)

	b := p.Allocate(16, 8)
	f = fatal.Catch(func() { p.Deallocate(b[1:]) })
	require.NotNil(t, f)
	assert.Contains(t, f.Msg, "is not a block of this pool")

	f = fatal.Catch(func() { NewPool(NewHeap(), 0, 16, 8) })
	require.NotNil(t, f)
	f = fatal.Catch(func() { NewPool(NewHeap(), 2, 16, 3) })
	require.NotNil(t, f)
}

func TestPoolAllocator_Sizes(t *testing.T) {
	p := NewPool(NewHeap(), 2, 24, 8)
	b := p.Allocate(24, 8)
	assert.Equal(t, uint32(24), p.AllocatedSize(b))
	assert.Equal(t, SizeNotTracked, p.AllocatedSize(nil))
	assert.Equal(t, uint32(24), p.BlockSize())
	assert.Equal(t, uint32(8), p.BlockAlign())
	assert.Equal(t, uint32(2), p.NumBlocks())
}
