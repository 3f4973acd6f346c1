package memory

import (
	"testing"

	"github.com/joshuapare/corekit/internal/fatal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHeapAllocator_Basic mirrors the memory self-test: 32 bytes in, at
// least 32 bytes reported, everything returned.
func TestHeapAllocator_Basic(t *testing.T) {
	h := NewHeap()

	p := h.Allocate(32, 0)
	require.NotNil(t, p)
	require.Len(t, p, 32)
	assert.GreaterOrEqual(t, h.AllocatedSize(p), uint32(32))
	assert.Equal(t, uint32(32), h.TotalAllocated())
	assert.Zero(t, addrOf(p)%uintptr(DefaultAlign))

	h.Deallocate(p)
	assert.Zero(t, h.TotalAllocated())
	assert.Nil(t, fatal.Catch(h.Close))
}

func TestHeapAllocator_Alignment(t *testing.T) {
	h := NewHeap()
	var blocks [][]byte
	for _, align := range []uint32{1, 2, 4, 8, 16, 64, 256} {
		p := h.Allocate(3, align)
		require.NotNil(t, p)
		assert.Zero(t, addrOf(p)%uintptr(align), "align %d", align)
		blocks = append(blocks, p)
	}
	for _, p := range blocks {
		h.Deallocate(p)
	}
	h.Close()
}

func TestHeapAllocator_ZeroSize(t *testing.T) {
	h := NewHeap()
	a := h.Allocate(0, 8)
	b := h.Allocate(0, 8)
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.NotEqual(t, addrOf(a), addrOf(b), "zero-size allocations must be distinct")
	assert.Equal(t, 2, h.NumAllocations())
	h.Deallocate(a)
	h.Deallocate(b)
	h.Close()
}

func TestHeapAllocator_DoubleFree(t *testing.T) {
	h := NewHeap()
	p := h.Allocate(16, 8)
	h.Deallocate(p)

	f := fatal.Catch(func() { h.Deallocate(p) })
	require.NotNil(t, f)
	assert.Contains(t, f.Msg, "double free")
}

func TestHeapAllocator_UnknownSize(t *testing.T) {
	h := NewHeap()
	assert.Equal(t, SizeNotTracked, h.AllocatedSize(nil))
	assert.Equal(t, SizeNotTracked, h.AllocatedSize(make([]byte, 4)))
	h.Deallocate(nil)
}

func TestHeapAllocator_LeakAtClose(t *testing.T) {
	h := NewHeap()
	h.Allocate(10, 4)
	h.Allocate(20, 4)

	err := h.Leaks()
	var leak *LeakError
	require.ErrorAs(t, err, &leak)
	assert.Equal(t, 2, leak.Allocations)
	assert.Equal(t, uint64(30), leak.Bytes)

	f := fatal.Catch(h.Close)
	require.NotNil(t, f)
	assert.Equal(t, "Missing 2 deallocations causing a leak of 30 bytes", f.Msg)
}
