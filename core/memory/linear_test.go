package memory

import (
	"testing"

	"github.com/joshuapare/corekit/internal/fatal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearAllocator_FillAndExhaust(t *testing.T) {
	l := NewLinearFromBuffer(make([]byte, 64))

	// Every request reserves size+align bytes, so 4 x (8+8) fills 64 bytes.
	var blocks [][]byte
	for range 4 {
		p := l.Allocate(8, 8)
		require.NotNil(t, p)
		require.Len(t, p, 8)
		assert.Zero(t, addrOf(p)%8)
		blocks = append(blocks, p)
	}
	assert.Equal(t, uint32(64), l.TotalAllocated())
	assert.Nil(t, l.Allocate(1, 1), "exhausted allocator returns nil")

	for i := 1; i < len(blocks); i++ {
		assert.Greater(t, addrOf(blocks[i]), addrOf(blocks[i-1])+7, "allocations must not overlap")
	}
}

func TestLinearAllocator_ClearReleasesEverything(t *testing.T) {
	l := NewLinearFromBuffer(make([]byte, 128))

	first := l.Allocate(32, 4)
	require.NotNil(t, first)
	l.Allocate(32, 4)
	l.Deallocate(first) // no-op
	assert.Equal(t, uint32(72), l.Offset())

	l.Clear()
	assert.Zero(t, l.TotalAllocated())

	again := l.Allocate(32, 4)
	require.NotNil(t, again)
	assert.Equal(t, addrOf(first), addrOf(again), "cleared allocator starts over")
	l.Clear()
	l.Close()
}

func TestLinearAllocator_Sizes(t *testing.T) {
	l := NewLinearFromBuffer(make([]byte, 32))
	p := l.Allocate(4, 0)
	require.NotNil(t, p)
	assert.Equal(t, SizeNotTracked, l.AllocatedSize(p))
	assert.Equal(t, uint32(8), l.TotalAllocated(), "default alignment is reserved too")
	assert.Equal(t, uint32(32), l.Size())
	l.Clear()
}

func TestLinearAllocator_CloseWithoutClear(t *testing.T) {
	h := NewHeap()
	l := NewLinear(h, 256)
	l.Allocate(10, 2)

	f := fatal.Catch(l.Close)
	require.NotNil(t, f)
	assert.Equal(t, "Memory leak of 12 bytes, maybe you forgot to call Clear()?", f.Msg)

	// The backing block was still returned.
	assert.Zero(t, h.NumAllocations())
}

func TestLinearAllocator_BadAlignment(t *testing.T) {
	l := NewLinearFromBuffer(make([]byte, 32))
	f := fatal.Catch(func() { l.Allocate(4, 3) })
	require.NotNil(t, f)
	assert.Contains(t, f.Msg, "power of two")
}
