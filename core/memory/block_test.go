package memory

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type vec3 struct{ X, Y, Z float32 }

type withPointer struct {
	ID   uint32
	Name string
}

type awareValue struct {
	alloc     Allocator
	destroyed *int
}

func (v *awareValue) InitAllocator(a Allocator) { v.alloc = a }

func (v *awareValue) Destroy() {
	if v.destroyed != nil {
		*v.destroyed++
	}
}

func TestPointerFree(t *testing.T) {
	assert.True(t, PointerFree[uint64]())
	assert.True(t, PointerFree[vec3]())
	assert.True(t, PointerFree[[4]int16]())
	assert.True(t, PointerFree[struct{}]())

	assert.False(t, PointerFree[string]())
	assert.False(t, PointerFree[*int]())
	assert.False(t, PointerFree[[]byte]())
	assert.False(t, PointerFree[withPointer]())
	assert.False(t, PointerFree[map[int]int]())
	assert.False(t, PointerFree[any]())

	// Cached path.
	assert.True(t, PointerFree[vec3]())
}

func TestAllocBlock_PointerFreeLivesInAllocatorMemory(t *testing.T) {
	h := NewHeap()
	b, err := AllocBlock[uint64](h, 10)
	require.NoError(t, err)
	require.Equal(t, 10, b.Len())
	assert.Equal(t, uint32(80), h.TotalAllocated())

	items := b.Items()
	for i := range items {
		assert.Zero(t, items[i])
		items[i] = uint64(i * i)
	}
	assert.Equal(t, addrOf(b.raw), uintptr(unsafe.Pointer(&items[0])))
	assert.Equal(t, uint64(81), items[9])

	b.Free(h)
	assert.Nil(t, b.Items())
	h.Close()
}

func TestAllocBlock_PointerBearingStillCharged(t *testing.T) {
	h := NewHeap()
	b, err := AllocBlock[withPointer](h, 4)
	require.NoError(t, err)

	var zero withPointer
	assert.Equal(t, uint32(4*unsafe.Sizeof(zero)), h.TotalAllocated())
	b.Items()[2].Name = "kept alive by the GC"
	assert.Equal(t, "kept alive by the GC", b.Items()[2].Name)

	b.Free(h)
	h.Close()
}

func TestAllocBlock_Failures(t *testing.T) {
	l := NewLinearFromBuffer(make([]byte, 16))
	_, err := AllocBlock[uint64](l, 10)
	assert.ErrorIs(t, err, ErrOutOfMemory)

	_, err = AllocBlock[[1 << 16]byte](l, 1<<17)
	assert.ErrorIs(t, err, ErrBadSize)

	empty, err := AllocBlock[uint64](l, 0)
	require.NoError(t, err)
	assert.Zero(t, empty.Len())
	assert.Zero(t, l.TotalAllocated())
}

func TestAllocPair_Layout(t *testing.T) {
	h := NewHeap()
	p, err := AllocPair[uint32, uint64](h, 5)
	require.NoError(t, err)

	require.Len(t, p.First(), 5)
	require.Len(t, p.Second(), 5)
	assert.Zero(t, uintptr(unsafe.Pointer(&p.Second()[0]))%8)

	for i := range 5 {
		p.First()[i] = uint32(i)
		p.Second()[i] = ^uint64(0)
	}
	for i := range 5 {
		assert.Equal(t, uint32(i), p.First()[i], "arrays must not overlap")
	}

	assert.Equal(t, 5*4+5*8+8, p.Size())
	assert.Equal(t, uint32(p.Size()), h.TotalAllocated(), "one allocation for both arrays")

	p.Free(h)
	h.Close()
}

func TestConstructDestruct(t *testing.T) {
	h := NewHeap()
	count := 0

	v := awareValue{destroyed: &count}
	Construct(&v, h)
	assert.Equal(t, Allocator(h), v.alloc)
	assert.Nil(t, v.destroyed, "Construct zeroes the value")

	v.destroyed = &count
	Destruct(&v)
	assert.Equal(t, 1, count)
	assert.Nil(t, v.alloc)

	n := 42
	Destruct(&n)
	assert.Zero(t, n)
}

func TestNewDelete(t *testing.T) {
	s := NewStackFromBuffer(make([]byte, 128))

	v := New[vec3](s)
	require.NotNil(t, v)
	v.X, v.Y, v.Z = 1, 2, 3
	assert.Equal(t, uint32(1), s.AllocationCount())

	Delete(s, v)
	assert.Zero(t, s.AllocationCount())
	Delete[vec3](s, nil)

	assert.Nil(t, New[[256]byte](NewLinearFromBuffer(make([]byte, 16))))
}
