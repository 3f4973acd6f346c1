package container

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/joshuapare/corekit/core/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashSet_Squares(t *testing.T) {
	h := memory.NewHeap()
	s := NewHashSet[int32](h)

	assert.Zero(t, s.Len())
	assert.False(t, s.Has(10))

	for i := range int32(100) {
		s.Insert(i * i)
	}
	for i := range int32(100) {
		require.True(t, s.Has(i*i))
	}
	assert.Equal(t, 100, s.Len())

	s.Remove(5 * 5)
	assert.False(t, s.Has(5*5))
	s.Remove(80 * 80)
	assert.False(t, s.Has(80*80))
	s.Remove(40 * 40)
	assert.False(t, s.Has(40*40))

	s.Clear()
	for i := range int32(100) {
		require.False(t, s.Has(i*i))
	}

	s.Close()
	h.Close()
}

func TestHashSet_InsertIsIdempotent(t *testing.T) {
	s := NewHashSet[string](memory.NewHeap())
	s.Insert("a")
	s.Insert("a")
	s.Insert("b")
	assert.Equal(t, 2, s.Len())
	s.Close()
}

func TestHashSet_All(t *testing.T) {
	s := NewHashSet[int](memory.NewHeap())
	for _, k := range []int{5, 1, 9, 3} {
		s.Insert(k)
	}
	s.Remove(9)

	keys := slices.Sorted(s.All())
	assert.Equal(t, []int{1, 3, 5}, keys)

	n := 0
	for range s.All() {
		n++
		break
	}
	assert.Equal(t, 1, n)
	s.Close()
}

func TestHashSet_GrowAndRehash(t *testing.T) {
	s := NewHashSet[uint64](memory.NewHeap())
	s.Grow()
	assert.Equal(t, 16, s.Cap())
	s.Grow()
	assert.Equal(t, 32, s.Cap())

	for i := range uint64(20) {
		s.Insert(i << 32)
	}
	s.Rehash(256)
	assert.Equal(t, 256, s.Cap())
	assert.Equal(t, 20, s.Len())
	for i := range uint64(20) {
		require.True(t, s.Has(i<<32))
	}
	s.Close()
	assert.Zero(t, s.Cap())
}

func TestHashSet_RemoveThenInsertKeepsRun(t *testing.T) {
	h := memory.NewHeap()
	s := NewHashSet[uint32](h, WithHasher(func(k uint32) uint32 { return k }))

	// 0, 16 and 32 share home slot 0 and fill slots 0..2.
	for _, k := range []uint32{0, 16, 32} {
		s.Insert(k)
	}
	require.True(t, s.Remove(16))

	// 1 is at home on the tombstone but must not take it.
	s.Insert(1)
	for _, k := range []uint32{0, 32, 1} {
		assert.True(t, s.Has(k), "key %d unreachable", k)
	}
	assert.False(t, s.Has(16))

	s.Insert(32)
	assert.Equal(t, 3, s.Len(), "re-inserting a present key is a no-op")

	s.Close()
	h.Close()
}

func TestHashSet_RandomizedChurn(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	s := NewHashSet[uint32](memory.NewHeap())
	oracle := map[uint32]bool{}

	for step := range 20000 {
		k := rng.Uint32N(256)
		if rng.IntN(2) == 0 {
			s.Insert(k)
			oracle[k] = true
		} else {
			require.Equal(t, oracle[k], s.Remove(k), "step %d key %d", step, k)
			delete(oracle, k)
		}
		require.Equal(t, len(oracle), s.Len(), "step %d", step)
	}

	for k := range oracle {
		require.True(t, s.Has(k), "key %d", k)
	}
	got := slices.Collect(s.All())
	assert.Len(t, got, len(oracle))
	s.Close()
}

func TestHashSet_EmptyNeverTouchesStorage(t *testing.T) {
	s := NewHashSet[int](memory.NewLinearFromBuffer(nil))
	assert.False(t, s.Has(1))
	assert.False(t, s.Remove(1))
	s.Clear()
	s.Close()
}
