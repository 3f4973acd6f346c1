// Package hashfn provides the 32-bit key hashers used by the containers in
// core/container.
//
// Integer keys go through the murmur3 finalizer, strings and byte slices
// through xxhash, and every other comparable type through the runtime's
// hash/maphash. All 64-bit results are folded to 32 bits.
package hashfn

import (
	"hash/maphash"

	"github.com/cespare/xxhash/v2"
)

var seed = maphash.MakeSeed()

// Uint32 mixes v with the murmur3 fmix32 finalizer.
func Uint32(v uint32) uint32 {
	v ^= v >> 16
	v *= 0x85ebca6b
	v ^= v >> 13
	v *= 0xc2b2ae35
	v ^= v >> 16
	return v
}

// Uint64 mixes v with the murmur3 fmix64 finalizer and folds the result.
func Uint64(v uint64) uint32 {
	v ^= v >> 33
	v *= 0xff51afd7ed558ccd
	v ^= v >> 33
	v *= 0xc4ceb9fe1a85ec53
	v ^= v >> 33
	return fold(v)
}

// Int hashes a machine int.
func Int(v int) uint32 { return Uint64(uint64(v)) }

// Int32 hashes an int32.
func Int32(v int32) uint32 { return Uint32(uint32(v)) }

// Int64 hashes an int64.
func Int64(v int64) uint32 { return Uint64(uint64(v)) }

// String hashes s with xxhash.
func String(s string) uint32 { return fold(xxhash.Sum64String(s)) }

// Bytes hashes b with xxhash.
func Bytes(b []byte) uint32 { return fold(xxhash.Sum64(b)) }

// Comparable returns a hasher for any comparable type, seeded once per
// process. Results are stable within a process only.
func Comparable[K comparable]() func(K) uint32 {
	return func(k K) uint32 {
		return fold(maphash.Comparable(seed, k))
	}
}

// For returns the specialised hasher for K when there is one, and
// Comparable otherwise. Named types (type ID uint64) take the generic path.
func For[K comparable]() func(K) uint32 {
	var zero K
	var h any
	switch any(zero).(type) {
	case int:
		h = Int
	case int32:
		h = Int32
	case int64:
		h = Int64
	case uint32:
		h = Uint32
	case uint64:
		h = Uint64
	case uint:
		h = func(v uint) uint32 { return Uint64(uint64(v)) }
	case string:
		h = String
	}
	if f, ok := h.(func(K) uint32); ok {
		return f
	}
	return Comparable[K]()
}

func fold(v uint64) uint32 {
	return uint32(v) ^ uint32(v>>32)
}
