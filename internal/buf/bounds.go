package buf

import (
	"fmt"
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulOverflowSafe multiplies two non-negative ints, returning ok = false on
// overflow or when either operand is negative.
func MulOverflowSafe(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

// ArraySize returns count*elemSize, or an error when the product overflows
// or does not fit the uint32 sizes allocators deal in.
//
//	n, err := buf.ArraySize(capacity, int(unsafe.Sizeof(slot{})))
//	if err != nil {
//	    return fmt.Errorf("rehash: %w", err)
//	}
func ArraySize(count, elemSize int) (uint32, error) {
	if count < 0 {
		return 0, fmt.Errorf("negative count: %d", count)
	}
	if elemSize < 0 {
		return 0, fmt.Errorf("negative element size: %d", elemSize)
	}
	total, ok := MulOverflowSafe(count, elemSize)
	if !ok || total > math.MaxUint32 {
		return 0, fmt.Errorf("overflow: count=%d * elemSize=%d", count, elemSize)
	}
	return uint32(total), nil
}

// AddSizes sums allocation sizes, failing when the result exceeds uint32.
func AddSizes(sizes ...uint32) (uint32, error) {
	var total uint64
	for _, s := range sizes {
		total += uint64(s)
	}
	if total > math.MaxUint32 {
		return 0, fmt.Errorf("overflow: total size %d exceeds 4GiB", total)
	}
	return uint32(total), nil
}

// Slice returns the sub-slice [off:off+n:off+n] if it fits within len(b).
// The capacity is clipped so appends cannot spill into neighbouring bytes.
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end:end], true
}
