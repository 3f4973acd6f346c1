// Package vmem reserves and releases whole pages of process memory outside
// the Go heap. Reserved pages are zeroed, readable and writable.
package vmem

import (
	"errors"
	"fmt"
)

// ErrBadSize is returned for non-positive reservation sizes.
var ErrBadSize = errors.New("vmem: size must be > 0")

// RoundUp returns size rounded up to a whole number of pages.
func RoundUp(size int) int {
	ps := PageSize()
	return (size + ps - 1) / ps * ps
}

// Reserve maps at least size bytes of fresh memory and returns it as a slice
// of exactly RoundUp(size) bytes. The memory must be returned with Release.
func Reserve(size int) ([]byte, error) {
	if size <= 0 {
		return nil, ErrBadSize
	}
	n := RoundUp(size)
	data, err := reserve(n)
	if err != nil {
		return nil, fmt.Errorf("vmem: reserve %d bytes: %w", n, err)
	}
	return data, nil
}

// Release unmaps memory obtained from Reserve. Releasing nil is a no-op.
func Release(data []byte) error {
	if data == nil {
		return nil
	}
	if err := release(data); err != nil {
		return fmt.Errorf("vmem: release: %w", err)
	}
	return nil
}
