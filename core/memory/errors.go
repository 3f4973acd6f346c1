package memory

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfMemory indicates the allocator could not satisfy a request.
	ErrOutOfMemory = errors.New("memory: out of memory")

	// ErrBadSize indicates a request whose byte size cannot be represented.
	ErrBadSize = errors.New("memory: bad allocation size")

	// ErrNotInitialized indicates the process-wide allocators were used before Init.
	ErrNotInitialized = errors.New("memory: globals not initialized")
)

// LeakError reports allocations still outstanding when an allocator is torn down.
type LeakError struct {
	Allocator   string // Name of the leaking allocator
	Allocations int    // Outstanding allocations (0 when not counted)
	Bytes       uint64 // Outstanding bytes
}

func (e *LeakError) Error() string {
	if e.Allocations == 0 {
		return fmt.Sprintf("memory: %s leaked %d bytes", e.Allocator, e.Bytes)
	}
	return fmt.Sprintf("memory: %s missing %d deallocations causing a leak of %d bytes",
		e.Allocator, e.Allocations, e.Bytes)
}
