// Package memory provides the allocator framework of the engine core.
//
// # Overview
//
// Every subsystem obtains memory through the Allocator interface and never
// from the runtime directly. Allocators hand out byte slices carved from
// memory they own; containers in core/container receive an Allocator at
// construction time and return everything they took before Close returns.
//
// # Allocator Interface
//
//   - Allocate(size, align): returns size bytes aligned to align, or nil
//   - Deallocate(p): releases an allocation; nil is a no-op
//   - AllocatedSize(p): usable size of a live allocation, or SizeNotTracked
//   - TotalAllocated(): bytes currently outstanding, or SizeNotTracked
//
// A nil return from Allocate means out of memory and must be checked by the
// caller. Discipline violations (LIFO order on a stack, mismatched pool
// requests, leaks at Close) are programmer errors and fail loudly through
// internal/fatal instead of returning errors.
//
// # Implementations
//
// HeapAllocator: root allocator over the Go heap
//
//   - Tracks every live allocation and its size
//   - Safe for concurrent use (process-wide default)
//
// PageAllocator: root allocator over OS pages
//
//   - Whole-page mappings outside the Go heap (mmap / VirtualAlloc)
//   - Intended as backing for large arenas
//
// LinearAllocator: bump pointer over one block
//
//   - O(1) Allocate, no individual frees, O(1) Clear
//   - Over-allocates size+align per request
//
// StackAllocator: LIFO allocation over one block
//
//   - 8-byte header {offset, allocation id} before every allocation
//   - Deallocate must present the most recent allocation
//
// PoolAllocator: fixed-size blocks
//
//   - Intrusive free list threaded through free slots
//   - Exhaustion and heterogeneous requests are fatal
//
// ProxyAllocator: named decorator
//
//   - Forwards to a backing allocator
//   - Reports allocate/deallocate events to a Tracker
//
// # Usage Example
//
//	heap := memory.NewHeap()
//	defer heap.Close()
//
//	scratch := memory.NewLinear(heap, 64<<10)
//	defer scratch.Close()
//
//	p := scratch.Allocate(256, 16)
//	if p == nil {
//	    return memory.ErrOutOfMemory
//	}
//	// use p...
//	scratch.Clear()
//
// # Typed Memory
//
// Block[T] and Pair[A, B] view allocator memory as typed arrays. Types
// without Go pointers are placed directly in the allocator's bytes. Types
// holding pointers must stay visible to the garbage collector, so their
// elements live in an ordinary slice while an allocation of the same size is
// still taken from (and returned to) the allocator. Budgets enforced by the
// allocator therefore apply either way.
//
// Values that need an allocator declare it by implementing AllocatorAware;
// values owning resources implement Destroyer. Construct and Destruct apply
// both contracts uniformly.
//
// # Thread Safety
//
// Linear, Stack, Pool and Proxy allocators are not thread-safe. Callers must
// synchronize access externally. HeapAllocator and PageAllocator guard their
// bookkeeping with a mutex.
package memory
