// Package memtrack accounts memory per ProxyAllocator tag.
//
// A Registry is installed as the memory.Tracker of the proxies to observe,
// either per proxy with memory.WithTracker or process-wide through
// memory.GlobalOptions. Its own bookkeeping lives in a HashMap backed by a
// private heap allocator, so it never reports on itself.
package memtrack

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/joshuapare/corekit/core/container"
	"github.com/joshuapare/corekit/core/hashfn"
	"github.com/joshuapare/corekit/core/memory"
	"github.com/joshuapare/corekit/core/strid"
	"github.com/joshuapare/corekit/internal/logger"
)

// Usage is the accounting of one tag.
type Usage struct {
	Name          string // Tag as first reported
	Allocations   uint64 // Allocate calls
	Deallocations uint64 // Deallocate calls
	LiveBytes     uint64 // Bytes currently held (tracked sizes only)
	PeakBytes     uint64 // High-water mark of LiveBytes
	Untracked     uint64 // Events whose size was memory.SizeNotTracked
}

// Outstanding returns the number of allocations not yet released.
func (u Usage) Outstanding() int64 {
	return int64(u.Allocations) - int64(u.Deallocations)
}

// Option configures a Registry.
type Option func(*Registry)

// WithAllocationLog logs every event at debug level.
func WithAllocationLog(enabled bool) Option {
	return func(r *Registry) { r.logAlloc = enabled }
}

// WithFoldedTags merges tags that differ only in case or Unicode
// normalization ("Physics" and "physics").
func WithFoldedTags() Option {
	return func(r *Registry) { r.idFor = strid.Canonical64 }
}

// Registry implements memory.Tracker. It is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	heap     *memory.HeapAllocator
	usage    *container.HashMap[strid.ID64, Usage]
	idFor    func(string) strid.ID64
	logAlloc bool
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	heap := memory.NewHeap()
	r := &Registry{
		heap: heap,
		usage: container.NewHashMap[strid.ID64, Usage](heap,
			container.WithHasher(func(id strid.ID64) uint32 { return hashfn.Uint64(uint64(id)) })),
		idFor: strid.Hash64,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnAllocate records an allocation of size bytes under tag.
func (r *Registry) OnAllocate(tag string, size uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.entry(tag)
	u.Allocations++
	if size == memory.SizeNotTracked {
		u.Untracked++
	} else {
		u.LiveBytes += uint64(size)
		u.PeakBytes = max(u.PeakBytes, u.LiveBytes)
	}

	if r.logAlloc {
		logger.Debug("allocate", "tag", tag, "size", size, "live", u.LiveBytes)
	}
}

// OnDeallocate records the release of size bytes under tag.
func (r *Registry) OnDeallocate(tag string, size uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.entry(tag)
	u.Deallocations++
	if size == memory.SizeNotTracked {
		u.Untracked++
	} else {
		u.LiveBytes -= min(u.LiveBytes, uint64(size))
	}

	if r.logAlloc {
		logger.Debug("deallocate", "tag", tag, "size", size, "live", u.LiveBytes)
	}
}

func (r *Registry) entry(tag string) *Usage {
	u := r.usage.Emplace(r.idFor(tag))
	if u.Name == "" {
		u.Name = tag
	}
	return u
}

// Usage returns the accounting of tag.
func (r *Registry) Usage(tag string) (Usage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.usage.Lookup(r.idFor(tag))
}

// Len returns the number of tags seen.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.usage.Len()
}

// Snapshot returns the accounting of every tag ordered by name.
func (r *Registry) Snapshot() []Usage {
	r.mu.Lock()
	defer r.mu.Unlock()

	sorted := container.NewSortMap[string, Usage](r.heap)
	b := sorted.Edit()
	for _, u := range r.usage.All() {
		b = b.Set(u.Name, u)
	}
	sorted = b.Sort()
	defer sorted.Close()

	out := make([]Usage, 0, sorted.Len())
	for _, u := range sorted.All() {
		out = append(out, u)
	}
	return out
}

// Verify reports every tag that still holds memory, one error per tag.
func (r *Registry) Verify() error {
	var result *multierror.Error
	for _, u := range r.Snapshot() {
		if u.Outstanding() != 0 || u.LiveBytes != 0 {
			result = multierror.Append(result,
				fmt.Errorf("memtrack: %s: %d allocations outstanding holding %d bytes",
					u.Name, u.Outstanding(), u.LiveBytes))
		}
	}
	return result.ErrorOrNil()
}

// Reset forgets every tag.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usage.Clear()
}

// Close releases the registry's memory.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usage.Close()
	r.heap.Close()
}

var _ memory.Tracker = (*Registry)(nil)
