package memory

import (
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/joshuapare/corekit/internal/fatal"
	"github.com/joshuapare/corekit/internal/logger"
)

// GlobalOptions configures the process-wide allocators.
type GlobalOptions struct {
	// Tracker receives events from proxies created without WithTracker.
	Tracker Tracker

	// ScratchSize is the size of the default scratch arena. 0 disables it.
	ScratchSize uint32

	// PageBacking backs the scratch arena with OS pages instead of the heap.
	PageBacking bool
}

var globals struct {
	mu      sync.Mutex
	heap    *HeapAllocator
	pages   *PageAllocator
	scratch *LinearAllocator
	tracker Tracker
}

// Init constructs the process-wide allocators. It has to be called before
// Default, Pages or Scratch, and must be paired with Shutdown.
func Init(opts GlobalOptions) {
	globals.mu.Lock()
	defer globals.mu.Unlock()

	fatal.Check(globals.heap == nil, "memory.Init called twice")

	globals.heap = NewHeap()
	globals.pages = NewPageAllocator()
	globals.tracker = opts.Tracker

	if opts.ScratchSize > 0 {
		var backing Allocator = globals.heap
		if opts.PageBacking {
			backing = globals.pages
		}
		globals.scratch = NewLinear(backing, opts.ScratchSize)
	}

	logger.Debug("memory globals initialized",
		"scratch", opts.ScratchSize, "page_backing", opts.PageBacking)
}

// Shutdown tears down the allocators created by Init. Outstanding memory is
// reported as a combined error, one entry per leaking allocator, instead of
// failing on the first leak.
func Shutdown() error {
	globals.mu.Lock()
	defer globals.mu.Unlock()

	if globals.heap == nil {
		return ErrNotInitialized
	}

	var result *multierror.Error

	if s := globals.scratch; s != nil {
		if s.Offset() != 0 {
			result = multierror.Append(result, &LeakError{Allocator: "scratch", Bytes: uint64(s.Offset())})
			s.Clear()
		}
		s.Close()
	}

	if err := globals.heap.Leaks(); err != nil {
		result = multierror.Append(result, err)
	} else {
		globals.heap.Close()
	}

	if err := globals.pages.Leaks(); err != nil {
		result = multierror.Append(result, err)
	} else {
		globals.pages.Close()
	}

	globals.heap, globals.pages, globals.scratch, globals.tracker = nil, nil, nil, nil

	if err := result.ErrorOrNil(); err != nil {
		logger.Warn("memory globals leaked", "err", err)
		return err
	}
	return nil
}

// Default returns the process-wide heap allocator.
func Default() Allocator {
	globals.mu.Lock()
	defer globals.mu.Unlock()
	fatal.Check(globals.heap != nil, "%v", ErrNotInitialized)
	return globals.heap
}

// Pages returns the process-wide page allocator.
func Pages() Allocator {
	globals.mu.Lock()
	defer globals.mu.Unlock()
	fatal.Check(globals.pages != nil, "%v", ErrNotInitialized)
	return globals.pages
}

// Scratch returns the process-wide scratch arena, or nil when Init was
// called without a scratch size. Callers Clear it when their scope ends.
func Scratch() *LinearAllocator {
	globals.mu.Lock()
	defer globals.mu.Unlock()
	fatal.Check(globals.heap != nil, "%v", ErrNotInitialized)
	return globals.scratch
}

// DefaultTracker returns the tracker installed by Init, or nil.
func DefaultTracker() Tracker {
	globals.mu.Lock()
	defer globals.mu.Unlock()
	return globals.tracker
}
