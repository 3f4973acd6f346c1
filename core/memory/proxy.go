package memory

import "github.com/joshuapare/corekit/internal/fatal"

// Tracker receives the allocation events of ProxyAllocators for memory
// accounting. size is the backing allocator's AllocatedSize and may be
// SizeNotTracked.
type Tracker interface {
	OnAllocate(tag string, size uint32)
	OnDeallocate(tag string, size uint32)
}

// ProxyAllocator tags every allocation made through it with a name and
// reports it to a Tracker, forwarding the actual work to a backing
// allocator.
type ProxyAllocator struct {
	backing Allocator
	name    string
	tracker Tracker
}

// ProxyOption configures a ProxyAllocator.
type ProxyOption func(*ProxyAllocator)

// WithTracker reports events to t instead of the process-wide tracker.
// A nil t disables reporting.
func WithTracker(t Tracker) ProxyOption {
	return func(p *ProxyAllocator) { p.tracker = t }
}

// NewProxy tags all allocations made with backing by name.
func NewProxy(backing Allocator, name string, opts ...ProxyOption) *ProxyAllocator {
	fatal.Check(name != "", "Name must be != \"\"")
	fatal.Check(backing != nil, "Backing allocator must be != nil")

	p := &ProxyAllocator{
		backing: backing,
		name:    name,
		tracker: DefaultTracker(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Allocate forwards to the backing allocator and reports the allocation.
func (p *ProxyAllocator) Allocate(size, align uint32) []byte {
	data := p.backing.Allocate(size, align)
	if data != nil && p.tracker != nil {
		p.tracker.OnAllocate(p.name, p.backing.AllocatedSize(data))
	}
	return data
}

// Deallocate reports the release and forwards it to the backing allocator.
func (p *ProxyAllocator) Deallocate(data []byte) {
	if data != nil && p.tracker != nil {
		p.tracker.OnDeallocate(p.name, p.backing.AllocatedSize(data))
	}
	p.backing.Deallocate(data)
}

// AllocatedSize is not tracked by the proxy.
func (p *ProxyAllocator) AllocatedSize([]byte) uint32 {
	return SizeNotTracked
}

// TotalAllocated is not tracked by the proxy.
func (p *ProxyAllocator) TotalAllocated() uint32 {
	return SizeNotTracked
}

// Name returns the tag of the proxy.
func (p *ProxyAllocator) Name() string {
	return p.name
}

// Backing returns the allocator the proxy forwards to.
func (p *ProxyAllocator) Backing() Allocator {
	return p.backing
}

var _ Allocator = (*ProxyAllocator)(nil)
