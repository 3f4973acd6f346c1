package memory

import (
	"testing"

	"github.com/joshuapare/corekit/internal/fatal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackerEvent struct {
	alloc bool
	tag   string
	size  uint32
}

type recordingTracker struct {
	events []trackerEvent
}

func (r *recordingTracker) OnAllocate(tag string, size uint32) {
	r.events = append(r.events, trackerEvent{true, tag, size})
}

func (r *recordingTracker) OnDeallocate(tag string, size uint32) {
	r.events = append(r.events, trackerEvent{false, tag, size})
}

func TestProxyAllocator_ReportsEvents(t *testing.T) {
	h := NewHeap()
	rec := &recordingTracker{}
	p := NewProxy(h, "physics", WithTracker(rec))

	data := p.Allocate(32, 8)
	require.NotNil(t, data)
	assert.Equal(t, uint32(32), h.TotalAllocated(), "work is forwarded to the backing allocator")

	p.Deallocate(data)
	p.Deallocate(nil)

	assert.Equal(t, []trackerEvent{
		{true, "physics", 32},
		{false, "physics", 32},
	}, rec.events)
	h.Close()
}

func TestProxyAllocator_UntrackedSizes(t *testing.T) {
	p := NewProxy(NewHeap(), "render", WithTracker(nil))
	data := p.Allocate(8, 4)
	assert.Equal(t, SizeNotTracked, p.AllocatedSize(data))
	assert.Equal(t, SizeNotTracked, p.TotalAllocated())
	assert.Equal(t, "render", p.Name())
	p.Deallocate(data)
}

func TestProxyAllocator_ForwardsFailure(t *testing.T) {
	rec := &recordingTracker{}
	p := NewProxy(NewLinearFromBuffer(make([]byte, 8)), "tiny", WithTracker(rec))

	assert.Nil(t, p.Allocate(64, 4))
	assert.Empty(t, rec.events, "failed allocations are not reported")
}

func TestProxyAllocator_StacksOnProxy(t *testing.T) {
	h := NewHeap()
	rec := &recordingTracker{}
	outer := NewProxy(NewProxy(h, "inner", WithTracker(rec)), "outer", WithTracker(rec))

	data := outer.Allocate(16, 4)
	outer.Deallocate(data)

	require.Len(t, rec.events, 4)
	assert.Equal(t, "inner", rec.events[0].tag)
	assert.Equal(t, uint32(16), rec.events[0].size)
	assert.Equal(t, "outer", rec.events[1].tag)
	assert.Equal(t, SizeNotTracked, rec.events[1].size)
	h.Close()
}

func TestNewProxy_Validation(t *testing.T) {
	f := fatal.Catch(func() { NewProxy(NewHeap(), "") })
	require.NotNil(t, f)
	assert.Equal(t, `Name must be != ""`, f.Msg)

	f = fatal.Catch(func() { NewProxy(nil, "x") })
	require.NotNil(t, f)
}
