package memory

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"

	"github.com/joshuapare/corekit/internal/buf"
	"github.com/joshuapare/corekit/internal/fatal"
)

// AllocatorAware is implemented by values that need the allocator of the
// container constructing them, e.g. a nested Array stored as a map value.
type AllocatorAware interface {
	InitAllocator(a Allocator)
}

// Destroyer is implemented by values that own resources to release when a
// container removes them.
type Destroyer interface {
	Destroy()
}

// Construct zeroes *p and hands it a when *T is AllocatorAware.
func Construct[T any](p *T, a Allocator) {
	var zero T
	*p = zero
	if aw, ok := any(p).(AllocatorAware); ok {
		aw.InitAllocator(a)
	}
}

// Destruct destroys *p when *T is a Destroyer and zeroes it.
func Destruct[T any](p *T) {
	if d, ok := any(p).(Destroyer); ok {
		d.Destroy()
	}
	var zero T
	*p = zero
}

var pointerFreeCache sync.Map // reflect.Type -> bool

// PointerFree reports whether values of T contain no Go pointers and can
// therefore be stored in allocator-owned bytes.
func PointerFree[T any]() bool {
	t := reflect.TypeFor[T]()
	if v, ok := pointerFreeCache.Load(t); ok {
		return v.(bool)
	}
	free := pointerFree(t)
	pointerFreeCache.Store(t, free)
	return free
}

func pointerFree(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return t.Len() == 0 || pointerFree(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if !pointerFree(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// carve returns n values of T laid out at raw[off:]. Pointer-bearing and
// zero-size types get a GC-visible slice instead. The result is zeroed.
func carve[T any](raw []byte, off uint32, n int) []T {
	if n == 0 {
		return nil
	}
	var zero T
	if unsafe.Sizeof(zero) == 0 || !PointerFree[T]() {
		return make([]T, n)
	}
	items := unsafe.Slice((*T)(unsafe.Pointer(&raw[off])), n)
	clear(items)
	return items
}

// Block is a typed array backed by one allocation.
type Block[T any] struct {
	raw   []byte
	items []T
}

// AllocBlock allocates room for n values of T from a. The values are zeroed.
// A zero n yields an empty Block without touching a.
func AllocBlock[T any](a Allocator, n int) (Block[T], error) {
	if n == 0 {
		return Block[T]{}, nil
	}

	var zero T
	size, err := buf.ArraySize(n, int(unsafe.Sizeof(zero)))
	if err != nil {
		return Block[T]{}, fmt.Errorf("%w: %v", ErrBadSize, err)
	}

	raw := a.Allocate(size, uint32(unsafe.Alignof(zero)))
	if raw == nil {
		return Block[T]{}, ErrOutOfMemory
	}
	return Block[T]{raw: raw, items: carve[T](raw, 0, n)}, nil
}

// Items returns the values of the block.
func (b Block[T]) Items() []T { return b.items }

// Len returns the number of values in the block.
func (b Block[T]) Len() int { return len(b.items) }

// Free returns the block's memory to a. The values are not destructed.
func (b *Block[T]) Free(a Allocator) {
	if b.raw != nil {
		a.Deallocate(b.raw)
	}
	b.raw, b.items = nil, nil
}

// Pair is a single allocation holding n values of A followed by n values
// of B, each array aligned for its type.
type Pair[A, B any] struct {
	raw    []byte
	first  []A
	second []B
}

// AllocPair allocates both arrays of n values from one block of a.
func AllocPair[A, B any](a Allocator, n int) (Pair[A, B], error) {
	if n == 0 {
		return Pair[A, B]{}, nil
	}

	var za A
	var zb B
	sizeA, err := buf.ArraySize(n, int(unsafe.Sizeof(za)))
	if err != nil {
		return Pair[A, B]{}, fmt.Errorf("%w: %v", ErrBadSize, err)
	}
	sizeB, err := buf.ArraySize(n, int(unsafe.Sizeof(zb)))
	if err != nil {
		return Pair[A, B]{}, fmt.Errorf("%w: %v", ErrBadSize, err)
	}
	alignA, alignB := uint32(unsafe.Alignof(za)), uint32(unsafe.Alignof(zb))
	size, err := buf.AddSizes(sizeA, sizeB, alignB)
	if err != nil {
		return Pair[A, B]{}, fmt.Errorf("%w: %v", ErrBadSize, err)
	}

	raw := a.Allocate(size, alignA)
	if raw == nil {
		return Pair[A, B]{}, ErrOutOfMemory
	}

	offB := AlignOffset(raw, sizeA, alignB)
	return Pair[A, B]{
		raw:    raw,
		first:  carve[A](raw, 0, n),
		second: carve[B](raw, offB, n),
	}, nil
}

// First returns the leading array.
func (p Pair[A, B]) First() []A { return p.first }

// Second returns the trailing array.
func (p Pair[A, B]) Second() []B { return p.second }

// Size returns the number of bytes taken from the allocator.
func (p Pair[A, B]) Size() int { return len(p.raw) }

// Free returns the pair's memory to a. The values are not destructed.
func (p *Pair[A, B]) Free(a Allocator) {
	if p.raw != nil {
		a.Deallocate(p.raw)
	}
	p.raw, p.first, p.second = nil, nil, nil
}

// New allocates and zeroes a single pointer-free T from a. Returns nil when
// a is out of memory.
func New[T any](a Allocator) *T {
	if !PointerFree[T]() {
		fatal.Failf("New requires a pointer-free type, got %s", reflect.TypeFor[T]())
	}
	var zero T
	raw := a.Allocate(uint32(unsafe.Sizeof(zero)), uint32(unsafe.Alignof(zero)))
	if raw == nil {
		return nil
	}
	p := (*T)(unsafe.Pointer(unsafe.SliceData(raw)))
	*p = zero
	return p
}

// Delete releases a value obtained from New. Delete(a, nil) is a no-op.
func Delete[T any](a Allocator, p *T) {
	if p == nil {
		return
	}
	Destruct(p)
	a.Deallocate(unsafe.Slice((*byte)(unsafe.Pointer(p)), unsafe.Sizeof(*p)))
}
