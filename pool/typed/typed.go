// Package typed layers a type-safe pool over the byte-oriented pool engine.
//
// A Pool[T] sizes its engine from T and creates it lazily on the first Alloc,
// so a package-level pool needs no explicit initialization:
//
//	var particles = typed.MustNew[Particle](64, pool.LinearChunk)
//
//	p, err := particles.Alloc()
//	...
//	err = particles.Free(p)
//
// T must not contain Go pointers (strings, slices, maps, interfaces, pointers):
// pool storage may live outside the Go heap and is never scanned by the
// garbage collector.
package typed

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/joshuapare/opalloc/pool"
)

// Pool hands out zeroed *T values from a pool engine.
type Pool[T any] struct {
	size         int
	initialCount int
	mode         pool.Mode
	opts         []pool.Option

	engine *pool.Pool
	closed bool
}

// New returns a lazily-initialized pool for T. The engine is created on the
// first Alloc with the given initial count, mode and options.
func New[T any](initialCount int, mode pool.Mode, opts ...pool.Option) (*Pool[T], error) {
	typ := reflect.TypeFor[T]()
	size := int(typ.Size())
	if size == 0 {
		return nil, fmt.Errorf("%w: %s has zero size", pool.ErrInvalidArgument, typ)
	}
	if hasPointers(typ) {
		return nil, fmt.Errorf("%w: %s contains pointers", pool.ErrInvalidArgument, typ)
	}
	return &Pool[T]{
		size:         size,
		initialCount: initialCount,
		mode:         mode,
		opts:         opts,
	}, nil
}

// MustNew is like New but panics if T cannot be pooled. Intended for
// package-level variables.
func MustNew[T any](initialCount int, mode pool.Mode, opts ...pool.Option) *Pool[T] {
	p, err := New[T](initialCount, mode, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Init creates the engine now instead of on first use.
func (p *Pool[T]) Init() error {
	if p.engine != nil || p.closed {
		return nil
	}
	e, err := pool.New(p.size, p.initialCount, p.mode, p.opts...)
	if err != nil {
		return err
	}
	p.engine = e
	return nil
}

// Alloc returns a pointer to a zeroed T.
func (p *Pool[T]) Alloc() (*T, error) {
	if err := p.Init(); err != nil {
		return nil, err
	}
	_, buf, err := p.engine.Allocate()
	if err != nil {
		return nil, err
	}
	return (*T)(unsafe.Pointer(unsafe.SliceData(buf))), nil
}

// Free returns obj to the pool.
func (p *Pool[T]) Free(obj *T) error {
	var buf []byte
	if obj != nil {
		buf = unsafe.Slice((*byte)(unsafe.Pointer(obj)), p.size)
	}
	return p.engine.Deallocate(buf)
}

// Close releases the engine's storage. A pool that was never used closes
// without error; any use after Close reports pool.ErrInvalidHandle.
func (p *Pool[T]) Close() error {
	if p.closed {
		return p.engine.Close()
	}
	p.closed = true
	if p.engine == nil {
		return nil
	}
	return p.engine.Close()
}

// Stats returns the engine's stats, or zero Stats before first use.
func (p *Pool[T]) Stats() pool.Stats {
	return p.engine.Stats()
}

// Engine exposes the underlying pool, nil before first use.
func (p *Pool[T]) Engine() *pool.Pool {
	return p.engine
}

// hasPointers reports whether values of t hold anything the garbage collector
// must trace.
func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}
