// Package backing provides the memory stores pools draw their slot storage
// from.
//
// A Store hands out zero-filled byte blocks and takes them back. Pools never
// split or merge blocks: every block returned by Alloc is given back to
// Release exactly once, with the same slice header.
package backing

import (
	"errors"
	"fmt"
	"sync/atomic"
)

var (
	// ErrZeroSize indicates a request for an empty block.
	ErrZeroSize = errors.New("backing: block size must be positive")

	// ErrBudgetExceeded indicates a Limit store ran out of budget.
	ErrBudgetExceeded = errors.New("backing: budget exceeded")

	// ErrTooLarge indicates a request above MaxBlockSize.
	ErrTooLarge = errors.New("backing: block too large")
)

// MaxBlockSize is the largest block Heap hands out (1 TiB). Larger requests
// fail with ErrTooLarge.
const MaxBlockSize int64 = 1 << 40

// Store supplies zero-filled blocks of memory.
type Store interface {
	// Alloc returns a zero-filled block of exactly n bytes.
	Alloc(n int) ([]byte, error)

	// Release gives a block obtained from Alloc back to the store.
	Release(b []byte) error
}

// Heap allocates blocks from the Go heap. Release is a no-op; the garbage
// collector reclaims a block once the pool drops its references.
type Heap struct{}

// Alloc implements Store.
func (Heap) Alloc(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrZeroSize
	}
	if int64(n) > MaxBlockSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, n, MaxBlockSize)
	}
	return make([]byte, n), nil
}

// Release implements Store.
func (Heap) Release([]byte) error { return nil }

// Limit wraps a Store and refuses allocations once the bytes outstanding
// would exceed Budget. It models the fixed heap of a small device.
type Limit struct {
	inner  Store
	budget int64

	inUse    atomic.Int64
	allocs   atomic.Int64
	releases atomic.Int64
}

// NewLimit returns a Limit over inner with the given byte budget. A nil inner
// store means Heap.
func NewLimit(inner Store, budget int64) *Limit {
	if inner == nil {
		inner = Heap{}
	}
	return &Limit{inner: inner, budget: budget}
}

// Alloc implements Store.
func (l *Limit) Alloc(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrZeroSize
	}
	if used := l.inUse.Add(int64(n)); used > l.budget || used < 0 {
		l.inUse.Add(-int64(n))
		return nil, fmt.Errorf("%w: need %d bytes, %d of %d in use",
			ErrBudgetExceeded, n, used-int64(n), l.budget)
	}
	b, err := l.inner.Alloc(n)
	if err != nil {
		l.inUse.Add(-int64(n))
		return nil, err
	}
	l.allocs.Add(1)
	return b, nil
}

// Release implements Store.
func (l *Limit) Release(b []byte) error {
	if err := l.inner.Release(b); err != nil {
		return err
	}
	l.inUse.Add(-int64(len(b)))
	l.releases.Add(1)
	return nil
}

// InUse reports the bytes currently allocated and not yet released.
func (l *Limit) InUse() int64 { return l.inUse.Load() }

// Budget reports the configured budget in bytes.
func (l *Limit) Budget() int64 { return l.budget }

// Allocs reports how many blocks have been handed out.
func (l *Limit) Allocs() int64 { return l.allocs.Load() }

// Releases reports how many blocks have been given back.
func (l *Limit) Releases() int64 { return l.releases.Load() }

// Outstanding reports blocks handed out and not yet released.
func (l *Limit) Outstanding() int64 { return l.allocs.Load() - l.releases.Load() }

// ByName returns the store registered under name: "heap" or "mmap".
func ByName(name string) (Store, error) {
	switch name {
	case "", "heap":
		return Heap{}, nil
	case "mmap":
		return NewMmap(), nil
	default:
		return nil, fmt.Errorf("backing: unknown store %q", name)
	}
}

var (
	_ Store = Heap{}
	_ Store = (*Limit)(nil)
)
