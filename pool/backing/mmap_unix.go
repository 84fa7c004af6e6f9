//go:build unix

package backing

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Mmap allocates every block as its own private anonymous mapping. Released
// blocks go straight back to the kernel, so a pool's footprint shrinks to zero
// on Close regardless of the Go heap.
type Mmap struct{}

// NewMmap returns an anonymous-mapping store.
func NewMmap() Store { return Mmap{} }

// Alloc implements Store.
func (Mmap) Alloc(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrZeroSize
	}
	b, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("backing: mmap %d bytes: %w", n, err)
	}
	return b, nil
}

// Release implements Store.
func (Mmap) Release(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if err := unix.Munmap(b); err != nil {
		return fmt.Errorf("backing: munmap %d bytes: %w", len(b), err)
	}
	return nil
}
