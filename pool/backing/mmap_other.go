//go:build !unix

package backing

// Mmap falls back to heap blocks where anonymous mappings are not available.
type Mmap = Heap

// NewMmap returns the heap store on this platform.
func NewMmap() Store { return Heap{} }
