package pool

import (
	"errors"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/opalloc/pool/backing"
)

// hookRecorder captures every report a pool makes.
type hookRecorder struct {
	mu   sync.Mutex
	locs []Location
	errs []error
}

func (r *hookRecorder) hook(loc Location, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locs = append(r.locs, loc)
	r.errs = append(r.errs, err)
}

func (r *hookRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

func (r *hookRecorder) last() (Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.errs) == 0 {
		return Location{}, nil
	}
	return r.locs[len(r.locs)-1], r.errs[len(r.errs)-1]
}

// failingStore hands out heap blocks until failAfter allocations have
// succeeded, then fails every request. It records releases.
type failingStore struct {
	failAfter int
	allocs    int
	released  [][]byte
}

var errInjected = errors.New("injected allocation failure")

func (s *failingStore) Alloc(n int) ([]byte, error) {
	if s.allocs >= s.failAfter {
		return nil, errInjected
	}
	s.allocs++
	return make([]byte, n), nil
}

func (s *failingStore) Release(b []byte) error {
	s.released = append(s.released, b)
	return nil
}

var _ backing.Store = (*failingStore)(nil)

// newTestPool creates a pool and closes it when the test ends, unless the
// test closed it already.
func newTestPool(t *testing.T, objectSize, initialCount int, mode Mode, opts ...Option) *Pool {
	t.Helper()
	p, err := New(objectSize, initialCount, mode, opts...)
	require.NoError(t, err, "New(%d, %d, %s)", objectSize, initialCount, mode)
	t.Cleanup(func() {
		if p.Open() {
			_ = p.Close()
		}
	})
	return p
}

// allocN allocates n objects and returns their refs and payloads.
func allocN(t *testing.T, p *Pool, n int) ([]Ref, [][]byte) {
	t.Helper()
	refs := make([]Ref, 0, n)
	bufs := make([][]byte, 0, n)
	for i := range n {
		ref, buf, err := p.Allocate()
		require.NoError(t, err, "Allocate %d should succeed", i)
		require.NotNil(t, buf)
		refs = append(refs, ref)
		bufs = append(bufs, buf)
	}
	return refs, bufs
}

func addr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}
