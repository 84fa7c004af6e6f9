//go:build unix

package backing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestMmap_AllocRelease(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping mmap test in short mode")
	}
	s := NewMmap()
	b, err := s.Alloc(3 * 4096)
	require.NoError(t, err)
	require.Len(t, b, 3*4096)

	b[0], b[len(b)-1] = 0xde, 0xad
	assert.Equal(t, byte(0xde), b[0])
	assert.Zero(t, b[1])

	require.NoError(t, s.Release(b))
	require.ErrorIs(t, s.Release(b), unix.EINVAL, "a block is released once")
}

func TestMmap_ReleaseForeignBlock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping mmap test in short mode")
	}
	err := NewMmap().Release(make([]byte, 4096))
	require.ErrorIs(t, err, unix.EINVAL)
	assert.Contains(t, err.Error(), "backing: munmap 4096 bytes")
}
