package workload

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/opalloc/pool"
	"github.com/joshuapare/opalloc/pool/backing"
)

func loadTestdata(t *testing.T, name string) *Workload {
	t.Helper()
	w, err := Load(filepath.Join("testdata", name))
	require.NoError(t, err, "Load(%s)", name)
	return w
}

func TestLoad(t *testing.T) {
	w := loadTestdata(t, "reuse_after_free.yaml")

	assert.Equal(t, "reuse-after-free", w.Name)
	assert.Equal(t, PoolSpec{ObjectSize: 16, InitialCount: 4, Mode: pool.DoublingIndividual}, w.Pool)
	require.Len(t, w.Steps, 5)
	assert.Equal(t, 9, w.Steps[0].Alloc)
	require.NotNil(t, w.Steps[1].Fill)
	assert.Equal(t, byte(0xAB), *w.Steps[1].Fill)
	assert.Equal(t, []int{2, 6}, w.Steps[2].Free)
	assert.Equal(t, "expect", w.Steps[4].Kind())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "name: x\npool: {object_size: 8, initial_count: 2, mode: linear-chunk}\nsteps:\n  - alloc: 1\n    grow: 2\n"},
		{"unknown mode", "name: x\npool: {object_size: 8, initial_count: 2, mode: cubic}\nsteps:\n  - alloc: 1\n"},
		{"no steps", "name: x\npool: {object_size: 8, initial_count: 2, mode: linear-chunk}\n"},
		{"two actions", "name: x\npool: {object_size: 8, initial_count: 2, mode: linear-chunk}\nsteps:\n  - {alloc: 1, free: [0]}\n"},
		{"free before alloc", "name: x\npool: {object_size: 8, initial_count: 2, mode: linear-chunk}\nsteps:\n  - free: [0]\n"},
		{"negative alloc", "name: x\npool: {object_size: 8, initial_count: 2, mode: linear-chunk}\nsteps:\n  - alloc: -3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
		})
	}
}

func TestRun_Scenarios(t *testing.T) {
	tests := []struct {
		file  string
		stats pool.Stats
	}{
		{"doubling_individual.yaml", pool.Stats{ObjectSize: 16, MaxObjects: 16, ActiveObjects: 9}},
		{"reuse_after_free.yaml", pool.Stats{ObjectSize: 16, MaxObjects: 16, ActiveObjects: 8}},
		{"linear_chunk.yaml", pool.Stats{ObjectSize: 16, MaxObjects: 12, ActiveObjects: 9}},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			w := loadTestdata(t, tt.file)
			store := backing.NewLimit(nil, 1<<20)

			res, err := Run(w, Options{Store: store})
			require.NoError(t, err)
			assert.Equal(t, tt.stats, res.Stats)
			assert.Len(t, res.Trace, len(w.Steps))
			assert.Zero(t, store.InUse(), "pool must be closed after the run")
		})
	}
}

func TestRun_ExpectationFailure(t *testing.T) {
	w, err := Parse([]byte(`
name: wrong
pool: {object_size: 8, initial_count: 2, mode: linear-individual}
steps:
  - alloc: 3
  - expect: {max_objects: 3}
`))
	require.NoError(t, err)

	res, err := Run(w, Options{})
	require.ErrorIs(t, err, ErrExpectation)
	assert.Contains(t, err.Error(), "max_objects = 4, want 3")
	require.NotNil(t, res)
	assert.Equal(t, 3, res.Stats.ActiveObjects)
}

func TestRun_CapReached(t *testing.T) {
	w := loadTestdata(t, "capped.yaml")

	var reported []error
	res, err := Run(w, Options{Hook: func(_ pool.Location, err error) { reported = append(reported, err) }})
	require.ErrorIs(t, err, pool.ErrAllocationFailed)
	assert.Contains(t, err.Error(), "step 2 (alloc)")
	assert.Len(t, reported, 1)
	assert.Equal(t, 8, res.Stats.MaxObjects)
}

func TestRun_DoubleFree(t *testing.T) {
	w, err := Parse([]byte(`
name: double-free
pool: {object_size: 8, initial_count: 2, mode: linear-chunk}
steps:
  - alloc: 2
  - free: [1]
  - free: [1]
`))
	require.NoError(t, err)

	_, err = Run(w, Options{})
	require.ErrorIs(t, err, pool.ErrUnknownObject)
}

func TestRun_FillThenReuseIsZeroed(t *testing.T) {
	w := loadTestdata(t, "reuse_after_free.yaml")

	var zeroed bool
	_, err := Run(w, Options{OnStep: func(i int, step Step, p *pool.Pool) {
		if i != 3 {
			return
		}
		// Object 2 was freed and reused by the single allocation in step 3.
		buf, err := p.Get(2)
		require.NoError(t, err)
		zeroed = bytes.Equal(buf, make([]byte, 16))
	}})
	require.NoError(t, err)
	assert.True(t, zeroed, "reused payload must be zeroed despite fill")
}

func TestRun_InspectAndLog(t *testing.T) {
	w := loadTestdata(t, "linear_chunk.yaml")

	var logBuf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	inspected := false
	_, err := Run(w, Options{Logger: log, Inspect: func(p *pool.Pool) error {
		inspected = true
		return p.Validate()
	}})
	require.NoError(t, err)
	assert.True(t, inspected)
	assert.Contains(t, logBuf.String(), "msg=\"pool grown\"")
	assert.Contains(t, logBuf.String(), "msg=\"workload finished\"")
}

func TestEncode_RoundTrip(t *testing.T) {
	w := loadTestdata(t, "linear_chunk.yaml")

	var buf bytes.Buffer
	require.NoError(t, w.Encode(&buf))
	assert.Contains(t, buf.String(), "mode: linear-chunk")

	back, err := Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, w, back)
}
