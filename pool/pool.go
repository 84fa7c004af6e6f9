package pool

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"unsafe"

	"github.com/joshuapare/opalloc/pool/backing"
)

// maxDirectory bounds the number of slots a pool may track.
const maxDirectory = 1 << 30

// Ref identifies a slot in a pool's directory. A Ref stays valid until the
// object is freed or the pool is closed.
type Ref int

// Stats is a snapshot of a pool's size bookkeeping.
type Stats struct {
	ObjectSize    int `json:"object_size"`     // payload size in bytes
	MaxObjects    int `json:"maximum_objects"` // current directory capacity
	ActiveObjects int `json:"active_objects"`  // slots currently in use
}

// Counters holds running totals for instrumentation and tests.
type Counters struct {
	AllocCalls      int   `json:"alloc_calls"`      // Allocate calls on an open pool
	AllocFastPath   int   `json:"alloc_fast_path"`  // allocations served without growing
	AllocSlowPath   int   `json:"alloc_slow_path"`  // allocations that required a growth step
	Reused          int   `json:"reused"`           // freed slots handed out again
	Fresh           int   `json:"fresh"`            // slots handed out for the first time
	FreeCalls       int   `json:"free_calls"`       // successful Free/Deallocate calls
	GrowCalls       int   `json:"grow_calls"`       // successful growth steps
	ChunksAllocated int   `json:"chunks_allocated"` // grouped backing blocks reserved
	BytesReserved   int64 `json:"bytes_reserved"`   // backing bytes obtained from the store
}

// slot is one unit of backing storage plus its usage flag. used marks slots
// that have been handed out at least once, for Counters only.
type slot struct {
	data  []byte
	inUse bool
	used  bool
}

// chunk records one grouped backing block: the directory range it covers and
// the memory to give back on Close.
type chunk struct {
	off   int
	count int
	mem   []byte
}

// Pool is a fixed-size object allocator. The zero value is not usable; create
// pools with New. A nil *Pool behaves like a closed one.
type Pool struct {
	objectSize   int
	initialCount int
	maxObjects   int
	mode         Mode
	initialized  bool

	// slots is the directory. Entries are nil until backed, which only
	// happens under individual layout, and backed entries never move.
	slots  []*slot
	chunks []chunk

	store    backing.Store
	hook     ErrorHook
	limit    int
	onGrow   func(oldMax, newMax int)
	counters Counters
}

// New creates a pool of objectSize-byte payloads with room for initialCount
// objects. Chunked modes reserve the first chunk immediately.
//
// On failure nothing stays allocated and the error wraps ErrInvalidArgument
// or ErrAllocationFailed.
func New(objectSize, initialCount int, mode Mode, opts ...Option) (*Pool, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pool{
		objectSize:   objectSize,
		initialCount: initialCount,
		maxObjects:   initialCount,
		mode:         mode,
		store:        o.store,
		hook:         o.hook,
		limit:        o.maxObjects,
		onGrow:       o.onGrow,
	}

	switch {
	case objectSize <= 0:
		return nil, p.report(fmt.Errorf("%w: object size %d", ErrInvalidArgument, objectSize))
	case initialCount <= 0:
		return nil, p.report(fmt.Errorf("%w: initial count %d", ErrInvalidArgument, initialCount))
	case !mode.valid():
		return nil, p.report(fmt.Errorf("%w: unknown mode %d", ErrInvalidArgument, uint8(mode)))
	case o.maxObjects < 0 || (o.maxObjects > 0 && o.maxObjects < initialCount):
		return nil, p.report(fmt.Errorf("%w: max objects %d below initial count %d",
			ErrInvalidArgument, o.maxObjects, initialCount))
	}

	if initialCount > maxDirectory {
		return nil, p.report(fmt.Errorf("%w: initial count %d exceeds %d slots",
			ErrAllocationFailed, initialCount, maxDirectory))
	}
	p.slots = make([]*slot, initialCount)
	if mode.Chunked() {
		c, entries, err := p.newChunk(0, initialCount)
		if err != nil {
			return nil, p.report(fmt.Errorf("%w: initial chunk of %d objects: %w",
				ErrAllocationFailed, initialCount, err))
		}
		p.attach(c, entries)
	}
	p.initialized = true

	poolLog.Debug("pool created",
		slog.Int("object_size", objectSize),
		slog.Int("initial_count", initialCount),
		slog.String("mode", mode.String()))
	return p, nil
}

// Allocate hands out a zeroed payload. Freed slots are reused, lowest index
// first, before the pool grows.
func (p *Pool) Allocate() (Ref, []byte, error) {
	if p == nil || !p.initialized {
		return 0, nil, p.report(ErrInvalidHandle)
	}
	p.counters.AllocCalls++

	ref, buf, err := p.claim()
	if err != nil {
		return 0, nil, p.report(fmt.Errorf("%w: %w", ErrAllocationFailed, err))
	}
	if buf != nil {
		p.counters.AllocFastPath++
		return ref, buf, nil
	}

	if err := p.grow(); err != nil {
		return 0, nil, p.report(fmt.Errorf("%w: grow: %w", ErrAllocationFailed, err))
	}

	// A successful grow always leaves at least one fresh slot.
	ref, buf, err = p.claim()
	if err != nil {
		return 0, nil, p.report(fmt.Errorf("%w: %w", ErrAllocationFailed, err))
	}
	if buf == nil {
		return 0, nil, p.report(fmt.Errorf("%w: no slot after grow", ErrAllocationFailed))
	}
	p.counters.AllocSlowPath++
	return ref, buf, nil
}

// claim scans the directory from index 0 and takes the first slot that is
// either free or not yet backed. It returns a nil payload when every slot is
// in use.
func (p *Pool) claim() (Ref, []byte, error) {
	for i, s := range p.slots {
		if s == nil {
			mem, err := p.store.Alloc(p.objectSize)
			if err != nil {
				return 0, nil, fmt.Errorf("slot %d: %w", i, err)
			}
			p.slots[i] = &slot{data: mem[:p.objectSize:p.objectSize], inUse: true, used: true}
			p.counters.Fresh++
			p.counters.BytesReserved += int64(len(mem))
			return Ref(i), p.slots[i].data, nil
		}
		if !s.inUse {
			clear(s.data)
			s.inUse = true
			if s.used {
				p.counters.Reused++
			} else {
				s.used = true
				p.counters.Fresh++
			}
			return Ref(i), s.data, nil
		}
	}
	return 0, nil, nil
}

// Free releases the object at ref for reuse. Its storage stays reserved.
func (p *Pool) Free(ref Ref) error {
	if p == nil || !p.initialized {
		return p.report(ErrInvalidHandle)
	}
	i := int(ref)
	if i < 0 || i >= len(p.slots) || p.slots[i] == nil || !p.slots[i].inUse {
		return p.report(fmt.Errorf("%w: %d", ErrBadRef, ref))
	}
	p.slots[i].inUse = false
	p.counters.FreeCalls++
	return nil
}

// Deallocate releases the object whose payload starts at obj[0]. It scans the
// directory; prefer Free when the Ref is at hand.
func (p *Pool) Deallocate(obj []byte) error {
	if p == nil || len(obj) == 0 {
		return p.report(fmt.Errorf("%w: nil pool or empty object", ErrInvalidArgument))
	}
	if !p.initialized {
		return p.report(ErrInvalidHandle)
	}
	ref, ok := p.lookup(obj)
	if !ok || !p.slots[ref].inUse {
		return p.report(fmt.Errorf("%w: %p", ErrUnknownObject, unsafe.SliceData(obj)))
	}
	p.slots[ref].inUse = false
	p.counters.FreeCalls++
	return nil
}

// lookup finds the slot whose payload begins at the same address as obj.
func (p *Pool) lookup(obj []byte) (Ref, bool) {
	addr := unsafe.SliceData(obj)
	for i, s := range p.slots {
		if s == nil {
			break
		}
		if unsafe.SliceData(s.data) == addr {
			return Ref(i), true
		}
	}
	return 0, false
}

// RefOf returns the reference of the live object whose payload starts at obj[0].
func (p *Pool) RefOf(obj []byte) (Ref, bool) {
	if p == nil || !p.initialized || len(obj) == 0 {
		return 0, false
	}
	ref, ok := p.lookup(obj)
	if !ok || !p.slots[ref].inUse {
		return 0, false
	}
	return ref, true
}

// Get returns the payload of the live object at ref.
func (p *Pool) Get(ref Ref) ([]byte, error) {
	if p == nil || !p.initialized {
		return nil, p.report(ErrInvalidHandle)
	}
	i := int(ref)
	if i < 0 || i >= len(p.slots) || p.slots[i] == nil || !p.slots[i].inUse {
		return nil, p.report(fmt.Errorf("%w: %d", ErrBadRef, ref))
	}
	return p.slots[i].data, nil
}

// grow extends the directory by one increment: initialCount for linear pools,
// the current capacity for doubling pools. Chunked pools reserve the new range
// as one block first, so any failure leaves the pool untouched.
func (p *Pool) grow() error {
	old := p.maxObjects
	inc := old
	if p.mode.Linear() {
		inc = p.initialCount
	}
	next := old + inc
	if next < old || next > maxDirectory {
		return fmt.Errorf("capacity %d+%d exceeds %d slots", old, inc, maxDirectory)
	}
	if p.limit > 0 && next > p.limit {
		return fmt.Errorf("capacity %d would exceed limit %d", next, p.limit)
	}

	var (
		c       chunk
		entries []slot
	)
	if p.mode.Chunked() {
		var err error
		c, entries, err = p.newChunk(old, inc)
		if err != nil {
			return fmt.Errorf("chunk of %d objects at %d: %w", inc, old, err)
		}
	}

	slots := make([]*slot, next)
	copy(slots, p.slots)
	p.slots = slots
	p.maxObjects = next
	if p.mode.Chunked() {
		p.attach(c, entries)
	}
	p.counters.GrowCalls++

	poolLog.Debug("pool grown",
		slog.String("mode", p.mode.String()),
		slog.Int("old", old),
		slog.Int("new", next))
	if p.onGrow != nil {
		p.onGrow(old, next)
	}
	return nil
}

// newChunk reserves count slots as one block of exactly count*objectSize bytes.
func (p *Pool) newChunk(off, count int) (chunk, []slot, error) {
	if count > math.MaxInt/p.objectSize {
		return chunk{}, nil, fmt.Errorf("%d objects of %d bytes overflow a block", count, p.objectSize)
	}
	mem, err := p.store.Alloc(count * p.objectSize)
	if err != nil {
		return chunk{}, nil, err
	}
	entries := make([]slot, count)
	for i := range entries {
		lo := i * p.objectSize
		hi := lo + p.objectSize
		entries[i].data = mem[lo:hi:hi]
	}
	return chunk{off: off, count: count, mem: mem}, entries, nil
}

// attach publishes a reserved chunk into the directory.
func (p *Pool) attach(c chunk, entries []slot) {
	for i := range entries {
		p.slots[c.off+i] = &entries[i]
	}
	p.chunks = append(p.chunks, c)
	p.counters.ChunksAllocated++
	p.counters.BytesReserved += int64(len(c.mem))
}

// Close releases every block the pool reserved and invalidates it. Chunked
// pools release their chunks at the group boundaries their growth policy
// produced. Calling Close again reports ErrInvalidHandle.
func (p *Pool) Close() error {
	if p == nil || !p.initialized {
		return p.report(ErrInvalidHandle)
	}
	p.initialized = false

	var errs []error
	if p.mode.Chunked() {
		starts := chunkStarts(p.mode, p.initialCount, p.maxObjects)
		if len(starts) != len(p.chunks) {
			errs = append(errs, fmt.Errorf("%d chunks recorded, %d expected", len(p.chunks), len(starts)))
		}
		for i, c := range p.chunks {
			if i < len(starts) && c.off != starts[i] {
				errs = append(errs, fmt.Errorf("chunk %d starts at %d, expected %d", i, c.off, starts[i]))
			}
			if err := p.store.Release(c.mem); err != nil {
				errs = append(errs, fmt.Errorf("chunk at %d: %w", c.off, err))
			}
		}
	} else {
		for i, s := range p.slots {
			if s == nil {
				continue
			}
			if err := p.store.Release(s.data); err != nil {
				errs = append(errs, fmt.Errorf("slot %d: %w", i, err))
			}
		}
	}

	poolLog.Debug("pool closed",
		slog.String("mode", p.mode.String()),
		slog.Int("max_objects", p.maxObjects),
		slog.Int("chunks", len(p.chunks)))

	p.slots, p.chunks = nil, nil
	if len(errs) > 0 {
		return p.report(fmt.Errorf("%w: %w", ErrReleaseFailed, errors.Join(errs...)))
	}
	return nil
}

// Stats returns the pool's bookkeeping. Nil and closed pools yield zero Stats.
func (p *Pool) Stats() Stats {
	if p == nil || !p.initialized {
		return Stats{}
	}
	active := 0
	for _, s := range p.slots {
		if s == nil {
			break
		}
		if s.inUse {
			active++
		}
	}
	return Stats{
		ObjectSize:    p.objectSize,
		MaxObjects:    p.maxObjects,
		ActiveObjects: active,
	}
}

// Counters returns the pool's running totals.
func (p *Pool) Counters() Counters {
	if p == nil {
		return Counters{}
	}
	return p.counters
}

// Mode returns the pool's growth and layout mode.
func (p *Pool) Mode() Mode {
	if p == nil {
		return 0
	}
	return p.mode
}

// Open reports whether the pool can still be used.
func (p *Pool) Open() bool { return p != nil && p.initialized }
