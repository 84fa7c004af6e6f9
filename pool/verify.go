package pool

import (
	"errors"
	"fmt"
)

// SlotState describes one directory entry.
type SlotState uint8

const (
	SlotUnallocated SlotState = iota // no backing storage yet
	SlotFree                         // backed, available for reuse
	SlotInUse                        // backed, handed out
)

func (s SlotState) String() string {
	switch s {
	case SlotUnallocated:
		return "unallocated"
	case SlotFree:
		return "free"
	case SlotInUse:
		return "in use"
	default:
		return fmt.Sprintf("SlotState(%d)", uint8(s))
	}
}

// Slots returns the state of every directory entry, in index order. Nil and
// closed pools return nil.
func (p *Pool) Slots() []SlotState {
	if p == nil || !p.initialized {
		return nil
	}
	out := make([]SlotState, len(p.slots))
	for i, s := range p.slots {
		switch {
		case s == nil:
			out[i] = SlotUnallocated
		case s.inUse:
			out[i] = SlotInUse
		default:
			out[i] = SlotFree
		}
	}
	return out
}

// Validate checks the pool's structural invariants: directory length, the
// no-gap rule of individual layout, and chunk boundaries and sizes matching the
// growth policy. All violations are reported together, wrapped in ErrCorrupt.
func (p *Pool) Validate() error {
	if p == nil || !p.initialized {
		return p.report(ErrInvalidHandle)
	}

	var errs []error
	if len(p.slots) != p.maxObjects {
		errs = append(errs, fmt.Errorf("directory has %d slots, capacity is %d", len(p.slots), p.maxObjects))
	}

	gap := -1
	for i, s := range p.slots {
		if s == nil {
			if gap < 0 {
				gap = i
			}
			continue
		}
		if gap >= 0 {
			errs = append(errs, fmt.Errorf("slot %d is backed after unallocated slot %d", i, gap))
			gap = -1
		}
		if len(s.data) != p.objectSize {
			errs = append(errs, fmt.Errorf("slot %d payload is %d bytes, want %d", i, len(s.data), p.objectSize))
		}
	}

	if p.mode.Chunked() {
		errs = append(errs, p.validateChunks()...)
	} else if len(p.chunks) != 0 {
		errs = append(errs, fmt.Errorf("individual layout holds %d chunks", len(p.chunks)))
	}

	if len(errs) > 0 {
		return p.report(fmt.Errorf("%w: %w", ErrCorrupt, errors.Join(errs...)))
	}
	return nil
}

func (p *Pool) validateChunks() []error {
	var errs []error
	starts := chunkStarts(p.mode, p.initialCount, p.maxObjects)
	if len(starts) != len(p.chunks) {
		errs = append(errs, fmt.Errorf("%d chunks recorded, growth policy implies %d", len(p.chunks), len(starts)))
	}
	for i, c := range p.chunks {
		if i >= len(starts) {
			break
		}
		if c.off != starts[i] {
			errs = append(errs, fmt.Errorf("chunk %d starts at %d, want %d", i, c.off, starts[i]))
			continue
		}
		if span := chunkSpan(starts, i, p.maxObjects); c.count != span {
			errs = append(errs, fmt.Errorf("chunk %d covers %d slots, want %d", i, c.count, span))
		}
		if want := c.count * p.objectSize; len(c.mem) != want {
			errs = append(errs, fmt.Errorf("chunk %d is %d bytes, want %d", i, len(c.mem), want))
		}
	}
	for i, s := range p.slots {
		if s == nil {
			errs = append(errs, fmt.Errorf("chunked layout has unallocated slot %d", i))
		}
	}
	return errs
}
