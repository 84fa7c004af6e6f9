// Package workload describes scripted pool workloads in YAML and replays them
// against the pool engine.
//
// A workload names one pool configuration and a list of steps:
//
//	name: reuse-after-free
//	pool:
//	  object_size: 16
//	  initial_count: 4
//	  mode: doubling-individual
//	steps:
//	  - alloc: 9
//	  - free: [2, 6]
//	  - alloc: 1
//	  - expect: {max_objects: 16, active_objects: 8}
//
// Objects are numbered in allocation order starting at 0; free refers to those
// numbers.
package workload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/joshuapare/opalloc/pool"
)

var (
	// ErrInvalidWorkload indicates a malformed workload document.
	ErrInvalidWorkload = errors.New("workload: invalid workload")

	// ErrExpectation indicates an expect step that did not hold.
	ErrExpectation = errors.New("workload: expectation failed")
)

// Workload is one scripted run.
type Workload struct {
	Name  string   `yaml:"name"`
	Pool  PoolSpec `yaml:"pool"`
	Steps []Step   `yaml:"steps"`
}

// PoolSpec holds the arguments for pool.New.
type PoolSpec struct {
	ObjectSize   int       `yaml:"object_size"`
	InitialCount int       `yaml:"initial_count"`
	Mode         pool.Mode `yaml:"mode"`
	MaxObjects   int       `yaml:"max_objects,omitempty"`
}

// Step is a single action. Exactly one field must be set.
type Step struct {
	Alloc  int     `yaml:"alloc,omitempty"`  // allocate this many objects
	Free   []int   `yaml:"free,omitempty"`   // free objects by allocation number
	Fill   *byte   `yaml:"fill,omitempty"`   // write this byte over every live payload
	Expect *Expect `yaml:"expect,omitempty"` // assert on pool stats
}

// Expect lists the stats an expect step checks. Unset fields are ignored.
type Expect struct {
	MaxObjects    *int `yaml:"max_objects,omitempty"`
	ActiveObjects *int `yaml:"active_objects,omitempty"`
	GrowCalls     *int `yaml:"grow_calls,omitempty"`
	Reused        *int `yaml:"reused,omitempty"`
}

// Kind names the action of a step.
func (s Step) Kind() string {
	switch {
	case s.Alloc > 0:
		return "alloc"
	case len(s.Free) > 0:
		return "free"
	case s.Fill != nil:
		return "fill"
	case s.Expect != nil:
		return "expect"
	default:
		return "empty"
	}
}

func (s Step) actions() int {
	n := 0
	if s.Alloc != 0 {
		n++
	}
	if len(s.Free) > 0 {
		n++
	}
	if s.Fill != nil {
		n++
	}
	if s.Expect != nil {
		n++
	}
	return n
}

// Load reads and validates a workload file.
func Load(path string) (*Workload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	w, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// Parse decodes and validates a workload document.
func Parse(data []byte) (*Workload, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads a workload document from r. Unknown keys are rejected.
func Decode(r io.Reader) (*Workload, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var w Workload
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkload, err)
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}

// Encode writes w as YAML.
func (w *Workload) Encode(out io.Writer) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(w); err != nil {
		return err
	}
	return enc.Close()
}

// Validate checks the workload's shape. Pool arguments are left to pool.New.
func (w *Workload) Validate() error {
	if len(w.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidWorkload)
	}
	allocated := 0
	for i, s := range w.Steps {
		if n := s.actions(); n != 1 {
			return fmt.Errorf("%w: step %d has %d actions, want 1", ErrInvalidWorkload, i, n)
		}
		if s.Alloc < 0 {
			return fmt.Errorf("%w: step %d allocates %d objects", ErrInvalidWorkload, i, s.Alloc)
		}
		for _, idx := range s.Free {
			if idx < 0 || idx >= allocated {
				return fmt.Errorf("%w: step %d frees object %d, only %d allocated so far",
					ErrInvalidWorkload, i, idx, allocated)
			}
		}
		allocated += s.Alloc
	}
	return nil
}
