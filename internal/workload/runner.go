package workload

import (
	"fmt"
	"log/slog"

	"github.com/joshuapare/opalloc/internal/logger"
	"github.com/joshuapare/opalloc/pool"
	"github.com/joshuapare/opalloc/pool/backing"
)

// Options configures a run.
type Options struct {
	Store  backing.Store  // backing store for the pool; nil means heap
	Hook   pool.ErrorHook // per-pool error hook; nil keeps the global one
	Logger *slog.Logger   // step log; nil means logger.L

	// OnStep is called after every step with the pool still open.
	OnStep func(index int, step Step, p *pool.Pool)

	// Inspect is called after the last step, before the pool is closed.
	Inspect func(p *pool.Pool) error
}

// StepResult records the pool state after one step.
type StepResult struct {
	Index int        `json:"index"`
	Kind  string     `json:"kind"`
	Stats pool.Stats `json:"stats"`
}

// Result summarizes a completed run.
type Result struct {
	Name     string        `json:"name"`
	Mode     pool.Mode     `json:"mode"`
	Stats    pool.Stats    `json:"stats"`
	Counters pool.Counters `json:"counters"`
	Trace    []StepResult  `json:"trace"`
}

type object struct {
	ref  pool.Ref
	buf  []byte
	live bool
}

// Run replays w against a fresh pool and closes it. On error the partial
// result is returned alongside.
func Run(w *Workload, opts Options) (res *Result, err error) {
	log := opts.Logger
	if log == nil {
		log = logger.L
	}

	popts := []pool.Option{pool.WithMaxObjects(w.Pool.MaxObjects)}
	if opts.Store != nil {
		popts = append(popts, pool.WithBacking(opts.Store))
	}
	if opts.Hook != nil {
		popts = append(popts, pool.WithErrorHook(opts.Hook))
	}
	popts = append(popts, pool.WithGrowHook(func(oldMax, newMax int) {
		log.Debug("pool grown", "workload", w.Name, "old", oldMax, "new", newMax)
	}))

	p, err := pool.New(w.Pool.ObjectSize, w.Pool.InitialCount, w.Pool.Mode, popts...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := p.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	res = &Result{Name: w.Name, Mode: w.Pool.Mode}
	var objects []object

	for i, step := range w.Steps {
		if err := apply(p, step, &objects); err != nil {
			res.Stats, res.Counters = p.Stats(), p.Counters()
			return res, fmt.Errorf("step %d (%s): %w", i, step.Kind(), err)
		}
		st := p.Stats()
		res.Trace = append(res.Trace, StepResult{Index: i, Kind: step.Kind(), Stats: st})
		log.Debug("step done", "workload", w.Name, "index", i, "kind", step.Kind(),
			"max_objects", st.MaxObjects, "active_objects", st.ActiveObjects)
		if opts.OnStep != nil {
			opts.OnStep(i, step, p)
		}
	}

	res.Stats, res.Counters = p.Stats(), p.Counters()
	if opts.Inspect != nil {
		if err := opts.Inspect(p); err != nil {
			return res, err
		}
	}
	log.Info("workload finished", "workload", w.Name, "mode", w.Pool.Mode.String(),
		"max_objects", res.Stats.MaxObjects, "active_objects", res.Stats.ActiveObjects)
	return res, nil
}

func apply(p *pool.Pool, step Step, objects *[]object) error {
	switch {
	case step.Alloc > 0:
		for range step.Alloc {
			ref, buf, err := p.Allocate()
			if err != nil {
				return err
			}
			*objects = append(*objects, object{ref: ref, buf: buf, live: true})
		}
	case len(step.Free) > 0:
		for _, idx := range step.Free {
			if idx < 0 || idx >= len(*objects) {
				return fmt.Errorf("%w: object %d was never allocated", ErrInvalidWorkload, idx)
			}
			obj := &(*objects)[idx]
			if err := p.Deallocate(obj.buf); err != nil {
				return fmt.Errorf("object %d: %w", idx, err)
			}
			obj.live = false
		}
	case step.Fill != nil:
		for _, obj := range *objects {
			if !obj.live {
				continue
			}
			for i := range obj.buf {
				obj.buf[i] = *step.Fill
			}
		}
	case step.Expect != nil:
		return check(p, step.Expect)
	}
	return nil
}

func check(p *pool.Pool, e *Expect) error {
	st, c := p.Stats(), p.Counters()
	var diffs []string
	cmp := func(name string, want *int, got int) {
		if want != nil && *want != got {
			diffs = append(diffs, fmt.Sprintf("%s = %d, want %d", name, got, *want))
		}
	}
	cmp("max_objects", e.MaxObjects, st.MaxObjects)
	cmp("active_objects", e.ActiveObjects, st.ActiveObjects)
	cmp("grow_calls", e.GrowCalls, c.GrowCalls)
	cmp("reused", e.Reused, c.Reused)
	if len(diffs) > 0 {
		return fmt.Errorf("%w: %v", ErrExpectation, diffs)
	}
	return nil
}
