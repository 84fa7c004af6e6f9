package pool

import "github.com/joshuapare/opalloc/pool/backing"

// Option configures a Pool at creation.
type Option func(*options)

type options struct {
	store      backing.Store
	hook       ErrorHook
	maxObjects int
	onGrow     func(oldMax, newMax int)
}

func defaultOptions() options {
	return options{store: backing.Heap{}}
}

// WithBacking sets the store slot storage is drawn from. Default: backing.Heap.
func WithBacking(s backing.Store) Option {
	return func(o *options) {
		if s != nil {
			o.store = s
		}
	}
}

// WithErrorHook overrides the process-wide error hook for this pool.
func WithErrorHook(h ErrorHook) Option {
	return func(o *options) { o.hook = h }
}

// WithMaxObjects caps the directory size. A growth step that would exceed the
// cap fails with ErrAllocationFailed instead of growing partially. Zero means
// no cap.
func WithMaxObjects(n int) Option {
	return func(o *options) { o.maxObjects = n }
}

// WithGrowHook registers a callback run after every successful growth step.
func WithGrowHook(fn func(oldMax, newMax int)) Option {
	return func(o *options) { o.onGrow = fn }
}
