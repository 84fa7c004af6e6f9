package pool

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync/atomic"
)

// Location identifies the source line that detected a failure.
type Location struct {
	File string
	Line int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d", filepath.Base(l.File), l.Line)
}

// ErrorHook receives every failure a pool reports, before the failing call
// returns. Hooks must not call back into the pool that invoked them.
type ErrorHook func(loc Location, err error)

func nopHook(Location, error) {}

var globalHook atomic.Pointer[ErrorHook]

// SetErrorHook installs the process-wide hook used by pools created without
// WithErrorHook, and by calls on nil pools. Install it once at startup; nil
// restores the default no-op.
func SetErrorHook(h ErrorHook) {
	if h == nil {
		globalHook.Store(nil)
		return
	}
	globalHook.Store(&h)
}

func currentHook() ErrorHook {
	if h := globalHook.Load(); h != nil {
		return *h
	}
	return nopHook
}

// SlogHook returns a hook that logs each failure at Warn level.
func SlogHook(l *slog.Logger) ErrorHook {
	if l == nil {
		l = slog.Default()
	}
	return func(loc Location, err error) {
		l.Warn("pool operation failed",
			slog.String("file", filepath.Base(loc.File)),
			slog.Int("line", loc.Line),
			slog.Any("err", err))
	}
}

// report hands err to the pool's hook, tagged with the caller's location, and
// returns it unchanged. p may be nil.
func (p *Pool) report(err error) error {
	var loc Location
	if _, file, line, ok := runtime.Caller(1); ok {
		loc = Location{File: file, Line: line}
	}
	hook := currentHook()
	if p != nil && p.hook != nil {
		hook = p.hook
	}
	hook(loc, err)
	return err
}
