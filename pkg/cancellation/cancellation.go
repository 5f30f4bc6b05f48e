// Package cancellation provides the flags that let callers interrupt the
// CPU-bound search algorithms.  The engine never owns threads or timers; it
// only reads a flag at bounded intervals and returns early once the flag is
// observed set.
package cancellation

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Error reports that an operation observed its cancellation flag set.
// Cancellation is not a failure; the caller decides whether to resume or
// drop.
type Error struct {
	At string
}

func (e *Error) Error() string {
	return fmt.Sprintf("cancelled at %q", e.At)
}

// Flag signals that execution should be cancelled.  Implementations must be
// safe to read from multiple goroutines.
type Flag interface {
	// Check returns an *Error if execution should stop.  The at string names
	// the operation being cancelled, for diagnostics.
	Check(at string) error
}

type noCancellation struct{}

func (noCancellation) Check(at string) error { return nil }

// None is a Flag that is never set.
var None Flag = noCancellation{}

// Bool is a Flag that is set manually, typically from another goroutine.
type Bool struct {
	cancelled atomic.Bool
}

// Set marks the flag cancelled.
func (b *Bool) Set() {
	b.cancelled.Store(true)
}

// Check implements Flag.
func (b *Bool) Check(at string) error {
	if b.cancelled.Load() {
		return &Error{At: at}
	}
	return nil
}

// AfterDuration returns a Flag that cancels once the given wall-clock
// duration has elapsed, composed with an optional parent flag.
func AfterDuration(limit time.Duration, parent Flag) Flag {
	if parent == nil {
		parent = None
	}
	return &afterDuration{limit: limit, start: time.Now(), parent: parent}
}

type afterDuration struct {
	limit  time.Duration
	start  time.Time
	parent Flag
}

func (f *afterDuration) Check(at string) error {
	if err := f.parent.Check(at); err != nil {
		return err
	}
	if time.Since(f.start) > f.limit {
		return &Error{At: at}
	}
	return nil
}
