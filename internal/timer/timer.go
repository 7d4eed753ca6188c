// Package timer arms callbacks at absolute instants, transparently
// chaining waits that exceed the signed-32-bit millisecond bound many
// timer stacks silently overflow at. Remaining delay is always
// recomputed from the original target instant, so chained waits do not
// accumulate drift.
package timer

import (
	"math"
	"sync"
	"time"
)

// MaxDelay is the longest single wait armed on the platform timer
// (2^31-1 milliseconds, roughly 24.8 days). Longer delays are chained.
const MaxDelay = time.Duration(math.MaxInt32) * time.Millisecond

// Adapter arms timers. The zero value is not usable; use New.
type Adapter struct {
	maxDelay time.Duration
}

func New() *Adapter { return &Adapter{maxDelay: MaxDelay} }

// NewWithBound returns an adapter with a custom chaining bound.
// Used by tests to exercise the chain without day-long waits.
func NewWithBound(bound time.Duration) *Adapter {
	if bound <= 0 {
		bound = MaxDelay
	}
	return &Adapter{maxDelay: bound}
}

// Handle owns one pending firing. Stop is idempotent and safe to call
// on an already-fired or already-stopped handle.
type Handle struct {
	mu      sync.Mutex
	t       *time.Timer
	stopped bool
	fired   bool
}

// At arms fn to run at target. Targets at or before now fire on the
// next timer tick, never synchronously in the caller.
func (a *Adapter) At(target time.Time, fn func()) *Handle {
	h := &Handle{}
	a.arm(h, target, fn)
	return h
}

func (a *Adapter) arm(h *Handle, target time.Time, fn func()) {
	delay := time.Until(target)
	if delay > a.maxDelay {
		// Intermediate hop: wait the bound, then re-derive the
		// remainder from target.
		h.replace(time.AfterFunc(a.maxDelay, func() {
			if h.isStopped() {
				return
			}
			a.arm(h, target, fn)
		}))
		return
	}
	if delay < 0 {
		delay = 0
	}
	h.replace(time.AfterFunc(delay, func() {
		if !h.markFired() {
			return
		}
		fn()
	}))
}

// Stop cancels the pending firing. It does not interrupt a callback
// that has already started running.
func (h *Handle) Stop() {
	h.mu.Lock()
	h.stopped = true
	t := h.t
	h.t = nil
	h.mu.Unlock()
	if t != nil {
		_ = t.Stop()
	}
}

// Fired reports whether the callback has been invoked.
func (h *Handle) Fired() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fired
}

func (h *Handle) isStopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopped
}

func (h *Handle) markFired() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped || h.fired {
		return false
	}
	h.fired = true
	return true
}

// replace installs the next timer in the chain. If the handle was
// stopped while the timer was being created, the new timer is stopped
// immediately so no stale hop survives.
func (h *Handle) replace(t *time.Timer) {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		_ = t.Stop()
		return
	}
	h.t = t
	h.mu.Unlock()
}
