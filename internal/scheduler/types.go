package scheduler

import (
	"time"

	"quest/internal/timer"
)

// State is a job's position in the scheduling state machine.
type State int

const (
	// StateIdle: no timer armed, not executing.
	StateIdle State = iota
	// StateArmed: a timer is pending.
	StateArmed
	// StateFiring: the timer fired (or a catch-up run started) and
	// dispatch has not settled yet.
	StateFiring
	// StateRemoved: terminal; bookkeeping is being torn down.
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateFiring:
		return "firing"
	case StateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// jobRuntime is the per-name scheduling state. All fields are guarded
// by Service.mu. ver is bumped whenever the pending timer is cancelled
// or replaced; callbacks carry the version they were armed with and
// stale ones are ignored, so replacing a timer can never produce a
// duplicate firing.
type jobRuntime struct {
	state   State
	ver     uint64
	handle  *timer.Handle
	nextRun time.Time
}

// cancelLocked invalidates the pending timer, if any. Call with
// Service.mu held.
func (rt *jobRuntime) cancelLocked() {
	rt.ver++
	if rt.handle != nil {
		rt.handle.Stop()
		rt.handle = nil
	}
	rt.nextRun = time.Time{}
}

// JobStatus is a diagnostic view of one job's scheduling state.
type JobStatus struct {
	Name    string
	State   State
	Paused  bool
	Running bool
	NextRun time.Time
}
