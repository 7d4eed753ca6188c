package scheduler

import (
	"errors"
	"time"

	"quest/internal/dispatch"
	"quest/internal/schedule"
	logx "quest/pkg/logx"
)

// scheduleJob computes the next run for name and arms its timer.
//
// Calling it twice in a row is safe: any pre-existing timer for the
// name is invalidated (version bump + stop) before a new one is armed,
// so there is never more than one live timer per job.
//
// Returns schedule.ErrNotScheduled or a *schedule.ParseError when the
// job could not be armed; the job stays registered and idle.
func (s *Service) scheduleJob(name string) error {
	job, ok := s.reg.Get(name)
	if !ok {
		return dispatch.ErrNotFound
	}

	s.mu.Lock()
	rt := s.stateFor(name)
	rt.cancelLocked()

	now := time.Now()
	next, err := schedule.NextRun(job.Spec, now)
	if err != nil {
		rt.state = StateIdle
		s.mu.Unlock()
		s.reportNotScheduled(name, err)
		return err
	}

	ver := rt.ver
	if !next.After(now) {
		// Catch-up: the computed instant is already behind us (clock
		// skew, slow parse, past date math). Execute now instead of
		// arming a zero timer; the recurring re-arm happens on settle.
		rt.state = StateFiring
		s.mu.Unlock()
		s.log.Debug("catch-up run", logx.String("job", name), logx.Time("target", next))
		go s.fire(name, ver)
		return nil
	}

	rt.state = StateArmed
	rt.nextRun = next
	rt.handle = s.timers.At(next, func() { s.onTimer(name, ver) })
	s.mu.Unlock()

	s.log.Debug("job armed", logx.String("job", name), logx.Time("next", next), logx.Duration("in", time.Until(next)))
	return nil
}

// onTimer runs on the timer goroutine. Stale firings (the job was
// rescheduled, stopped or removed after this timer was armed) are
// dropped by the version check.
func (s *Service) onTimer(name string, ver uint64) {
	s.mu.Lock()
	rt, ok := s.states[name]
	if !ok || rt.ver != ver || rt.state != StateArmed {
		s.mu.Unlock()
		return
	}
	rt.state = StateFiring
	rt.handle = nil
	rt.nextRun = time.Time{}
	s.mu.Unlock()

	s.fire(name, ver)
}

// fire dispatches one execution and then re-arms recurring jobs. It
// never lets a dispatch outcome (failure, skip, panic-turned-error)
// escape into the timer path.
func (s *Service) fire(name string, ver uint64) {
	res := s.disp.Dispatch(s.base, name, nil)
	s.finishFiring(name, ver, res)
}

// finishFiring applies the post-dispatch transition: recurring specs go
// back through scheduleJob, one-shots settle to idle.
//
// The next slot of an interval job is deliberately computed from
// wall-clock time at completion, not the original target. Execution
// latency therefore shifts interval cadence under sustained overrun,
// while cron jobs self-correct on their fixed grid.
func (s *Service) finishFiring(name string, ver uint64, res dispatch.Result) {
	job, ok := s.reg.Get(name)

	s.mu.Lock()
	rt, stOK := s.states[name]
	if !stOK || rt.ver != ver || rt.state != StateFiring {
		// Removed or rescheduled while executing; nothing to settle.
		s.mu.Unlock()
		return
	}
	if !ok {
		rt.state = StateRemoved
		delete(s.states, name)
		s.mu.Unlock()
		return
	}
	rt.state = StateIdle
	s.mu.Unlock()

	if res.Status == dispatch.StatusSkipped {
		s.log.Debug("run skipped", logx.String("job", name), logx.String("reason", res.SkipReason))
	}
	if job.Spec != nil && job.Spec.Recurring() {
		// Failed and skipped runs still re-arm on the normal cadence.
		_ = s.scheduleJob(name)
	}
}

// stopJob cancels the pending timer and settles the job to idle.
// Idempotent; unknown names are a no-op.
func (s *Service) stopJob(name string) {
	s.mu.Lock()
	rt, ok := s.states[name]
	if ok {
		rt.cancelLocked()
		rt.state = StateIdle
	}
	s.mu.Unlock()
}

// removeJob tears the job down: timer cancelled before the registry
// entry is dropped, so no firing can dangle past removal.
func (s *Service) removeJob(name string) bool {
	s.mu.Lock()
	if rt, ok := s.states[name]; ok {
		rt.cancelLocked()
		rt.state = StateRemoved
		delete(s.states, name)
	}
	s.mu.Unlock()
	return s.reg.Remove(name)
}

func (s *Service) reportNotScheduled(name string, err error) {
	if errors.Is(err, schedule.ErrNotScheduled) {
		s.log.Debug("job not scheduled", logx.String("job", name))
		return
	}
	var perr *schedule.ParseError
	if errors.As(err, &perr) {
		if s.parseWarn.Allow() {
			s.log.Warn("schedule parse failed", logx.String("job", name), logx.String("input", perr.Input), logx.Err(perr.Err))
		}
		return
	}
	s.log.Warn("job not armed", logx.String("job", name), logx.Err(err))
}
