package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quest/internal/dispatch"
	"quest/internal/registry"
	logx "quest/pkg/logx"
)

// resolveNames expands an absent names argument to "all registered
// jobs" in registration order.
func (s *Service) resolveNames(names []string) []string {
	if len(names) == 0 {
		return s.reg.Names()
	}
	return names
}

// Start arms the named jobs (all jobs when names is empty), applying
// the single-job operation per name in registration order. One job's
// invalid schedule does not abort the rest; per-job errors are joined
// into the return value.
func (s *Service) Start(names ...string) error {
	var errs []error
	for _, name := range s.resolveNames(names) {
		if err := s.scheduleJob(name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Stop cancels pending timers for the named jobs (all when empty) and
// leaves them idle. Stopping an already-idle or unknown job is a no-op;
// in-flight executions are not interrupted.
func (s *Service) Stop(names ...string) {
	for _, name := range s.resolveNames(names) {
		s.stopJob(name)
	}
}

// Run triggers the named jobs (all when names is empty) out of band,
// through the same dispatch gate as scheduled firings, so overlap
// prevention holds regardless of trigger source. Results are returned
// in order; execution errors are in Result.Err, they do not abort the
// batch.
func (s *Service) Run(ctx context.Context, inputs map[string]any, names ...string) []dispatch.Result {
	if ctx == nil {
		ctx = s.base
	}
	resolved := s.resolveNames(names)
	out := make([]dispatch.Result, 0, len(resolved))
	for _, name := range resolved {
		out = append(out, s.disp.Dispatch(ctx, name, inputs))
	}
	return out
}

// Add registers descriptors and returns the accepted names. An existing
// name is replaced and its pending timer cancelled; the replacement is
// not armed until Start. Invalid descriptors are skipped and their
// errors joined.
func (s *Service) Add(jobs ...registry.Job) ([]string, error) {
	var names []string
	var errs []error
	for _, job := range jobs {
		if strings.TrimSpace(job.Name) == "" {
			errs = append(errs, errors.New("job name required"))
			continue
		}
		// Invalidate any pending timer before the descriptor swap so a
		// stale firing cannot observe the new descriptor.
		s.stopJob(job.Name)
		s.reg.Upsert(job)
		names = append(names, job.Name)
		s.log.Debug("job registered", logx.String("job", job.Name))
	}
	return names, errors.Join(errs...)
}

// Remove deletes the named jobs (all when empty), cancelling pending
// timers first. It returns the names actually removed. In-flight
// executions run to completion.
func (s *Service) Remove(names ...string) []string {
	var removed []string
	for _, name := range s.resolveNames(names) {
		if s.removeJob(name) {
			removed = append(removed, name)
			s.log.Debug("job removed", logx.String("job", name))
		}
	}
	return removed
}

// List returns registered descriptors in registration order.
func (s *Service) List() []registry.Job { return s.reg.List() }

// Get returns the descriptor for name.
func (s *Service) Get(name string) (registry.Job, bool) { return s.reg.Get(name) }

// Pause suppresses future executions of name. The timer keeps firing;
// the dispatcher skips with reason "paused" and recurring jobs keep
// re-arming, so Resume restores normal dispatch on the next trigger.
func (s *Service) Pause(name string) bool {
	ok := s.reg.SetPaused(name, true)
	if ok {
		s.log.Debug("job paused", logx.String("job", name))
	}
	return ok
}

// Resume lifts a pause.
func (s *Service) Resume(name string) bool {
	ok := s.reg.SetPaused(name, false)
	if ok {
		s.log.Debug("job resumed", logx.String("job", name))
	}
	return ok
}
