// Package registry holds the authoritative in-memory table of job
// descriptors and their mutable runtime policy (paused flag).
package registry

import (
	"strings"
	"sync"

	"quest/internal/schedule"
)

// OverlapPolicy controls what happens when a trigger arrives while a
// previous run of the same job is still in flight. The zero value skips,
// which keeps "no overlapping runs" the default for every job.
type OverlapPolicy int

const (
	OverlapSkipIfRunning OverlapPolicy = iota
	OverlapAllow
)

// Job is one schedulable unit. Name is the unique key and is immutable
// after registration; Paused is the only field mutated in place.
type Job struct {
	Name string
	// Spec may be nil: the job is then never armed and only runs on
	// manual trigger.
	Spec    schedule.Spec
	Paused  bool
	Overlap OverlapPolicy

	// Inputs are the job's base defaults, ScheduleInputs the overrides
	// declared next to the schedule. Neither is interpreted here; the
	// dispatcher merges them with caller-supplied inputs.
	Inputs         map[string]any
	ScheduleInputs map[string]any
}

func (j Job) clone() Job {
	j.Inputs = cloneMap(j.Inputs)
	j.ScheduleInputs = cloneMap(j.ScheduleInputs)
	return j
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Registry is safe for concurrent use. Iteration order is registration
// order; an upsert of an existing name keeps its original position.
type Registry struct {
	mu    sync.RWMutex
	jobs  map[string]Job
	order []string
}

func New() *Registry {
	return &Registry{jobs: map[string]Job{}}
}

// Upsert adds or replaces the descriptor for j.Name and reports whether
// an existing descriptor was replaced. The caller owns cancelling any
// pending timer for a replaced job.
func (r *Registry) Upsert(j Job) bool {
	j.Name = strings.TrimSpace(j.Name)
	if j.Name == "" {
		return false
	}
	j = j.clone()

	r.mu.Lock()
	defer r.mu.Unlock()
	_, existed := r.jobs[j.Name]
	if !existed {
		r.order = append(r.order, j.Name)
	}
	r.jobs[j.Name] = j
	return existed
}

func (r *Registry) Get(name string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[name]
	if !ok {
		return Job{}, false
	}
	return j.clone(), true
}

// Remove drops the descriptor. The caller cancels the job's timer first
// so no firing dangles past removal.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[name]; !ok {
		return false
	}
	delete(r.jobs, name)
	n := 0
	for _, k := range r.order {
		if k == name {
			continue
		}
		r.order[n] = k
		n++
	}
	r.order = r.order[:n]
	return true
}

// SetPaused flips the paused flag and reports whether the job exists.
func (r *Registry) SetPaused(name string, paused bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[name]
	if !ok {
		return false
	}
	j.Paused = paused
	r.jobs[name] = j
	return true
}

// List returns descriptors in registration order.
func (r *Registry) List() []Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Job, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.jobs[name].clone())
	}
	return out
}

// Names returns job names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}
