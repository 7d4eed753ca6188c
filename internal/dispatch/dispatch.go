// Package dispatch mediates between triggers (timer firings, manual
// runs, batch operations) and the external execution sink. It enforces
// overlap and pause policy, tracks in-flight executions, and emits
// lifecycle notifications.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"quest/internal/registry"
	logx "quest/pkg/logx"
)

// ErrNotFound reports a dispatch request for an unregistered job name.
var ErrNotFound = errors.New("job not found")

// ExecutionError wraps a sink failure so manual callers can react to it
// with errors.As while the scheduling loop stays up.
type ExecutionError struct {
	Name string
	Err  error
}

func (e *ExecutionError) Error() string { return fmt.Sprintf("job %q failed: %v", e.Name, e.Err) }
func (e *ExecutionError) Unwrap() error { return e.Err }

type Status int

const (
	StatusOK Status = iota
	StatusFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Skip reasons. A skip is a normal, observable outcome, not an error.
const (
	SkipAlreadyRunning = "already_running"
	SkipPaused         = "paused"
)

// Result is the outcome of one dispatch attempt.
type Result struct {
	Name       string
	Status     Status
	SkipReason string
	Output     any
	Err        error
	Started    time.Time
	Duration   time.Duration
}

// Sink executes a job body. Implementations own their concurrency model
// (in-process call, subprocess, worker); the dispatcher never assumes
// execution is cheap and never holds its lock across Execute.
type Sink interface {
	Execute(ctx context.Context, name string, inputs map[string]any) (any, error)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, name string, inputs map[string]any) (any, error)

func (f SinkFunc) Execute(ctx context.Context, name string, inputs map[string]any) (any, error) {
	return f(ctx, name, inputs)
}

// Dispatcher routes every trigger source through one overlap gate.
type Dispatcher struct {
	reg  *registry.Registry
	sink Sink
	obs  Observer
	log  logx.Logger

	// mu guards inflight only. The check-and-record step for a name is
	// atomic; the lock is never held across the sink call so jobs run
	// fully in parallel.
	mu       sync.Mutex
	inflight map[string]time.Time
}

func New(reg *registry.Registry, sink Sink, obs Observer, log logx.Logger) *Dispatcher {
	if obs == nil {
		obs = NopObserver{}
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Dispatcher{
		reg:      reg,
		sink:     sink,
		obs:      obs,
		log:      log,
		inflight: map[string]time.Time{},
	}
}

// Running reports whether an execution of name is currently in flight.
func (d *Dispatcher) Running(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.inflight[name]
	return ok
}

// InFlight returns the names with a running execution.
func (d *Dispatcher) InFlight() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.inflight))
	for name := range d.inflight {
		out = append(out, name)
	}
	return out
}

// Dispatch runs one execution attempt for name. Policy, in order:
// overlap gate, pause gate, then execute with merged inputs. The
// in-flight record is cleared on every path once execution began,
// including sink panics.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, custom map[string]any) Result {
	job, ok := d.reg.Get(name)
	if !ok {
		return Result{Name: name, Status: StatusFailed, Err: fmt.Errorf("%w: %q", ErrNotFound, name)}
	}

	d.mu.Lock()
	if _, running := d.inflight[name]; running && job.Overlap == registry.OverlapSkipIfRunning {
		d.mu.Unlock()
		d.log.Debug("dispatch skipped", logx.String("job", name), logx.String("reason", SkipAlreadyRunning))
		return Result{Name: name, Status: StatusSkipped, SkipReason: SkipAlreadyRunning}
	}
	if job.Paused {
		d.mu.Unlock()
		d.log.Debug("dispatch skipped", logx.String("job", name), logx.String("reason", SkipPaused))
		return Result{Name: name, Status: StatusSkipped, SkipReason: SkipPaused}
	}
	start := time.Now()
	d.inflight[name] = start
	d.mu.Unlock()

	merged := MergeInputs(job.Inputs, job.ScheduleInputs, custom)
	d.obs.JobStarted(Event{Name: name, Inputs: merged, Timestamp: start})

	out, err := d.invoke(ctx, name, merged)
	dur := time.Since(start)

	d.mu.Lock()
	delete(d.inflight, name)
	d.mu.Unlock()

	if err != nil {
		execErr := &ExecutionError{Name: name, Err: err}
		d.obs.JobFailed(Event{Name: name, Inputs: merged, Timestamp: time.Now(), Duration: dur, Err: execErr})
		d.log.Warn("job failed", logx.String("job", name), logx.Duration("took", dur), logx.Err(err))
		return Result{Name: name, Status: StatusFailed, Err: execErr, Started: start, Duration: dur}
	}
	d.obs.JobCompleted(Event{Name: name, Inputs: merged, Timestamp: time.Now(), Duration: dur, Result: out})
	d.log.Info("job ok", logx.String("job", name), logx.Duration("took", dur))
	return Result{Name: name, Status: StatusOK, Output: out, Started: start, Duration: dur}
}

// invoke calls the sink, converting a panic into an error so a faulty
// job body never takes down a timer goroutine.
func (d *Dispatcher) invoke(ctx context.Context, name string, inputs map[string]any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("job panic", logx.String("job", name), logx.Any("panic", r), logx.Stack(string(debug.Stack())))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if d.sink == nil {
		return nil, errors.New("no execution sink configured")
	}
	return d.sink.Execute(ctx, name, inputs)
}

// MergeInputs layers input maps: base job inputs, then schedule-declared
// inputs, then caller-supplied inputs, later layers winning on key
// collisions. The result is always a fresh map.
func MergeInputs(layers ...map[string]any) map[string]any {
	out := map[string]any{}
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}
