package scheduler

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"quest/internal/dispatch"
	"quest/internal/registry"
	"quest/internal/timer"
	logx "quest/pkg/logx"
)

type Config struct {
	// Timezone is the IANA zone textual dates and diagnostics use.
	// Cron expressions carry their own location. Empty means Local.
	Timezone string
}

// Service is the owned scheduling context: registry, dispatcher, timer
// adapter and per-job runtime state behind one mutation point. There is
// no ambient global; everything a trigger touches hangs off this object.
type Service struct {
	cfg  Config
	log  logx.Logger
	loc  *time.Location
	base context.Context

	reg    *registry.Registry
	disp   *dispatch.Dispatcher
	timers *timer.Adapter

	mu     sync.Mutex
	states map[string]*jobRuntime

	// parseWarn throttles repeated schedule-parse warnings so a bad
	// recurring spec cannot flood the log.
	parseWarn *rate.Limiter
}

// New creates a scheduler. ctx bounds executions triggered by timers;
// manual Run calls carry their own context.
func New(ctx context.Context, cfg Config, sink dispatch.Sink, obs dispatch.Observer, log logx.Logger) *Service {
	if ctx == nil {
		ctx = context.Background()
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	reg := registry.New()
	s := &Service{
		cfg:       cfg,
		log:       log,
		loc:       loadLocation(cfg.Timezone, log),
		base:      ctx,
		reg:       reg,
		disp:      dispatch.New(reg, sink, obs, log),
		timers:    timer.New(),
		states:    map[string]*jobRuntime{},
		parseWarn: rate.NewLimiter(rate.Every(10*time.Second), 3),
	}
	return s
}

// Location returns the service zone (for catalog date parsing).
func (s *Service) Location() *time.Location { return s.loc }

// Close stops every pending timer. In-flight executions run to
// completion; only future firings are suppressed.
func (s *Service) Close() {
	s.Stop()
	s.log.Debug("scheduler closed")
}

func loadLocation(tz string, log logx.Logger) *time.Location {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Warn("invalid timezone; falling back to Local", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}

// stateFor returns the runtime for name, creating it idle. Call with
// s.mu held.
func (s *Service) stateFor(name string) *jobRuntime {
	rt, ok := s.states[name]
	if !ok {
		rt = &jobRuntime{state: StateIdle}
		s.states[name] = rt
	}
	return rt
}

// Status returns a diagnostic snapshot in registration order.
func (s *Service) Status() []JobStatus {
	names := s.reg.Names()
	out := make([]JobStatus, 0, len(names))
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		st := JobStatus{Name: name, State: StateIdle}
		if rt, ok := s.states[name]; ok {
			st.State = rt.state
			st.NextRun = rt.nextRun
		}
		if job, ok := s.reg.Get(name); ok {
			st.Paused = job.Paused
		}
		st.Running = s.disp.Running(name)
		out = append(out, st)
	}
	return out
}
