package dispatch

import (
	"time"

	logx "quest/pkg/logx"
)

// Event carries one lifecycle notification. Duration and Result/Err are
// only set on settle events. Delivery is fire-and-forget: observers are
// called synchronously on the dispatch goroutine, so per-name order
// matches causal execution order, and implementations must not block.
type Event struct {
	Name      string
	Inputs    map[string]any
	Timestamp time.Time
	Duration  time.Duration
	Result    any
	Err       error
}

// Observer receives job lifecycle notifications.
type Observer interface {
	JobStarted(Event)
	JobCompleted(Event)
	JobFailed(Event)
}

// NopObserver discards all notifications.
type NopObserver struct{}

func (NopObserver) JobStarted(Event)   {}
func (NopObserver) JobCompleted(Event) {}
func (NopObserver) JobFailed(Event)    {}

// MultiObserver fans notifications out to several observers in order.
type MultiObserver []Observer

func (m MultiObserver) JobStarted(e Event) {
	for _, o := range m {
		if o != nil {
			o.JobStarted(e)
		}
	}
}

func (m MultiObserver) JobCompleted(e Event) {
	for _, o := range m {
		if o != nil {
			o.JobCompleted(e)
		}
	}
}

func (m MultiObserver) JobFailed(e Event) {
	for _, o := range m {
		if o != nil {
			o.JobFailed(e)
		}
	}
}

// LogObserver writes notifications to the structured log.
type LogObserver struct {
	Log logx.Logger
}

func (o LogObserver) JobStarted(e Event) {
	o.Log.Debug("job started", logx.String("job", e.Name), logx.Time("at", e.Timestamp))
}

func (o LogObserver) JobCompleted(e Event) {
	o.Log.Info("job completed", logx.String("job", e.Name), logx.Duration("took", e.Duration))
}

func (o LogObserver) JobFailed(e Event) {
	o.Log.Warn("job failed", logx.String("job", e.Name), logx.Duration("took", e.Duration), logx.Err(e.Err))
}
