package history

import (
	"context"
	"time"

	"quest/internal/dispatch"
	logx "quest/pkg/logx"
)

// Recorder adapts a Store to the dispatcher's observer contract. Start
// notifications are not persisted; only settled runs are.
type Recorder struct {
	store Store
	log   logx.Logger
}

func NewRecorder(store Store, log logx.Logger) *Recorder {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Recorder{store: store, log: log}
}

func (r *Recorder) JobStarted(dispatch.Event) {}

func (r *Recorder) JobCompleted(e dispatch.Event) {
	r.append(Run{Name: e.Name, Started: e.Timestamp.Add(-e.Duration), Duration: e.Duration, Status: "ok"})
}

func (r *Recorder) JobFailed(e dispatch.Event) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	r.append(Run{Name: e.Name, Started: e.Timestamp.Add(-e.Duration), Duration: e.Duration, Status: "failed", Error: msg})
}

func (r *Recorder) append(run Run) {
	if r == nil || r.store == nil {
		return
	}
	// Observer delivery is fire-and-forget; never let a slow disk stall
	// dispatch for long.
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := r.store.AppendRun(ctx, run); err != nil {
		r.log.Warn("history append failed", logx.String("job", run.Name), logx.Err(err))
	}
}
