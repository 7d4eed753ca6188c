// Package history persists settled job runs. It implements the
// dispatcher's observer contract, so wiring it in is just adding it to
// the observer fanout. Schedules themselves are never persisted; only
// the record of what ran.
package history

import (
	"context"
	"errors"
	"strings"
	"time"

	logx "quest/pkg/logx"
)

var ErrDisabled = errors.New("history disabled")

// Config configures run-history storage.
//
// Driver values:
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", history is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
	// MaxRows bounds the table size; oldest rows are pruned past it.
	// 0 keeps everything.
	MaxRows int
}

// Run is one settled execution.
type Run struct {
	Name     string
	Started  time.Time
	Duration time.Duration
	Status   string // "ok" | "failed"
	Error    string
}

// Store is the minimal persistence API used by the recorder.
type Store interface {
	AppendRun(ctx context.Context, r Run) error
	Recent(ctx context.Context, name string, limit int) ([]Run, error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if history is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown history driver: " + driver)
	}
}
