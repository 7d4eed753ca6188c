package catalog

import (
	"context"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	logx "quest/pkg/logx"
)

// Watcher reloads the catalog when its file changes on disk. Events are
// debounced (editors fire several writes per save) and reloads with
// unchanged content are suppressed by hash.
type Watcher struct {
	path   string
	log    logx.Logger
	reload func([]byte)

	mu       sync.Mutex
	lastHash uint64
	timer    *time.Timer
}

// NewWatcher creates a watcher. reload receives the raw file bytes; the
// caller decides how to apply them (typically Load + scheduler upsert).
func NewWatcher(path string, log logx.Logger, reload func([]byte)) *Watcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Watcher{path: path, log: log, reload: reload}
}

// Prime records the hash of already-loaded content so the first watch
// event after startup does not trigger a redundant reload.
func (w *Watcher) Prime(data []byte) {
	w.mu.Lock()
	w.lastHash = hashBytes(data)
	w.mu.Unlock()
}

// Watch blocks until ctx is done. It watches the catalog's directory
// (editors replace files via rename, which drops a file-level watch).
func (w *Watcher) Watch(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	file := filepath.Base(w.path)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	if err := fw.Add(dir); err != nil {
		return err
	}
	w.log.Debug("catalog watcher started", logx.String("dir", dir), logx.String("file", file))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			// Compare by basename; absolute vs relative paths differ across OSes.
			if !strings.EqualFold(filepath.Base(ev.Name), file) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove|fsnotify.Chmod) != 0 {
				w.debounce()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				w.log.Warn("catalog watch error", logx.Err(err))
			}
		}
	}
}

// debounce schedules one reload shortly after the burst of events a
// single save produces.
func (w *Watcher) debounce() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(250*time.Millisecond, w.fire)
}

func (w *Watcher) fire() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.log.Warn("catalog read failed", logx.String("path", w.path), logx.Err(err))
		return
	}

	h := hashBytes(data)
	w.mu.Lock()
	unchanged := h != 0 && h == w.lastHash
	if !unchanged {
		w.lastHash = h
	}
	w.mu.Unlock()
	if unchanged {
		w.log.Debug("catalog unchanged; skipping reload", logx.String("path", w.path))
		return
	}

	w.log.Info("catalog changed; reloading", logx.String("path", w.path))
	if w.reload != nil {
		w.reload(data)
	}
}

// hashBytes returns a stable 64-bit hash of bytes. Empty input returns 0.
func hashBytes(b []byte) uint64 {
	if len(b) == 0 {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}
