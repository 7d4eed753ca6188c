package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"quest/pkg/logx"
)

func TestWatcherReloadsOnChange(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.yaml")
	v1 := []byte("jobs:\n  - name: a\n    schedule: {interval: 1000}\n")
	if err := os.WriteFile(path, v1, 0o644); err != nil {
		t.Fatal(err)
	}

	var (
		mu    sync.Mutex
		loads [][]byte
	)
	w := NewWatcher(path, logx.Nop(), func(b []byte) {
		mu.Lock()
		loads = append(loads, b)
		mu.Unlock()
	})
	w.Prime(v1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Watch(ctx)
	}()
	time.Sleep(100 * time.Millisecond) // let the directory watch attach

	v2 := []byte("jobs:\n  - name: a\n    schedule: {interval: 2000}\n")
	if err := os.WriteFile(path, v2, 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		mu.Lock()
		n := len(loads)
		mu.Unlock()
		if n >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("reload never fired")
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	got := string(loads[0])
	mu.Unlock()
	if got != string(v2) {
		t.Fatalf("reload bytes = %q, want new content", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatcherSuppressesUnchangedContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.yaml")
	content := []byte("jobs: []\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	var (
		mu    sync.Mutex
		count int
	)
	w := NewWatcher(path, logx.Nop(), func([]byte) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	w.Prime(content)

	// Rewriting identical bytes must not reach the reload callback.
	w.fire()

	mu.Lock()
	got := count
	mu.Unlock()
	if got != 0 {
		t.Fatalf("reload fired %d times for unchanged content", got)
	}
}

func TestHashBytes(t *testing.T) {
	t.Parallel()

	if hashBytes(nil) != 0 {
		t.Fatal("empty input should hash to 0")
	}
	if hashBytes([]byte("a")) == hashBytes([]byte("b")) {
		t.Fatal("distinct content should hash differently")
	}
}
