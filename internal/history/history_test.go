package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"quest/pkg/logx"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	st, err := Open(Config{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "history.db"),
	}, logx.Nop())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpenDisabled(t *testing.T) {
	t.Parallel()

	for _, driver := range []string{"", "none", "NONE"} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if st != nil || err != nil {
			t.Fatalf("Open(%q) = %v, %v; want nil, nil", driver, st, err)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(Config{Driver: "postgres"}, logx.Nop())
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestSQLitePathRequired(t *testing.T) {
	t.Parallel()

	_, err := Open(Config{Driver: "sqlite"}, logx.Nop())
	if err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestAppendAndRecent(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	started := time.Now().Add(-time.Minute).UTC().Truncate(time.Millisecond)
	runs := []Run{
		{Name: "backup", Started: started, Duration: 1200 * time.Millisecond, Status: "ok"},
		{Name: "backup", Started: started.Add(time.Second), Duration: 80 * time.Millisecond, Status: "failed", Error: "exit status 1"},
		{Name: "report", Started: started.Add(2 * time.Second), Duration: 10 * time.Millisecond, Status: "ok"},
	}
	for _, r := range runs {
		if err := st.AppendRun(ctx, r); err != nil {
			t.Fatalf("AppendRun(%s): %v", r.Name, err)
		}
	}

	got, err := st.Recent(ctx, "backup", 10)
	if err != nil {
		t.Fatalf("Recent error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(Recent) = %d, want 2", len(got))
	}
	// Newest first.
	if got[0].Status != "failed" || got[0].Error != "exit status 1" {
		t.Fatalf("got[0] = %+v", got[0])
	}
	if got[1].Status != "ok" || got[1].Error != "" {
		t.Fatalf("got[1] = %+v", got[1])
	}
	if !got[1].Started.Equal(started) {
		t.Fatalf("started = %v, want %v", got[1].Started, started)
	}
	if got[1].Duration != 1200*time.Millisecond {
		t.Fatalf("duration = %v", got[1].Duration)
	}

	all, err := st.Recent(ctx, "", 10)
	if err != nil {
		t.Fatalf("Recent all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}
}

func TestRecentLimit(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := st.AppendRun(ctx, Run{Name: "a", Status: "ok"}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := st.Recent(ctx, "a", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
}

func TestClosedStoreRejectsAppend(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	st.Close()

	if err := st.AppendRun(context.Background(), Run{Name: "a", Status: "ok"}); err == nil {
		t.Fatal("append after close should fail")
	}
}
