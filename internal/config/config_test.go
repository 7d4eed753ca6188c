package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "questd.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFull(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, `
log:
  level: debug
  console: false
  file:
    enabled: true
    path: /var/log/questd.log
scheduler:
  timezone: Asia/Jakarta
catalog:
  path: /etc/questd/jobs.yaml
  watch: true
history:
  driver: sqlite
  path: /var/lib/questd/history.db
  busy_timeout: 2s
  max_rows: 1000
`))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Scheduler.Timezone != "Asia/Jakarta" {
		t.Fatalf("timezone = %q", cfg.Scheduler.Timezone)
	}
	if cfg.Catalog.Path != "/etc/questd/jobs.yaml" || !cfg.Catalog.Watch {
		t.Fatalf("catalog = %+v", cfg.Catalog)
	}

	lc := cfg.LogConfig()
	if lc.Level != "debug" || lc.Console || !lc.File.Enabled || lc.File.Path != "/var/log/questd.log" {
		t.Fatalf("log config = %+v", lc)
	}

	hc, err := cfg.HistoryConfig()
	if err != nil {
		t.Fatalf("HistoryConfig error: %v", err)
	}
	if hc.Driver != "sqlite" || hc.BusyTimeout != 2*time.Second || hc.MaxRows != 1000 {
		t.Fatalf("history config = %+v", hc)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, "catalog:\n  path: jobs.yaml\n"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if lc := cfg.LogConfig(); !lc.Console {
		t.Fatal("console logging should default on")
	}
	hc, err := cfg.HistoryConfig()
	if err != nil || hc.Driver != "" {
		t.Fatalf("history config = %+v, %v", hc, err)
	}
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	t.Parallel()

	_, err := Load(writeConfig(t, "catalog:\n  path: jobs.yaml\ncatalogg: {}\n"))
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		doc  string
		want string
	}{
		{"missing catalog path", "log:\n  level: info\n", "catalog.path"},
		{"bad timezone", "catalog:\n  path: j.yaml\nscheduler:\n  timezone: Mars/Olympus\n", "scheduler.timezone"},
		{"bad busy timeout", "catalog:\n  path: j.yaml\nhistory:\n  busy_timeout: soon\n", "busy_timeout"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeConfig(t, tc.doc))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want mention of %s", err, tc.want)
			}
		})
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()

	if d, err := ParseDurationField("x", ""); d != 0 || err != nil {
		t.Fatalf("empty = %v, %v", d, err)
	}
	if d, err := ParseDurationField("x", "1500ms"); d != 1500*time.Millisecond || err != nil {
		t.Fatalf("1500ms = %v, %v", d, err)
	}
	if _, err := ParseDurationField("x", "-1s"); err == nil {
		t.Fatal("negative duration should fail")
	}
}
