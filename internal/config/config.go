// Package config loads the questd daemon configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"

	"quest/internal/history"
	logx "quest/pkg/logx"
)

type Config struct {
	Log       Log       `yaml:"log"`
	Scheduler Scheduler `yaml:"scheduler"`
	Catalog   Catalog   `yaml:"catalog"`
	History   History   `yaml:"history"`
}

type Log struct {
	Level   string `yaml:"level"`
	Console *bool  `yaml:"console"`
	File    struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"file"`
}

type Scheduler struct {
	// Timezone is an IANA zone name, e.g. "Asia/Jakarta".
	Timezone string `yaml:"timezone"`
}

type Catalog struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

type History struct {
	Driver      string `yaml:"driver"`
	Path        string `yaml:"path"`
	BusyTimeout string `yaml:"busy_timeout"`
	MaxRows     int    `yaml:"max_rows"`
}

// Load reads and validates the config at path. Unknown keys are
// rejected so typos surface at startup instead of silently defaulting.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(string(b)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Catalog.Path) == "" {
		return fmt.Errorf("catalog.path is required")
	}
	if _, err := c.HistoryConfig(); err != nil {
		return err
	}
	if tz := strings.TrimSpace(c.Scheduler.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("scheduler.timezone: %w", err)
		}
	}
	return nil
}

// LogConfig maps the log section onto the logx service config.
// Console defaults to on.
func (c *Config) LogConfig() logx.Config {
	out := logx.Config{
		Level:   c.Log.Level,
		Console: true,
	}
	if c.Log.Console != nil {
		out.Console = *c.Log.Console
	}
	out.File.Enabled = c.Log.File.Enabled
	out.File.Path = c.Log.File.Path
	return out
}

// HistoryConfig maps the history section onto the store config.
func (c *Config) HistoryConfig() (history.Config, error) {
	busy, err := ParseDurationField("history.busy_timeout", c.History.BusyTimeout)
	if err != nil {
		return history.Config{}, err
	}
	return history.Config{
		Driver:      c.History.Driver,
		Path:        c.History.Path,
		BusyTimeout: busy,
		MaxRows:     c.History.MaxRows,
	}, nil
}

func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}
