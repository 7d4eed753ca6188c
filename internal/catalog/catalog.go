// Package catalog loads declarative job descriptors from a YAML or JSON
// file and converts them into registry jobs. Duplicate names within one
// load are a fatal configuration error; a single entry's bad schedule
// only fails that entry.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"quest/internal/registry"
	"quest/internal/schedule"
)

// ErrDuplicateName marks two independently-declared schedules colliding
// on one name. A catalog load with a duplicate is rejected as a whole:
// a silent overwrite would hide the collision.
var ErrDuplicateName = errors.New("duplicate job name")

// ConfigError wraps a fault in the catalog file itself.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string { return fmt.Sprintf("catalog %s: %v", e.Path, e.Err) }
func (e *ConfigError) Unwrap() error { return e.Err }

// File is the catalog document.
type File struct {
	Jobs []Entry `json:"jobs"`
}

// Entry is one declared job. Exactly one schedule form may be set;
// numeric interval/timeout values are milliseconds.
type Entry struct {
	Name     string         `json:"name"`
	Schedule ScheduleFields `json:"schedule"`
	Inputs   map[string]any `json:"inputs,omitempty"`
	// WithoutOverlapping defaults to true when omitted.
	WithoutOverlapping *bool `json:"without_overlapping,omitempty"`
	Paused             bool  `json:"paused,omitempty"`
}

// ScheduleFields is the loose schedule shape before narrowing.
type ScheduleFields struct {
	Cron        string `json:"cron,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	WithSeconds bool   `json:"with_seconds,omitempty"`

	// Interval and Timeout accept a number (milliseconds) or a string
	// (Go duration, "every N <unit>", shorthand, or natural language).
	Interval any    `json:"interval,omitempty"`
	Timeout  any    `json:"timeout,omitempty"`
	Date     string `json:"date,omitempty"`

	// Inputs declared next to the schedule override the job's base
	// inputs on key collisions.
	Inputs map[string]any `json:"inputs,omitempty"`
}

// Load reads and converts the catalog at path. Textual dates are parsed
// in loc (nil means Local).
//
// A duplicate name or an unreadable/undecodable file returns (nil, err)
// with a *ConfigError: the load is fatal. Entry-level faults (bad
// schedule form, missing name) do not abort sibling entries; the valid
// jobs are returned together with the joined entry errors.
func Load(path string, loc *time.Location) ([]registry.Job, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return LoadBytes(path, b, loc)
}

// LoadBytes is Load over already-read content. The watcher uses it so
// the bytes it hashed are exactly the bytes that get applied.
func LoadBytes(path string, data []byte, loc *time.Location) ([]registry.Job, error) {
	f, err := decode(path, data)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	seen := map[string]struct{}{}
	for _, e := range f.Jobs {
		if e.Name == "" {
			continue
		}
		if _, dup := seen[e.Name]; dup {
			return nil, &ConfigError{Path: path, Err: fmt.Errorf("%w: %q", ErrDuplicateName, e.Name)}
		}
		seen[e.Name] = struct{}{}
	}

	var (
		jobs []registry.Job
		errs []error
	)
	for i, e := range f.Jobs {
		job, err := e.Job(loc)
		if err != nil {
			errs = append(errs, fmt.Errorf("jobs[%d] (%s): %w", i, e.Name, err))
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, errors.Join(errs...)
}

// Job converts one entry to a registry descriptor.
func (e Entry) Job(loc *time.Location) (registry.Job, error) {
	if e.Name == "" {
		return registry.Job{}, errors.New("name required")
	}

	fields := schedule.Fields{
		Cron:        e.Schedule.Cron,
		Timezone:    e.Schedule.Timezone,
		WithSeconds: e.Schedule.WithSeconds,
	}
	var err error
	fields.Interval, fields.IntervalText, err = coerceDelay(e.Schedule.Interval, "interval")
	if err != nil {
		return registry.Job{}, err
	}
	fields.Timeout, fields.TimeoutText, err = coerceDelay(e.Schedule.Timeout, "timeout")
	if err != nil {
		return registry.Job{}, err
	}
	if e.Schedule.Date != "" {
		at, err := schedule.ParseDate(e.Schedule.Date, loc)
		if err != nil {
			return registry.Job{}, err
		}
		fields.Date = at
	}

	spec, err := schedule.New(fields)
	if err != nil {
		return registry.Job{}, err
	}

	overlap := registry.OverlapSkipIfRunning
	if e.WithoutOverlapping != nil && !*e.WithoutOverlapping {
		overlap = registry.OverlapAllow
	}
	return registry.Job{
		Name:           e.Name,
		Spec:           spec,
		Paused:         e.Paused,
		Overlap:        overlap,
		Inputs:         e.Inputs,
		ScheduleInputs: e.Schedule.Inputs,
	}, nil
}

// coerceDelay narrows a loose interval/timeout value: JSON numbers are
// milliseconds, strings are carried to the schedule text resolvers.
func coerceDelay(v any, field string) (time.Duration, string, error) {
	switch x := v.(type) {
	case nil:
		return 0, "", nil
	case string:
		return 0, x, nil
	case float64:
		if x <= 0 {
			return 0, "", fmt.Errorf("%s must be > 0", field)
		}
		return time.Duration(x) * time.Millisecond, "", nil
	case int:
		if x <= 0 {
			return 0, "", fmt.Errorf("%s must be > 0", field)
		}
		return time.Duration(x) * time.Millisecond, "", nil
	default:
		return 0, "", fmt.Errorf("%s must be a number (milliseconds) or a string", field)
	}
}

func decode(path string, data []byte) (*File, error) {
	jb, _, err := coerceToJSONBytes(path, data)
	if err != nil {
		return nil, err
	}
	var f File
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, errors.New("invalid catalog: trailing data")
		}
		return nil, err
	}
	return &f, nil
}
