package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Kind describes the normalized form of a schedule.
type Kind int

const (
	KindCron Kind = iota
	KindInterval
	KindTimeout
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindCron:
		return "cron"
	case KindInterval:
		return "interval"
	case KindTimeout:
		return "timeout"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

// Spec is one schedule form. The implementations form a closed set
// (Cron, Interval, Timeout, Date), which enforces mutual exclusivity
// of the forms at the type level.
type Spec interface {
	Kind() Kind
	// Recurring reports whether the form re-arms after each firing.
	Recurring() bool
}

// Cron runs on a cron grid in a fixed location.
type Cron struct {
	Expr string
	// Location the expression is evaluated in. Nil means time.Local.
	Location *time.Location
	// WithSeconds switches to the 6-field parser (leading seconds field).
	WithSeconds bool
}

func (Cron) Kind() Kind      { return KindCron }
func (Cron) Recurring() bool { return true }

// Interval runs every fixed duration. Exactly one of Every/Text is set:
// Every when the interval was given as a duration (or a numeric
// millisecond count), Text when it was given as human text. Text is
// re-resolved on every NextRun call so phrases that name a time of day
// keep pointing at the next occurrence.
type Interval struct {
	Every time.Duration
	Text  string
}

func (Interval) Kind() Kind      { return KindInterval }
func (Interval) Recurring() bool { return true }

// Timeout runs once after a delay.
type Timeout struct {
	After time.Duration
	Text  string
}

func (Timeout) Kind() Kind      { return KindTimeout }
func (Timeout) Recurring() bool { return false }

// Date runs once at an absolute instant.
type Date struct {
	At time.Time
}

func (Date) Kind() Kind      { return KindDate }
func (Date) Recurring() bool { return false }

// ErrConflictingForms marks a descriptor that sets more than one
// schedule form. This is a configuration fault, not a scheduling outcome.
var ErrConflictingForms = errors.New("conflicting schedule forms")

// Fields is the loose, declarative shape a schedule arrives in
// (catalog entry or runtime add) before it is narrowed to a Spec.
type Fields struct {
	Cron        string
	Timezone    string
	WithSeconds bool

	Interval     time.Duration
	IntervalText string

	Timeout     time.Duration
	TimeoutText string

	Date time.Time
}

// New narrows loose fields to a single Spec.
//
// It returns (nil, nil) when no form is set: such a job is valid but
// never armed, it can only be triggered manually.
func New(f Fields) (Spec, error) {
	hasCron := strings.TrimSpace(f.Cron) != ""
	hasInterval := f.Interval > 0 || strings.TrimSpace(f.IntervalText) != ""
	hasTimeout := f.Timeout > 0 || strings.TrimSpace(f.TimeoutText) != ""
	hasDate := !f.Date.IsZero()

	if hasDate && hasTimeout {
		return nil, fmt.Errorf("%w: date and timeout are mutually exclusive", ErrConflictingForms)
	}
	set := 0
	for _, ok := range []bool{hasCron, hasInterval, hasTimeout, hasDate} {
		if ok {
			set++
		}
	}
	if set > 1 {
		return nil, fmt.Errorf("%w: exactly one of cron, interval, timeout, date may be set", ErrConflictingForms)
	}

	switch {
	case hasCron:
		loc, err := loadLocation(f.Timezone)
		if err != nil {
			return nil, err
		}
		return Cron{Expr: strings.TrimSpace(f.Cron), Location: loc, WithSeconds: f.WithSeconds}, nil
	case hasInterval:
		return Interval{Every: f.Interval, Text: strings.TrimSpace(f.IntervalText)}, nil
	case hasTimeout:
		return Timeout{After: f.Timeout, Text: strings.TrimSpace(f.TimeoutText)}, nil
	case hasDate:
		return Date{At: f.Date}, nil
	default:
		return nil, nil
	}
}

func loadLocation(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return loc, nil
}

// ParseDate parses a textual absolute date in the given location
// (nil means time.Local). It accepts the usual machine formats
// (RFC3339, "2006-01-02 15:04:05", unix-style) plus common loose ones.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return time.Time{}, &ParseError{Input: s, Err: err}
	}
	return t, nil
}
