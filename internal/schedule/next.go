package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrNotScheduled reports that a spec yields no future run: a past date,
// an exhausted cron grid, or no schedule form at all. It is a normal
// outcome, not a fault; callers leave the job idle.
var ErrNotScheduled = errors.New("not scheduled")

// ParseError reports schedule text that none of the resolvers accepted.
// The job stays registered and can still be run manually.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unparseable schedule %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("unparseable schedule %q", e.Input)
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	standardParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	secondsParser  = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
)

// NextRun resolves spec to the next run instant strictly after now.
//
// A nil spec and a past absolute date both return ErrNotScheduled.
// Malformed cron or schedule text returns *ParseError so the caller can
// report it and leave the job idle.
func NextRun(spec Spec, now time.Time) (time.Time, error) {
	switch s := spec.(type) {
	case nil:
		return time.Time{}, ErrNotScheduled
	case Cron:
		return nextCron(s, now)
	case Interval:
		if s.Every > 0 {
			return now.Add(s.Every), nil
		}
		return resolveIntervalText(s.Text, now)
	case Timeout:
		if s.After > 0 {
			return now.Add(s.After), nil
		}
		return resolveTimeoutText(s.Text, now)
	case Date:
		if s.At.After(now) {
			return s.At, nil
		}
		return time.Time{}, ErrNotScheduled
	default:
		return time.Time{}, ErrNotScheduled
	}
}

func nextCron(s Cron, now time.Time) (time.Time, error) {
	p := standardParser
	if s.WithSeconds {
		p = secondsParser
	}
	sched, err := p.Parse(s.Expr)
	if err != nil {
		return time.Time{}, &ParseError{Input: s.Expr, Err: err}
	}
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	// cron.Schedule.Next is strictly after its argument.
	next := sched.Next(now.In(loc))
	if next.IsZero() {
		return time.Time{}, ErrNotScheduled
	}
	return next, nil
}
