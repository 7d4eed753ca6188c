package schedule

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	str2duration "github.com/xhit/go-str2duration/v2"
)

// Fixed unit table for the "every N <unit>" form. Schedule text is
// permissive about idiom but bare units always mean these durations.
var unitTable = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
}

// "every 5 seconds", "5 seconds", "every day".
var reUnitSpec = regexp.MustCompile(`^(?:every\s+)?(?:(\d+)\s*)?(second|minute|hour|day)s?$`)

var reShorthand = regexp.MustCompile(`^(\d+)\s*(s|m|h|d)$`)

var naturalParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// resolveIntervalText turns interval text into the next run instant.
//
// Resolution order: the literal "every N <unit>" table, then the
// natural-language resolver when the text carries a connector word
// ("at", "on the"), then a general human-duration parse. Each resolver
// is tried only after the more specific one fails.
func resolveIntervalText(text string, now time.Time) (time.Time, error) {
	s := normalizeShorthand(text)

	if d, ok := parseUnitSpec(s); ok {
		return now.Add(d), nil
	}
	if hasTemporalConnector(s) {
		if t, ok := resolveNatural(text, now); ok {
			return t, nil
		}
	}
	if d, err := str2duration.ParseDuration(strings.TrimSpace(text)); err == nil && d > 0 {
		return now.Add(d), nil
	}
	return time.Time{}, &ParseError{Input: text}
}

// resolveTimeoutText turns one-shot delay text into the run instant.
// Text starting with "at " names a wall-clock moment; bare numbers are
// an offset in milliseconds; anything else goes through the
// human-duration parser.
func resolveTimeoutText(text string, now time.Time) (time.Time, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return time.Time{}, &ParseError{Input: text}
	}
	if strings.HasPrefix(s, "at ") {
		if t, ok := resolveNatural(text, now); ok {
			return t, nil
		}
		return time.Time{}, &ParseError{Input: text}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n <= 0 {
			return time.Time{}, ErrNotScheduled
		}
		return now.Add(time.Duration(n) * time.Millisecond), nil
	}
	if d, err := str2duration.ParseDuration(strings.TrimSpace(text)); err == nil && d > 0 {
		return now.Add(d), nil
	}
	return time.Time{}, &ParseError{Input: text}
}

// normalizeShorthand expands "5s"/"10m"/"2h"/"1d" to the long word form
// so the unit table can match it.
func normalizeShorthand(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	m := reShorthand.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	var unit string
	switch m[2] {
	case "s":
		unit = "second"
	case "m":
		unit = "minute"
	case "h":
		unit = "hour"
	case "d":
		unit = "day"
	}
	return "every " + m[1] + " " + unit + "s"
}

func parseUnitSpec(s string) (time.Duration, bool) {
	m := reUnitSpec.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n := 1
	if m[1] != "" {
		v, err := strconv.Atoi(m[1])
		if err != nil || v <= 0 {
			return 0, false
		}
		n = v
	}
	base, ok := unitTable[m[2]]
	if !ok {
		return 0, false
	}
	return time.Duration(n) * base, true
}

// hasTemporalConnector reports whether the text implies a specific
// time-of-day or day-of-week rather than a plain duration.
func hasTemporalConnector(s string) bool {
	if strings.HasPrefix(s, "at ") {
		return true
	}
	return strings.Contains(s, " at ") || strings.Contains(s, "on the ")
}

// resolveNatural asks the natural-language resolver for the next
// occurrence the text names. A match at or before now is pushed to the
// next day so the result is always in the future.
func resolveNatural(text string, now time.Time) (time.Time, bool) {
	r, err := naturalParser.Parse(text, now)
	if err != nil || r == nil {
		return time.Time{}, false
	}
	t := r.Time
	if !t.After(now) {
		t = t.Add(24 * time.Hour)
	}
	return t, true
}
