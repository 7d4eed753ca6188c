package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestNewNarrowsForms(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		fields Fields
		kind   Kind
	}{
		{name: "cron", fields: Fields{Cron: "*/5 * * * *"}, kind: KindCron},
		{name: "interval duration", fields: Fields{Interval: 5 * time.Second}, kind: KindInterval},
		{name: "interval text", fields: Fields{IntervalText: "every 5 seconds"}, kind: KindInterval},
		{name: "timeout", fields: Fields{Timeout: time.Minute}, kind: KindTimeout},
		{name: "date", fields: Fields{Date: time.Now().Add(time.Hour)}, kind: KindDate},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			spec, err := New(tt.fields)
			if err != nil {
				t.Fatalf("New error: %v", err)
			}
			if spec == nil {
				t.Fatal("New returned nil spec")
			}
			if spec.Kind() != tt.kind {
				t.Fatalf("Kind = %v, want %v", spec.Kind(), tt.kind)
			}
		})
	}
}

func TestNewEmptyIsManualOnly(t *testing.T) {
	t.Parallel()
	spec, err := New(Fields{})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if spec != nil {
		t.Fatalf("expected nil spec for empty fields, got %v", spec.Kind())
	}
}

func TestNewRejectsConflictingForms(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		fields Fields
	}{
		{name: "date and timeout", fields: Fields{Date: time.Now().Add(time.Hour), Timeout: time.Minute}},
		{name: "cron and interval", fields: Fields{Cron: "* * * * *", Interval: time.Second}},
		{name: "cron and date", fields: Fields{Cron: "* * * * *", Date: time.Now().Add(time.Hour)}},
		{name: "interval and timeout text", fields: Fields{Interval: time.Second, TimeoutText: "5m"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.fields)
			if !errors.Is(err, ErrConflictingForms) {
				t.Fatalf("err = %v, want ErrConflictingForms", err)
			}
		})
	}
}

func TestNewInvalidTimezone(t *testing.T) {
	t.Parallel()
	if _, err := New(Fields{Cron: "* * * * *", Timezone: "Not/AZone"}); err == nil {
		t.Fatal("expected error for invalid timezone")
	}
}

func TestRecurring(t *testing.T) {
	t.Parallel()
	if !(Cron{}).Recurring() || !(Interval{}).Recurring() {
		t.Fatal("cron and interval must be recurring")
	}
	if (Timeout{}).Recurring() || (Date{}).Recurring() {
		t.Fatal("timeout and date must be one-shot")
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()
	got, err := ParseDate("2099-06-01 15:04:05", time.UTC)
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}
	want := time.Date(2099, 6, 1, 15, 4, 5, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("ParseDate = %v, want %v", got, want)
	}

	if _, err := ParseDate("not a date at all", time.UTC); err == nil {
		t.Fatal("expected error for garbage date")
	}
	var perr *ParseError
	_, err = ParseDate("###", time.UTC)
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
}
