package watcher

import (
	"testing"
	"time"
)

func TestParseSchedule(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		raw     string
		wantErr bool
		// wantEvery checks the fixed-interval branch; cron branches are
		// checked via Next below.
		wantEvery time.Duration
	}{
		{name: "duration seconds", raw: "30s", wantEvery: 30 * time.Second},
		{name: "duration compound", raw: "2m30s", wantEvery: 150 * time.Second},
		{name: "duration padded", raw: "  45s  ", wantEvery: 45 * time.Second},
		{name: "cron five fields", raw: "*/5 * * * *"},
		{name: "cron descriptor", raw: "@hourly"},
		{name: "cron every", raw: "@every 90s"},
		{name: "empty", raw: "", wantErr: true},
		{name: "blank", raw: "   ", wantErr: true},
		{name: "garbage", raw: "soonish", wantErr: true},
		{name: "negative duration", raw: "-10s", wantErr: true},
		{name: "zero duration", raw: "0s", wantErr: true},
		{name: "bad cron", raw: "* * *", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s, err := ParseSchedule(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseSchedule(%q) = %+v, want error", tc.raw, s)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSchedule(%q): %v", tc.raw, err)
			}
			if s.IsZero() {
				t.Fatalf("ParseSchedule(%q) returned zero schedule", tc.raw)
			}
			if tc.wantEvery != 0 && s.every != tc.wantEvery {
				t.Fatalf("every = %v, want %v", s.every, tc.wantEvery)
			}
		})
	}
}

func TestScheduleNextFixedInterval(t *testing.T) {
	t.Parallel()
	s, err := ParseSchedule("30s")
	if err != nil {
		t.Fatalf("ParseSchedule: %v", err)
	}
	if got := s.Next(time.Now()); got != 30*time.Second {
		t.Fatalf("Next = %v, want 30s", got)
	}
}

func TestScheduleNextCron(t *testing.T) {
	t.Parallel()
	s, err := ParseSchedule("*/5 * * * *")
	if err != nil {
		t.Fatalf("ParseSchedule: %v", err)
	}
	now := time.Date(2026, 1, 15, 12, 3, 0, 0, time.UTC)
	if got := s.Next(now); got != 2*time.Minute {
		t.Fatalf("Next = %v, want 2m", got)
	}
}
