package logx

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestTruncate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "under limit", in: "short", max: 100, want: "short"},
		{name: "exact limit", in: "12345", max: 5, want: "12345"},
		{name: "over limit", in: strings.Repeat("a", 20), max: 13, want: strings.Repeat("a", 10) + "..."},
		{name: "tiny limit no ellipsis", in: "abcdefgh", max: 4, want: "abcd"},
		{name: "zero max passthrough", in: "abc", max: 0, want: "abc"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Truncate(tc.in, tc.max); got != tc.want {
				t.Fatalf("Truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		" warn ":  zerolog.WarnLevel,
		"Warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
	} {
		if got := parseLevel(in, zerolog.InfoLevel); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestZeroValueLoggerIsSafe(t *testing.T) {
	t.Parallel()
	var l Logger
	if !l.IsZero() {
		t.Fatal("zero Logger not reported as zero")
	}
	// Must not panic.
	l.Info("noop")
	l.With(String("k", "v")).Error("noop", Err(nil))
}

func TestNopLoggerNotZero(t *testing.T) {
	t.Parallel()
	l := Nop()
	if l.IsZero() {
		t.Fatal("Nop logger reported as zero; callers use IsZero to detect an unset logger")
	}
	l.Warn("discarded")
}
