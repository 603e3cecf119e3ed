package board

import (
	"strings"
	"time"
)

const displayTimeLayout = "01/02/2006 03:04 PM"

// formatTime normalizes the board's assorted timestamp shapes to
// "MM/DD/YYYY HH:MM AM/PM". Unparseable values pass through unchanged so a
// weird upstream format degrades to raw display, not a dropped load.
func formatTime(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "Not specified"
	}

	// ISO 8601, with or without Z.
	if strings.Contains(s, "T") {
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format(displayTimeLayout)
			}
		}
		return s
	}

	// "MM-DD-YYYY HH:MM"
	if strings.Contains(s, "-") && strings.Contains(s, ":") {
		if t, err := time.Parse("01-02-2006 15:04", s); err == nil {
			return t.Format(displayTimeLayout)
		}
		return s
	}

	return s
}
