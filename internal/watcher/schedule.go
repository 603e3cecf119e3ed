package watcher

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedule yields the wait until the next discovery cycle. Either a fixed
// interval or a cron expression.
type Schedule struct {
	every time.Duration
	cron  cron.Schedule
}

var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule accepts a Go duration ("30s", "2m30s") or a cron expression
// ("*/1 * * * *", "@every 30s", "@hourly"). Whitespace or a leading '@'
// selects cron parsing.
func ParseSchedule(raw string) (Schedule, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Schedule{}, fmt.Errorf("schedule required")
	}

	if strings.ContainsAny(s, " \t") || strings.HasPrefix(s, "@") {
		sched, err := cronParser.Parse(s)
		if err != nil {
			return Schedule{}, fmt.Errorf("invalid cron schedule %q: %w", raw, err)
		}
		return Schedule{cron: sched}, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return Schedule{}, fmt.Errorf("invalid schedule %q (use a duration like '30s' or a cron expression): %w", raw, err)
	}
	if d <= 0 {
		return Schedule{}, fmt.Errorf("schedule interval must be > 0")
	}
	return Schedule{every: d}, nil
}

// Next returns how long to wait from now until the next cycle.
func (s Schedule) Next(now time.Time) time.Duration {
	if s.cron != nil {
		d := s.cron.Next(now).Sub(now)
		if d < 0 {
			d = 0
		}
		return d
	}
	return s.every
}

func (s Schedule) IsZero() bool { return s.cron == nil && s.every == 0 }
