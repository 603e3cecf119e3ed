package config

import (
	"fmt"
	"strings"
	"time"
)

// ParseDurationField parses one of the config's interval fields (cooldown,
// backoff, throttle windows) given as a Go duration string. Empty means
// unset; the owning component applies its own default for a zero value.
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
		return 0, fmt.Errorf("%s: negative interval %q", path, raw)
	}
	return d, nil
}
