package poster

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"haulbot/internal/alert"
	"haulbot/internal/board"
	"haulbot/internal/transport"
	"haulbot/pkg/logx"
)

type Config struct {
	// Channel is the broadcast destination.
	Channel transport.ChatTarget

	// QueueSize is the entry buffer between discovery and delivery.
	// Generous by design: the queue must never drop an admitted entry.
	// <=0 means 1024.
	QueueSize int

	// Cooldown paces consecutive channel posts. <=0 means 3s.
	Cooldown time.Duration

	// RetryMax is the number of send attempts beyond the first.
	// <0 means 4.
	RetryMax int

	// RetryBase seeds the exponential backoff between attempts.
	// <=0 means 2s.
	RetryBase time.Duration
}

// Stats is a point-in-time delivery counter snapshot for /status.
type Stats struct {
	Posted  uint64
	Failed  uint64
	Skipped uint64
	Queued  int
}

// Service drains the entry queue and posts each entry to the channel,
// honoring the posting gate and pacing consecutive sends.
type Service struct {
	cfg  Config
	sink transport.Sink
	note *alert.Notifier
	log  logx.Logger

	queue chan board.Entry
	pace  *rate.Limiter

	// gate is read before every send decision and written only by
	// operator commands.
	gate atomic.Bool

	posted  atomic.Uint64
	failed  atomic.Uint64
	skipped atomic.Uint64

	sleep func(d time.Duration, cancel <-chan struct{}) bool // test hook
}
