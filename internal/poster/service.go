// Package poster owns the entry queue and the delivery loop: the single
// consumer that turns admitted entries into channel posts.
package poster

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"haulbot/internal/alert"
	"haulbot/internal/board"
	"haulbot/internal/transport"
	"haulbot/pkg/logx"
)

func New(cfg Config, sink transport.Sink, note *alert.Notifier, log logx.Logger) *Service {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 3 * time.Second
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 4
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 2 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	s := &Service{
		cfg:   cfg,
		sink:  sink,
		note:  note,
		log:   log,
		queue: make(chan board.Entry, cfg.QueueSize),
		// One token per cooldown interval: consecutive posts are spaced
		// at least cfg.Cooldown apart.
		pace:  rate.NewLimiter(rate.Every(cfg.Cooldown), 1),
		sleep: sleepInterruptible,
	}
	s.gate.Store(true)
	return s
}

// SetPosting flips the operator gate. Disabled means dequeued entries are
// discarded without reaching the send path.
func (s *Service) SetPosting(enabled bool) { s.gate.Store(enabled) }

func (s *Service) Posting() bool { return s.gate.Load() }

func (s *Service) Stats() Stats {
	return Stats{
		Posted:  s.posted.Load(),
		Failed:  s.failed.Load(),
		Skipped: s.skipped.Load(),
		Queued:  len(s.queue),
	}
}

// Enqueue hands an admitted entry to the delivery loop. It blocks when the
// queue is full; this is the pipeline's only backpressure point. The entry
// is owned by the queue from here until the loop dequeues it.
func (s *Service) Enqueue(ctx context.Context, e board.Entry) error {
	select {
	case s.queue <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the queue until ctx is cancelled. Cancellation is observed
// between entries and inside retry sleeps; an entry pulled but not fully
// handled at shutdown is dropped, which is safe because its id is already
// in the seen-set.
func (s *Service) Run(ctx context.Context) error {
	s.log.Info("delivery loop started",
		logx.Int("queue_cap", cap(s.queue)),
		logx.Duration("cooldown", s.cfg.Cooldown),
		logx.Int("retry_max", s.cfg.RetryMax))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("delivery loop stopped", logx.Int("pending", len(s.queue)))
			return nil
		case e := <-s.queue:
			s.deliver(ctx, e)
		}
	}
}

func (s *Service) deliver(ctx context.Context, e board.Entry) {
	if !s.gate.Load() {
		// Intentional loss: the operator paused posting. No retry budget
		// consumed, no alert, and the id stays in the seen-set.
		s.skipped.Add(1)
		s.log.Info("posting disabled, skipping", logx.String("load", e.LoadID))
		return
	}

	text, err := formatMessage(e)
	if err != nil {
		// Terminal: a malformed payload won't get better with retries.
		s.failed.Add(1)
		s.log.Error("message format error", logx.String("load", e.LoadID), logx.Err(err))
		s.note.Alertf(ctx, "Message format error: %v\n\nLoad: %s", err, e.LoadID)
		return
	}

	opt := &transport.SendOptions{ParseMode: "HTML", DisablePreview: true}
	if e.RouteURL != "" {
		opt.LinkButtonText = "📍 Map"
		opt.LinkButtonURL = e.RouteURL
	}

	// Pace consecutive posts. Skips above never reach this point, so they
	// don't consume the cooldown.
	if err := s.pace.Wait(ctx); err != nil {
		return
	}

	if s.sendWithRetry(ctx, e.LoadID, text, opt) {
		s.posted.Add(1)
		s.log.Info("posted", logx.String("load", e.LoadID))
	} else {
		// Exhausted attempts is a delivery warning, not a system fault:
		// logged, counted, deliberately not escalated to the notifier.
		s.failed.Add(1)
		s.log.Warn("failed to post", logx.String("load", e.LoadID))
	}
}

func (s *Service) sendWithRetry(ctx context.Context, loadID, text string, opt *transport.SendOptions) bool {
	attempts := 1 + s.cfg.RetryMax
	for i := 0; i < attempts; i++ {
		_, err := s.sink.SendText(ctx, s.cfg.Channel, text, opt)
		if err == nil {
			return true
		}
		if i == attempts-1 {
			s.log.Error("send failed after all attempts",
				logx.String("load", loadID), logx.Int("attempts", attempts), logx.Err(err))
			return false
		}

		delay := retryDelay(s.cfg.RetryBase, i)
		s.log.Debug("send retry scheduled",
			logx.String("load", loadID), logx.Int("attempt", i+1), logx.Duration("delay", delay), logx.Err(err))
		if !s.sleep(delay, ctx.Done()) {
			return false
		}
	}
	return false
}

func sleepInterruptible(d time.Duration, cancel <-chan struct{}) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-cancel:
		return false
	}
}
