// Package watcher runs the discovery loop: fetch candidates from the board,
// filter to never-seen entries, hand them to the delivery queue.
package watcher

import (
	"context"
	"time"

	"haulbot/internal/alert"
	"haulbot/internal/board"
	"haulbot/internal/dedup"
	"haulbot/internal/poster"
	"haulbot/pkg/logx"
)

type Config struct {
	// Schedule drives the normal cycle cadence. Zero means every 30s.
	Schedule Schedule

	// FailureBackoff replaces the normal wait after a failed cycle. It
	// should exceed the poll interval so a broken upstream doesn't
	// hot-loop. <=0 means 60s.
	FailureBackoff time.Duration
}

type Service struct {
	cfg    Config
	source board.Source
	filter *dedup.Filter
	sink   *poster.Service
	note   *alert.Notifier
	log    logx.Logger
}

func New(cfg Config, source board.Source, filter *dedup.Filter, sink *poster.Service, note *alert.Notifier, log logx.Logger) *Service {
	if cfg.Schedule.IsZero() {
		cfg.Schedule = Schedule{every: 30 * time.Second}
	}
	if cfg.FailureBackoff <= 0 {
		cfg.FailureBackoff = 60 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{cfg: cfg, source: source, filter: filter, sink: sink, note: note, log: log}
}

// Run executes discovery cycles until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	s.log.Info("discovery loop started", logx.Duration("failure_backoff", s.cfg.FailureBackoff))

	for {
		wait := s.cfg.Schedule.Next(time.Now())
		if err := s.cycle(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Error("discovery cycle failed", logx.Err(err))
			s.note.Alertf(ctx, "Scraper error: %v", err)
			wait = s.cfg.FailureBackoff
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			s.log.Info("discovery loop stopped")
			return nil
		case <-t.C:
		}
	}
}

func (s *Service) cycle(ctx context.Context) error {
	batch, err := s.source.FetchCandidates(ctx)
	if err != nil {
		return err
	}

	// Admission happens inside Unseen, before anything is enqueued, so a
	// later cancellation can only drop entries that are already recorded
	// as seen.
	unseen, err := s.filter.Unseen(ctx, batch)
	if len(unseen) > 0 {
		s.log.Info("admitted new entries", logx.Int("count", len(unseen)), logx.Int("batch", len(batch)))
	}
	for _, e := range unseen {
		if qerr := s.sink.Enqueue(ctx, e); qerr != nil {
			return qerr
		}
	}
	return err
}
