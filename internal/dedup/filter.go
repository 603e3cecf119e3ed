// Package dedup decides which discovered entries have never been seen,
// recording them as seen in the same step.
package dedup

import (
	"context"

	"haulbot/internal/board"
	"haulbot/pkg/logx"
)

// Admitter is the single seen-set operation the filter needs.
type Admitter interface {
	TryAdmit(ctx context.Context, id string) (bool, error)
}

type Filter struct {
	seen Admitter
	log  logx.Logger
}

func NewFilter(seen Admitter, log logx.Logger) *Filter {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Filter{seen: seen, log: log}
}

// Unseen returns the never-seen subset of entries, oldest discovered first.
//
// The board delivers batches newest-first, so the input is walked in reverse:
// when the same load id appears twice in one batch, the earliest occurrence
// is the one admitted. Entries without a load id are dropped. A storage
// error leaves that entry unadmitted (it will be retried next cycle); the
// first such error is returned alongside whatever was admitted.
func (f *Filter) Unseen(ctx context.Context, entries []board.Entry) ([]board.Entry, error) {
	var firstErr error
	out := make([]board.Entry, 0, len(entries))

	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.LoadID == "" {
			continue
		}
		admitted, err := f.seen.TryAdmit(ctx, e.LoadID)
		if err != nil {
			// Not admitted: never conflate a storage error with "seen".
			f.log.Warn("admission failed; will retry next cycle", logx.String("load", e.LoadID), logx.Err(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if admitted {
			out = append(out, e)
		}
	}
	return out, firstErr
}
