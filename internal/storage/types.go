package storage

import (
	"context"
	"time"
)

// Config configures the seen-set database.
type Config struct {
	Path string

	// Capacity bounds the number of retained rows. After a successful
	// admission pushes the count above Capacity, the oldest rows are
	// evicted until the count is back at Capacity. <=0 means default.
	Capacity int

	BusyTimeout time.Duration // 0 means default
}

const DefaultCapacity = 2000

// SeenSet records which load ids have already been admitted.
type SeenSet interface {
	// TryAdmit inserts id with the current timestamp iff it is not already
	// present, and reports whether the insert happened. An error means the
	// admission did NOT happen; callers must never treat a storage error
	// as "seen".
	TryAdmit(ctx context.Context, id string) (bool, error)

	// ClearAll wipes every record. Idempotent.
	ClearAll(ctx context.Context) error

	Count(ctx context.Context) (int, error)
	Close() error
}
