package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"haulbot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteSeenSet struct {
	db       *sql.DB
	log      logx.Logger
	capacity int

	// seq is a process-monotonic insertion counter used as the eviction
	// tie-break when two rows share an observed_at millisecond.
	seq atomic.Int64
}

// Open initializes the seen-set database.
func Open(cfg Config, log logx.Logger) (SeenSet, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("storage path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a single writer; one connection is also what makes
	// TryAdmit's insert the serialization point for concurrent callers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	s := &sqliteSeenSet{db: db, log: log, capacity: capacity}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Seed the sequence from whatever an earlier process left behind.
	var maxSeq sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(seq) FROM seen_loads`).Scan(&maxSeq); err == nil && maxSeq.Valid {
		s.seq.Store(maxSeq.Int64)
	}

	return s, nil
}

func (s *sqliteSeenSet) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteSeenSet) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteSeenSet) TryAdmit(ctx context.Context, id string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, errors.New("empty load id")
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO seen_loads(load_id, observed_at, seq) VALUES(?,?,?)
		 ON CONFLICT(load_id) DO NOTHING`,
		id, time.Now().UnixMilli(), s.seq.Add(1),
	)
	if err != nil {
		return false, fmt.Errorf("admit %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("admit %s: %w", id, err)
	}
	if n == 0 {
		return false, nil
	}

	// Capacity maintenance. Eviction failure never fails the admission.
	if err := s.prune(ctx); err != nil {
		s.log.Warn("seen-set prune failed", logx.Err(err))
	}
	return true, nil
}

// prune deletes oldest rows until the count is back at capacity. Ordering is
// observed_at then seq, so same-millisecond inserts evict in insertion order.
func (s *sqliteSeenSet) prune(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM seen_loads WHERE load_id IN (
		     SELECT load_id FROM seen_loads
		     ORDER BY observed_at DESC, seq DESC
		     LIMIT -1 OFFSET ?
		 )`,
		s.capacity,
	)
	return err
}

func (s *sqliteSeenSet) ClearAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM seen_loads`)
	if err != nil {
		return fmt.Errorf("clear seen-set: %w", err)
	}
	return nil
}

func (s *sqliteSeenSet) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM seen_loads`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
