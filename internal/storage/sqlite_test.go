package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"haulbot/pkg/logx"
)

func openTestStore(t *testing.T, capacity int) SeenSet {
	t.Helper()
	s, err := Open(Config{
		Path:     filepath.Join(t.TempDir(), "seen.db"),
		Capacity: capacity,
	}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestTryAdmitIdempotent(t *testing.T) {
	t.Parallel()
	s := openTestStore(t, 100)
	ctx := context.Background()

	first, err := s.TryAdmit(ctx, "load-1")
	if err != nil {
		t.Fatalf("TryAdmit: %v", err)
	}
	if !first {
		t.Fatal("first TryAdmit should admit")
	}

	second, err := s.TryAdmit(ctx, "load-1")
	if err != nil {
		t.Fatalf("TryAdmit: %v", err)
	}
	if second {
		t.Fatal("second TryAdmit should reject")
	}
}

func TestTryAdmitEmptyID(t *testing.T) {
	t.Parallel()
	s := openTestStore(t, 100)

	if _, err := s.TryAdmit(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestTryAdmitConcurrentRace(t *testing.T) {
	t.Parallel()
	s := openTestStore(t, 100)
	ctx := context.Background()

	const workers = 32
	var wg sync.WaitGroup
	results := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.TryAdmit(ctx, "contested")
			if err != nil {
				t.Errorf("TryAdmit: %v", err)
				return
			}
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	admitted := 0
	for ok := range results {
		if ok {
			admitted++
		}
	}
	if admitted != 1 {
		t.Fatalf("admitted = %d, want exactly 1", admitted)
	}
}

func TestBoundedRetention(t *testing.T) {
	t.Parallel()
	const capacity = 5
	s := openTestStore(t, capacity)
	ctx := context.Background()

	const total = capacity + 3
	for i := 0; i < total; i++ {
		ok, err := s.TryAdmit(ctx, fmt.Sprintf("load-%d", i))
		if err != nil || !ok {
			t.Fatalf("TryAdmit(load-%d) = %v, %v", i, ok, err)
		}
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != capacity {
		t.Fatalf("Count = %d, want %d", n, capacity)
	}

	// The oldest entries were evicted, so they admit again; the newest are
	// still rejected. Insertion order is the tie-break for inserts landing
	// on the same millisecond.
	ok, err := s.TryAdmit(ctx, "load-0")
	if err != nil {
		t.Fatalf("TryAdmit: %v", err)
	}
	if !ok {
		t.Fatal("evicted id should admit again")
	}

	ok, err = s.TryAdmit(ctx, fmt.Sprintf("load-%d", total-1))
	if err != nil {
		t.Fatalf("TryAdmit: %v", err)
	}
	if ok {
		t.Fatal("newest id should still be seen")
	}
}

func TestClearAll(t *testing.T) {
	t.Parallel()
	s := openTestStore(t, 100)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.TryAdmit(ctx, fmt.Sprintf("load-%d", i)); err != nil {
			t.Fatalf("TryAdmit: %v", err)
		}
	}
	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Fatalf("Count after clear = %d, want 0", n)
	}

	ok, err := s.TryAdmit(ctx, "load-0")
	if err != nil {
		t.Fatalf("TryAdmit: %v", err)
	}
	if !ok {
		t.Fatal("cleared id should admit again")
	}

	// Clearing an empty store is fine.
	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll on empty store: %v", err)
	}
}

func TestSeqSurvivesReopen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "seen.db")
	ctx := context.Background()

	s1, err := Open(Config{Path: path, Capacity: 10}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := s1.TryAdmit(ctx, fmt.Sprintf("a-%d", i)); err != nil {
			t.Fatalf("TryAdmit: %v", err)
		}
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(Config{Path: path, Capacity: 10}, logx.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	ok, err := s2.TryAdmit(ctx, "a-0")
	if err != nil {
		t.Fatalf("TryAdmit: %v", err)
	}
	if ok {
		t.Fatal("previously admitted id should survive a restart")
	}
	n, err := s2.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Fatalf("Count = %d, want 3", n)
	}
}
