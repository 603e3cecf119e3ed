package dedup

import (
	"context"
	"errors"
	"sync"
	"testing"

	"haulbot/internal/board"
	"haulbot/pkg/logx"
)

// fakeSeen is an in-memory Admitter with optional per-id failures.
type fakeSeen struct {
	mu    sync.Mutex
	seen  map[string]bool
	fails map[string]error
}

func newFakeSeen() *fakeSeen {
	return &fakeSeen{seen: map[string]bool{}, fails: map[string]error{}}
}

func (f *fakeSeen) TryAdmit(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fails[id]; err != nil {
		return false, err
	}
	if f.seen[id] {
		return false, nil
	}
	f.seen[id] = true
	return true, nil
}

func ids(entries []board.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.LoadID)
	}
	return out
}

func entriesOf(loadIDs ...string) []board.Entry {
	out := make([]board.Entry, 0, len(loadIDs))
	for _, id := range loadIDs {
		out = append(out, board.Entry{LoadID: id})
	}
	return out
}

func TestUnseenReversesToDiscoveryOrder(t *testing.T) {
	t.Parallel()
	f := NewFilter(newFakeSeen(), logx.Nop())

	// Board batches arrive newest-first: C is newest, A oldest.
	got, err := f.Unseen(context.Background(), entriesOf("C", "B", "A"))
	if err != nil {
		t.Fatalf("Unseen: %v", err)
	}
	want := []string{"A", "B", "C"}
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("got %v, want %v", gotIDs, want)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("got %v, want %v", gotIDs, want)
		}
	}
}

func TestUnseenDuplicateInBatch(t *testing.T) {
	t.Parallel()
	f := NewFilter(newFakeSeen(), logx.Nop())

	got, err := f.Unseen(context.Background(), entriesOf("X", "X"))
	if err != nil {
		t.Fatalf("Unseen: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1", len(got))
	}
}

func TestUnseenDropsEmptyIDs(t *testing.T) {
	t.Parallel()
	f := NewFilter(newFakeSeen(), logx.Nop())

	got, err := f.Unseen(context.Background(), entriesOf("A", "", "B"))
	if err != nil {
		t.Fatalf("Unseen: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %v, want [B A] only", ids(got))
	}
}

func TestUnseenFiltersAlreadySeen(t *testing.T) {
	t.Parallel()
	seen := newFakeSeen()
	f := NewFilter(seen, logx.Nop())
	ctx := context.Background()

	if _, err := f.Unseen(ctx, entriesOf("A", "B")); err != nil {
		t.Fatalf("Unseen: %v", err)
	}
	got, err := f.Unseen(ctx, entriesOf("C", "B", "A"))
	if err != nil {
		t.Fatalf("Unseen: %v", err)
	}
	if len(got) != 1 || got[0].LoadID != "C" {
		t.Fatalf("got %v, want [C]", ids(got))
	}
}

func TestUnseenStorageErrorIsNotSeen(t *testing.T) {
	t.Parallel()
	seen := newFakeSeen()
	ioErr := errors.New("disk gone")
	seen.fails["B"] = ioErr
	f := NewFilter(seen, logx.Nop())
	ctx := context.Background()

	got, err := f.Unseen(ctx, entriesOf("C", "B", "A"))
	if !errors.Is(err, ioErr) {
		t.Fatalf("err = %v, want %v", err, ioErr)
	}
	gotIDs := ids(got)
	if len(gotIDs) != 2 || gotIDs[0] != "A" || gotIDs[1] != "C" {
		t.Fatalf("got %v, want [A C]", gotIDs)
	}

	// The failed id was never marked seen: it is admitted next cycle.
	delete(seen.fails, "B")
	got, err = f.Unseen(ctx, entriesOf("B"))
	if err != nil {
		t.Fatalf("Unseen: %v", err)
	}
	if len(got) != 1 || got[0].LoadID != "B" {
		t.Fatalf("got %v, want [B]", ids(got))
	}
}
