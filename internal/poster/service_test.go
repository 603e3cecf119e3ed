package poster

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"haulbot/internal/board"
	"haulbot/internal/transport"
	"haulbot/pkg/logx"
)

type fakeSink struct {
	mu    sync.Mutex
	texts []string
	opts  []*transport.SendOptions

	// failures is consumed one error per call until empty, then sends
	// succeed.
	failures []error
}

func (f *fakeSink) SendText(_ context.Context, _ transport.ChatTarget, text string, opt *transport.SendOptions) (transport.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	f.opts = append(f.opts, opt)
	if len(f.failures) > 0 {
		err := f.failures[0]
		f.failures = f.failures[1:]
		return transport.MessageRef{}, err
	}
	return transport.MessageRef{MessageID: len(f.texts)}, nil
}

func (f *fakeSink) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.texts)
}

func (f *fakeSink) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

func testEntry(id string) board.Entry {
	return board.Entry{LoadID: id, Stops: []string{"MIAMI, FL 33101"}}
}

func newTestService(t *testing.T, sink transport.Sink, cfg Config) *Service {
	t.Helper()
	if cfg.Cooldown == 0 {
		cfg.Cooldown = time.Millisecond
	}
	s := New(cfg, sink, nil, logx.Nop())
	// Retries complete instantly in tests; the hook still honors
	// cancellation like the real sleep does.
	s.sleep = func(_ time.Duration, cancel <-chan struct{}) bool {
		select {
		case <-cancel:
			return false
		default:
			return true
		}
	}
	return s
}

func TestDeliverSkipsWhenDisabled(t *testing.T) {
	t.Parallel()
	sink := &fakeSink{}
	s := newTestService(t, sink, Config{})
	s.SetPosting(false)

	s.deliver(context.Background(), testEntry("L1"))

	if got := sink.calls(); got != 0 {
		t.Fatalf("sink called %d times while posting disabled", got)
	}
	st := s.Stats()
	if st.Skipped != 1 || st.Posted != 0 || st.Failed != 0 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestDeliverPostsEntry(t *testing.T) {
	t.Parallel()
	sink := &fakeSink{}
	s := newTestService(t, sink, Config{})

	e := testEntry("L1")
	e.RouteURL = "https://maps.example/route"
	s.deliver(context.Background(), e)

	if got := sink.calls(); got != 1 {
		t.Fatalf("sink called %d times, want 1", got)
	}
	if !strings.Contains(sink.sent()[0], "<code>L1</code>") {
		t.Fatalf("sent text missing load id: %s", sink.sent()[0])
	}
	opt := sink.opts[0]
	if opt.ParseMode != "HTML" || !opt.DisablePreview {
		t.Fatalf("unexpected send options: %+v", opt)
	}
	if opt.LinkButtonURL != e.RouteURL {
		t.Fatalf("route button url = %q, want %q", opt.LinkButtonURL, e.RouteURL)
	}
	if st := s.Stats(); st.Posted != 1 {
		t.Fatalf("posted = %d, want 1", st.Posted)
	}
}

func TestDeliverFormatErrorIsTerminal(t *testing.T) {
	t.Parallel()
	sink := &fakeSink{}
	s := newTestService(t, sink, Config{})

	s.deliver(context.Background(), board.Entry{LoadID: "L1"}) // no stops

	if got := sink.calls(); got != 0 {
		t.Fatalf("sink called %d times for malformed entry", got)
	}
	if st := s.Stats(); st.Failed != 1 {
		t.Fatalf("failed = %d, want 1", st.Failed)
	}
}

func TestDeliverRetriesThenSucceeds(t *testing.T) {
	t.Parallel()
	sink := &fakeSink{failures: []error{errors.New("flood"), errors.New("flood")}}
	s := newTestService(t, sink, Config{RetryMax: 3})

	s.deliver(context.Background(), testEntry("L1"))

	if got := sink.calls(); got != 3 {
		t.Fatalf("sink called %d times, want 3", got)
	}
	st := s.Stats()
	if st.Posted != 1 || st.Failed != 0 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestDeliverExhaustsRetries(t *testing.T) {
	t.Parallel()
	sink := &fakeSink{failures: []error{
		errors.New("down"), errors.New("down"), errors.New("down"),
	}}
	s := newTestService(t, sink, Config{RetryMax: 2})

	s.deliver(context.Background(), testEntry("L1"))

	if got := sink.calls(); got != 3 {
		t.Fatalf("sink called %d times, want 3 (1 attempt + 2 retries)", got)
	}
	st := s.Stats()
	if st.Failed != 1 || st.Posted != 0 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestRunDeliversInOrder(t *testing.T) {
	t.Parallel()
	sink := &fakeSink{}
	s := newTestService(t, sink, Config{QueueSize: 8})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()

	ids := []string{"A", "B", "C"}
	for _, id := range ids {
		if err := s.Enqueue(ctx, testEntry(id)); err != nil {
			t.Fatalf("Enqueue(%s): %v", id, err)
		}
	}

	deadline := time.After(5 * time.Second)
	for sink.calls() < len(ids) {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for delivery, got %d posts", sink.calls())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	for i, id := range ids {
		if !strings.Contains(sink.sent()[i], "<code>"+id+"</code>") {
			t.Fatalf("post %d out of order: %s", i, sink.sent()[i])
		}
	}
}

func TestEnqueueHonorsCancellation(t *testing.T) {
	t.Parallel()
	s := newTestService(t, &fakeSink{}, Config{QueueSize: 1})

	ctx := context.Background()
	if err := s.Enqueue(ctx, testEntry("A")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := s.Enqueue(cancelled, testEntry("B")); !errors.Is(err, context.Canceled) {
		t.Fatalf("Enqueue on full queue with cancelled ctx: %v", err)
	}
}
