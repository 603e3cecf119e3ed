// Package alert delivers throttled failure notifications to operators.
// Systemic failures (scrape errors, formatting errors, fatal loop errors)
// go through here; per-message delivery exhaustion deliberately does not.
package alert

import (
	"context"
	"fmt"
	"html"
	"sync"
	"time"

	"haulbot/internal/transport"
	"haulbot/pkg/logx"
)

type Config struct {
	Enabled bool

	// MinInterval suppresses alerts sent sooner than this after the
	// previous one. <=0 means 60s.
	MinInterval time.Duration

	// MaxLen truncates alert bodies. <=0 means 3500.
	MaxLen int
}

type Notifier struct {
	cfg        Config
	sink       transport.Sink
	recipients []transport.ChatTarget
	log        logx.Logger

	// mu makes the elapsed-check plus timestamp-update atomic so two
	// concurrent failures can't both pass the throttle.
	mu       sync.Mutex
	lastSent time.Time

	now func() time.Time // test hook
}

func NewNotifier(cfg Config, sink transport.Sink, recipients []transport.ChatTarget, log logx.Logger) *Notifier {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 60 * time.Second
	}
	if cfg.MaxLen <= 0 {
		cfg.MaxLen = 3500
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Notifier{
		cfg:        cfg,
		sink:       sink,
		recipients: recipients,
		log:        log,
		now:        time.Now,
	}
}

// Alert sends msg to every recipient unless a previous alert went out within
// MinInterval, in which case the call is a silent no-op. Each recipient send
// is independent and best-effort.
func (n *Notifier) Alert(ctx context.Context, msg string) {
	if n == nil || !n.cfg.Enabled || n.sink == nil {
		return
	}

	n.mu.Lock()
	now := n.now()
	if since := now.Sub(n.lastSent); !n.lastSent.IsZero() && since < n.cfg.MinInterval {
		n.mu.Unlock()
		n.log.Debug("alert suppressed by throttle", logx.Duration("since_last", since))
		return
	}
	n.lastSent = now
	n.mu.Unlock()

	// Error strings routinely quote upstream HTML (error pages, tags); an
	// unescaped body makes Telegram reject the alert exactly when it is
	// needed.
	body := html.EscapeString(logx.Truncate(msg, n.cfg.MaxLen))
	text := fmt.Sprintf(
		"🚨 <b>Bot Error Alert</b> 🚨\n\n<pre>%s</pre>\n\n<b>Time:</b> %s",
		body, now.Format("2006-01-02 15:04:05"),
	)
	opt := &transport.SendOptions{ParseMode: "HTML", DisablePreview: true}

	for _, to := range n.recipients {
		if _, err := n.sink.SendText(ctx, to, text, opt); err != nil {
			n.log.Error("alert delivery failed", logx.Int64("chat_id", to.ChatID), logx.Err(err))
		}
	}
}

// Alertf is Alert with formatting.
func (n *Notifier) Alertf(ctx context.Context, format string, args ...any) {
	n.Alert(ctx, fmt.Sprintf(format, args...))
}
