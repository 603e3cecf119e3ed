// Package app wires the pipeline together: config, storage, transport,
// discovery and delivery loops, operator commands.
package app

import (
	"context"
	"fmt"

	"haulbot/internal/alert"
	"haulbot/internal/board"
	"haulbot/internal/cities"
	"haulbot/internal/config"
	"haulbot/internal/dedup"
	"haulbot/internal/poster"
	"haulbot/internal/runtime/supervisor"
	"haulbot/internal/storage"
	"haulbot/internal/transport"
	"haulbot/internal/transport/telegram"
	"haulbot/internal/watcher"
	"haulbot/pkg/logx"
)

type App struct {
	cfgMgr *config.Manager
	logSvc *logx.Service
	log    logx.Logger

	adapter *telegram.Adapter
	seen    storage.SeenSet
	cities  *cities.Manager
	post    *poster.Service
	watch   *watcher.Service
	note    *alert.Notifier

	sup *supervisor.Supervisor
}

func New(cfgPath string) (*App, error) {
	boot := logx.NewConsole("info")

	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	pollTimeout, err := config.ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout)
	if err != nil {
		return nil, err
	}
	adapter, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
		AdminIDs:    cfg.Telegram.AdminIDs,
	}, boot)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}

	logSvc, log := logx.New(logConfig(cfg.Logging), adapter)
	if cfg.Logging.Mirror.Enabled && len(cfg.Telegram.AdminIDs) > 0 {
		logSvc.SetTelegramTarget(transport.ChatTarget{ChatID: cfg.Telegram.AdminIDs[0]})
	}
	adapter.SetLogger(log.With(logx.String("comp", "telegram")))
	mgr.SetLogger(log.With(logx.String("comp", "config")))

	a := &App{cfgMgr: mgr, logSvc: logSvc, log: log, adapter: adapter}
	if err := a.build(cfg); err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	return a, nil
}

func logConfig(c config.LoggingConfig) logx.Config {
	return logx.Config{
		Level:   c.Level,
		Console: c.Console,
		File:    logx.FileConfig{Enabled: c.File.Enabled, Path: c.File.Path},
		Telegram: logx.TelegramConfig{
			Enabled:    c.Mirror.Enabled,
			MinLevel:   c.Mirror.MinLevel,
			RatePerSec: c.Mirror.RatePerSec,
		},
	}
}

func (a *App) build(cfg *config.Config) error {
	busy, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return err
	}
	seen, err := storage.Open(storage.Config{
		Path:        cfg.Storage.Path,
		Capacity:    cfg.Storage.Capacity,
		BusyTimeout: busy,
	}, a.log.With(logx.String("comp", "storage")))
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	a.seen = seen

	citiesFile := cfg.Board.CitiesFile
	if citiesFile == "" {
		citiesFile = "./cities.json"
	}
	cityMgr, err := cities.NewManager(citiesFile, a.log.With(logx.String("comp", "cities")))
	if err != nil {
		return fmt.Errorf("cities: %w", err)
	}
	a.cities = cityMgr

	reqTimeout, err := config.ParseDurationField("board.request_timeout", cfg.Board.RequestTimeout)
	if err != nil {
		return err
	}
	source, err := board.NewClient(board.ClientConfig{
		APIURL:  cfg.Board.APIURL,
		Timeout: reqTimeout,
	}, cityMgr, a.log.With(logx.String("comp", "board")))
	if err != nil {
		return fmt.Errorf("board: %w", err)
	}

	channel, err := a.adapter.ResolveChat(cfg.Telegram.Channel)
	if err != nil {
		return fmt.Errorf("resolve channel %q: %w", cfg.Telegram.Channel, err)
	}

	minInterval, err := config.ParseDurationField("alerts.min_interval", cfg.Alerts.MinInterval)
	if err != nil {
		return err
	}
	recipients := make([]transport.ChatTarget, 0, len(cfg.Telegram.AdminIDs))
	for _, id := range cfg.Telegram.AdminIDs {
		recipients = append(recipients, transport.ChatTarget{ChatID: id})
	}
	a.note = alert.NewNotifier(alert.Config{
		Enabled:     cfg.Alerts.Enabled,
		MinInterval: minInterval,
		MaxLen:      cfg.Alerts.MaxLen,
	}, a.adapter, recipients, a.log.With(logx.String("comp", "alert")))

	cooldown, err := config.ParseDurationField("poster.cooldown", cfg.Poster.Cooldown)
	if err != nil {
		return err
	}
	retryBase, err := config.ParseDurationField("poster.retry_base", cfg.Poster.RetryBase)
	if err != nil {
		return err
	}
	retryMax := cfg.Poster.RetryMax
	if retryMax == 0 {
		retryMax = -1 // take the poster default
	}
	a.post = poster.New(poster.Config{
		Channel:   channel,
		QueueSize: cfg.Poster.QueueSize,
		Cooldown:  cooldown,
		RetryMax:  retryMax,
		RetryBase: retryBase,
	}, a.adapter, a.note, a.log.With(logx.String("comp", "poster")))

	filter := dedup.NewFilter(seen, a.log.With(logx.String("comp", "dedup")))

	schedule := watcher.Schedule{}
	if s := cfg.Discovery.Schedule; s != "" {
		schedule, err = watcher.ParseSchedule(s)
		if err != nil {
			return err
		}
	}
	failBackoff, err := config.ParseDurationField("discovery.failure_backoff", cfg.Discovery.FailureBackoff)
	if err != nil {
		return err
	}
	a.watch = watcher.New(watcher.Config{
		Schedule:       schedule,
		FailureBackoff: failBackoff,
	}, source, filter, a.post, a.note, a.log.With(logx.String("comp", "watcher")))

	return a.adapter.BindOps(telegram.Ops{
		SetPosting: a.post.SetPosting,
		Posting:    a.post.Posting,
		Status:     a.statusText,
		ClearLoads: seen.ClearAll,
		AddCity:    cityMgr.Add,
		RemoveCity: cityMgr.Remove,
		ListCities: cityMgr.All,
	})
}

func (a *App) statusText(ctx context.Context) string {
	st := a.post.Stats()
	gate := "🔴 Disabled"
	if a.post.Posting() {
		gate = "🟢 Enabled"
	}
	seen := "?"
	if n, err := a.seen.Count(ctx); err == nil {
		seen = fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf(
		"📊 <b>Posting Status:</b> %s\n\n"+
			"Posted: %d\nFailed: %d\nSkipped: %d\nQueued: %d\nSeen loads: %s",
		gate, st.Posted, st.Failed, st.Skipped, st.Queued, seen,
	)
}

// Start launches the adapter and both pipeline loops.
func (a *App) Start(ctx context.Context) error {
	if err := a.adapter.Start(ctx); err != nil {
		return err
	}

	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))))
	a.sup.GoRestart("watcher", a.watch.Run)
	a.sup.GoRestart("poster", a.post.Run)
	a.sup.Go("config.watch", a.cfgMgr.Watch)
	a.sup.Go("config.reload", a.reloadLoop)

	a.log.Info("started")
	return nil
}

// reloadLoop applies hot-reloadable config (logging) when the file changes.
// Pipeline topology changes require a restart.
func (a *App) reloadLoop(ctx context.Context) error {
	sub := a.cfgMgr.Subscribe(1)
	defer a.cfgMgr.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg, ok := <-sub:
			if !ok {
				return nil
			}
			a.logSvc.Apply(logConfig(cfg.Logging))
			a.log.Info("applied logging config; other sections need a restart")
		}
	}
}

// Stop shuts down loops, transport, and storage.
func (a *App) Stop(ctx context.Context) error {
	if a.sup != nil {
		if err := a.sup.Stop(ctx); err != nil && ctx.Err() == nil {
			// A loop died with an unrecoverable error; best-effort report
			// before teardown.
			a.note.Alertf(ctx, "Fatal error: %v", err)
			a.log.Error("pipeline stopped with error", logx.Err(err))
		}
	}
	_ = a.adapter.Stop(ctx)
	if a.seen != nil {
		_ = a.seen.Close()
	}
	_ = a.logSvc.Close()
	return nil
}
