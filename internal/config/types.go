package config

// Config is the full on-disk configuration. All durations are Go duration
// strings (e.g. "500ms", "30s", "2m").
type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Logging   LoggingConfig   `json:"logging"`
	Storage   StorageConfig   `json:"storage"`
	Board     BoardConfig     `json:"board"`
	Discovery DiscoveryConfig `json:"discovery"`
	Poster    PosterConfig    `json:"poster"`
	Alerts    AlertsConfig    `json:"alerts"`
}

type TelegramConfig struct {
	Token string `json:"token"`

	// Channel is the broadcast destination, "@name" or a numeric chat id.
	Channel string `json:"channel"`

	// AdminIDs may invoke operator commands and receive failure alerts.
	AdminIDs []int64 `json:"admin_ids"`

	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string            `json:"level,omitempty"`
	Console bool              `json:"console"`
	File    LogFileConfig     `json:"file,omitempty"`
	Mirror  LogTelegramConfig `json:"telegram,omitempty"`
}

type LogFileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

type LogTelegramConfig struct {
	Enabled    bool   `json:"enabled"`
	MinLevel   string `json:"min_level,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

// StorageConfig controls the seen-set database.
type StorageConfig struct {
	Path string `json:"path"`

	// Capacity bounds the number of retained load ids. Oldest rows are
	// evicted once the count exceeds it. Default 2000.
	Capacity    int    `json:"capacity,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

type BoardConfig struct {
	APIURL         string `json:"api_url"`
	RequestTimeout string `json:"request_timeout,omitempty"`
	CitiesFile     string `json:"cities_file,omitempty"`
}

// DiscoveryConfig controls the scrape loop cadence.
type DiscoveryConfig struct {
	// Schedule is a Go duration ("30s") or a cron expression
	// ("*/1 * * * *", "@every 30s"). Default "30s".
	Schedule string `json:"schedule,omitempty"`

	// FailureBackoff is slept instead of the normal cadence after a failed
	// cycle. It should exceed the poll interval so a broken upstream does
	// not hot-loop. Default "60s".
	FailureBackoff string `json:"failure_backoff,omitempty"`
}

// PosterConfig controls the delivery loop.
type PosterConfig struct {
	QueueSize int `json:"queue_size,omitempty"` // default 1024

	// Cooldown paces consecutive channel posts. Default "3s".
	Cooldown string `json:"cooldown,omitempty"`

	RetryMax  int    `json:"retry_max,omitempty"`  // send attempts beyond the first; default 4
	RetryBase string `json:"retry_base,omitempty"` // backoff base; default "2s"
}

type AlertsConfig struct {
	Enabled bool `json:"enabled"`

	// MinInterval throttles consecutive alerts. Default "60s".
	MinInterval string `json:"min_interval,omitempty"`

	// MaxLen truncates alert bodies. Default 3500.
	MaxLen int `json:"max_len,omitempty"`
}
