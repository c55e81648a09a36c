package config

import (
	"log/slog"
	"math"
	"strings"
	"time"

	syncerrors "github.com/randalmurphal/eventsync/pkg/eventsync/errors"
	"github.com/randalmurphal/eventsync/pkg/eventsync/retry"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// RetrySettings configures the sync retry policy.
type RetrySettings struct {
	MaxRetries        int           `env:"EVENTSYNC_RETRY_MAX_RETRIES"`
	InitialDelay      time.Duration `env:"EVENTSYNC_RETRY_INITIAL_DELAY"`
	MaxDelay          time.Duration `env:"EVENTSYNC_RETRY_MAX_DELAY"`
	BackoffMultiplier float64       `env:"EVENTSYNC_RETRY_BACKOFF_MULTIPLIER"`
}

// Policy converts the settings to a retry policy.
func (r RetrySettings) Policy() retry.Policy {
	return retry.Policy{
		MaxRetries:        r.MaxRetries,
		InitialDelay:      r.InitialDelay,
		MaxDelay:          r.MaxDelay,
		BackoffMultiplier: r.BackoffMultiplier,
	}
}

// SourceSettings configures the simulated event source.
type SourceSettings struct {
	MaxEvents   int           `env:"EVENTSYNC_SOURCE_MAX_EVENTS"`
	MaxInterval time.Duration `env:"EVENTSYNC_SOURCE_MAX_INTERVAL"`
}

// StoreSettings configures the durable store and its fault injection.
type StoreSettings struct {
	Driver      string        `env:"EVENTSYNC_STORE_DRIVER"`
	Path        string        `env:"EVENTSYNC_STORE_PATH"`
	FailureRate float64       `env:"EVENTSYNC_STORE_FAILURE_RATE"`
	MaxLatency  time.Duration `env:"EVENTSYNC_STORE_MAX_LATENCY"`
}

// ReportSettings configures the periodic reporter.
type ReportSettings struct {
	Interval time.Duration `env:"EVENTSYNC_REPORT_INTERVAL"`
}

// LogSettings configures the process logger.
type LogSettings struct {
	Level     string `env:"EVENTSYNC_LOG_LEVEL"`
	Format    string `env:"EVENTSYNC_LOG_FORMAT"`
	AddSource bool   `env:"EVENTSYNC_LOG_ADD_SOURCE"`
}

// Settings is the full typed configuration of an eventsync process.
type Settings struct {
	Retry  RetrySettings
	Source SourceSettings
	Store  StoreSettings
	Report ReportSettings
	Log    LogSettings
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	p := retry.DefaultPolicy
	return Settings{
		Retry: RetrySettings{
			MaxRetries:        p.MaxRetries,
			InitialDelay:      p.InitialDelay,
			MaxDelay:          p.MaxDelay,
			BackoffMultiplier: p.BackoffMultiplier,
		},
		Source: SourceSettings{
			MaxEvents:   1000,
			MaxInterval: 10 * time.Millisecond,
		},
		Store: StoreSettings{
			Driver:      DriverMemory,
			Path:        "eventsync.db",
			FailureRate: 0.3,
			MaxLatency:  50 * time.Millisecond,
		},
		Report: ReportSettings{
			Interval: 20 * time.Second,
		},
		Log: LogSettings{
			Level:  "info",
			Format: FormatText,
		},
	}
}

// merge overlays values present in cfg onto s.
func (s Settings) merge(cfg Config) Settings {
	r := cfg.Section("retry")
	s.Retry.MaxRetries = r.Int("max_retries", s.Retry.MaxRetries)
	s.Retry.InitialDelay = r.Duration("initial_delay", s.Retry.InitialDelay)
	s.Retry.MaxDelay = r.Duration("max_delay", s.Retry.MaxDelay)
	s.Retry.BackoffMultiplier = r.Float("backoff_multiplier", s.Retry.BackoffMultiplier)

	src := cfg.Section("source")
	s.Source.MaxEvents = src.Int("max_events", s.Source.MaxEvents)
	s.Source.MaxInterval = src.Duration("max_interval", s.Source.MaxInterval)

	st := cfg.Section("store")
	s.Store.Driver = st.String("driver", s.Store.Driver)
	s.Store.Path = st.String("path", s.Store.Path)
	s.Store.FailureRate = st.Float("failure_rate", s.Store.FailureRate)
	s.Store.MaxLatency = st.Duration("max_latency", s.Store.MaxLatency)

	s.Report.Interval = cfg.Section("report").Duration("interval", s.Report.Interval)

	l := cfg.Section("log")
	s.Log.Level = l.String("level", s.Log.Level)
	s.Log.Format = l.String("format", s.Log.Format)
	s.Log.AddSource = l.Bool("add_source", s.Log.AddSource)

	return s
}

// Validate checks the settings for configuration errors.
func (s Settings) Validate() error {
	if err := s.Retry.Policy().Validate(); err != nil {
		return err
	}

	switch {
	case s.Source.MaxEvents < 0:
		return &syncerrors.ConfigError{Field: "source.max_events", Message: "cannot be negative"}
	case s.Source.MaxInterval < 0:
		return &syncerrors.ConfigError{Field: "source.max_interval", Message: "cannot be negative"}
	case s.Store.Driver != DriverMemory && s.Store.Driver != DriverSQLite:
		return &syncerrors.ConfigError{Field: "store.driver", Message: "must be memory or sqlite"}
	case s.Store.Driver == DriverSQLite && s.Store.Path == "":
		return &syncerrors.ConfigError{Field: "store.path", Message: "required for sqlite driver"}
	case math.IsNaN(s.Store.FailureRate) || s.Store.FailureRate < 0 || s.Store.FailureRate > 1:
		return &syncerrors.ConfigError{Field: "store.failure_rate", Message: "must be within [0, 1]"}
	case s.Store.MaxLatency < 0:
		return &syncerrors.ConfigError{Field: "store.max_latency", Message: "cannot be negative"}
	case s.Report.Interval <= 0:
		return &syncerrors.ConfigError{Field: "report.interval", Message: "must be positive"}
	case s.Log.Format != FormatText && s.Log.Format != FormatJSON:
		return &syncerrors.ConfigError{Field: "log.format", Message: "must be text or json"}
	}

	if _, err := s.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses Level into a slog.Level.
func (l LogSettings) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(l.Level))); err != nil {
		return 0, &syncerrors.ConfigError{Field: "log.level", Message: "must be debug, info, warn or error"}
	}
	return level, nil
}
