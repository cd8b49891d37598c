// Package config handles ganttline configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/nadmax/ganttline/internal/timeline"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Storage  StorageConfig  `yaml:"storage" mapstructure:"storage"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
	Timeline TimelineConfig `yaml:"timeline" mapstructure:"timeline"`
	Notify   NotifyConfig   `yaml:"notify" mapstructure:"notify"`
	Calendar CalendarConfig `yaml:"calendar" mapstructure:"calendar"`
	Worker   WorkerConfig   `yaml:"worker" mapstructure:"worker"`
}

type ServerConfig struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr" mapstructure:"addr"`

	// StaticDir is served at / when set.
	StaticDir string `yaml:"static_dir" mapstructure:"static_dir"`
}

// StorageConfig selects the task store.
type StorageConfig struct {
	// Driver is postgres or sqlite.
	Driver      string `yaml:"driver" mapstructure:"driver"`
	PostgresDSN string `yaml:"postgres_dsn" mapstructure:"postgres_dsn"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

type CacheConfig struct {
	// RedisAddr enables the read-through cache when non-empty.
	RedisAddr string        `yaml:"redis_addr" mapstructure:"redis_addr"`
	TTL       time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

type LoggingConfig struct {
	Level        string `yaml:"level" mapstructure:"level"`
	Format       string `yaml:"format" mapstructure:"format"`
	EnableCaller bool   `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// TimelineConfig holds the chart geometry defaults.
type TimelineConfig struct {
	PixelsPerDay float64 `yaml:"pixels_per_day" mapstructure:"pixels_per_day"`
	Zoom         float64 `yaml:"zoom" mapstructure:"zoom"`
	LeftMargin   float64 `yaml:"left_margin" mapstructure:"left_margin"`
	MinBarWidth  float64 `yaml:"min_bar_width" mapstructure:"min_bar_width"`
	BufferPolicy string  `yaml:"buffer_policy" mapstructure:"buffer_policy"`
	BufferDays   int     `yaml:"buffer_days" mapstructure:"buffer_days"`

	// PaletteFile is an optional YAML file with stage colours and theme.
	PaletteFile string `yaml:"palette_file" mapstructure:"palette_file"`
}

// NotifyConfig configures the deadline digest email.
type NotifyConfig struct {
	SendgridAPIKey string   `yaml:"sendgrid_api_key" mapstructure:"sendgrid_api_key"`
	FromName       string   `yaml:"from_name" mapstructure:"from_name"`
	FromAddress    string   `yaml:"from_address" mapstructure:"from_address"`
	Recipients     []string `yaml:"recipients" mapstructure:"recipients"`
	HorizonDays    int      `yaml:"horizon_days" mapstructure:"horizon_days"`
}

// CalendarConfig configures the Google Calendar export.
type CalendarConfig struct {
	CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file"`
	TokenFile       string `yaml:"token_file" mapstructure:"token_file"`
	CalendarID      string `yaml:"calendar_id" mapstructure:"calendar_id"`
}

type WorkerConfig struct {
	Interval  time.Duration `yaml:"interval" mapstructure:"interval"`
	ReportDir string        `yaml:"report_dir" mapstructure:"report_dir"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Storage: StorageConfig{
			Driver:     "sqlite",
			SQLitePath: "ganttline.db",
		},
		Cache: CacheConfig{
			TTL: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Timeline: TimelineConfig{
			PixelsPerDay: timeline.DefaultPixelsPerDay,
			Zoom:         1,
			LeftMargin:   timeline.DefaultLeftMargin,
			MinBarWidth:  timeline.DefaultMinBarWidth,
			BufferPolicy: string(timeline.BufferDays),
			BufferDays:   timeline.DefaultBufferDays,
		},
		Notify: NotifyConfig{
			FromName:    "ganttline",
			HorizonDays: 7,
		},
		Calendar: CalendarConfig{
			CalendarID: "primary",
		},
		Worker: WorkerConfig{
			Interval: time.Hour,
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn is required for the postgres driver"))
		}
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("storage.sqlite_path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not one of postgres, sqlite", c.Storage.Driver))
	}

	if c.Timeline.PixelsPerDay <= 0 {
		errs = append(errs, errors.New("timeline.pixels_per_day must be positive"))
	}
	if c.Timeline.Zoom < timeline.MinZoom || c.Timeline.Zoom > timeline.MaxZoom {
		errs = append(errs, fmt.Errorf("timeline.zoom must be between %g and %g", timeline.MinZoom, float64(timeline.MaxZoom)))
	}
	if c.Timeline.LeftMargin < 0 {
		errs = append(errs, errors.New("timeline.left_margin must not be negative"))
	}
	if c.Timeline.MinBarWidth <= 0 {
		errs = append(errs, errors.New("timeline.min_bar_width must be positive"))
	}
	if c.Timeline.BufferDays < 0 {
		errs = append(errs, errors.New("timeline.buffer_days must not be negative"))
	}
	if err := timeline.BufferPolicy(c.Timeline.BufferPolicy).Validate(); err != nil {
		errs = append(errs, fmt.Errorf("timeline.buffer_policy: %w", err))
	}

	if c.Notify.HorizonDays < 0 {
		errs = append(errs, errors.New("notify.horizon_days must not be negative"))
	}
	if c.Worker.Interval <= 0 {
		errs = append(errs, errors.New("worker.interval must be positive"))
	}

	return errors.Join(errs...)
}

// Scale builds the timeline scale from the configured geometry.
func (c *Config) Scale() timeline.Scale {
	return timeline.Scale{
		BasePixelsPerDay: c.Timeline.PixelsPerDay,
		Zoom:             c.Timeline.Zoom,
		LeftMargin:       c.Timeline.LeftMargin,
		MinBarWidth:      c.Timeline.MinBarWidth,
	}
}

func (c *Config) Buffer() timeline.Buffer {
	return timeline.Buffer{
		Policy: timeline.BufferPolicy(c.Timeline.BufferPolicy),
		Days:   c.Timeline.BufferDays,
	}
}

// NotifyEnabled reports whether the digest email has enough settings to run.
func (c *Config) NotifyEnabled() bool {
	return c.Notify.SendgridAPIKey != "" && c.Notify.FromAddress != "" && len(c.Notify.Recipients) > 0
}

// CalendarEnabled reports whether the calendar export has credentials.
func (c *Config) CalendarEnabled() bool {
	return c.Calendar.CredentialsFile != "" && c.Calendar.TokenFile != ""
}
