package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. GANTTLINE_STORAGE_DRIVER.
const EnvPrefix = "GANTTLINE"

// Loader handles configuration loading with Viper.
type Loader struct {
	v          *viper.Viper
	configFile string
}

func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// SetConfigFile sets an explicit config file path.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// Load loads configuration with precedence defaults < config file < env vars.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	l.setupViper(cfg)

	if err := l.loadConfigFile(); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	expandPaths(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// ConfigFileUsed returns the config file that was loaded.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Viper exposes the underlying instance so CLI flags can be bound to keys.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

func (l *Loader) setupViper(cfg *Config) {
	v := l.v

	v.SetConfigName("ganttline")
	v.SetConfigType("yaml")

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		v.AddConfigPath(filepath.Join(xdgConfig, "ganttline"))
	}
	if home, _ := os.UserHomeDir(); home != "" {
		v.AddConfigPath(filepath.Join(home, ".config", "ganttline"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v, cfg)
	v.AutomaticEnv()
}

// setDefaults registers every key so AutomaticEnv can override nested values.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.static_dir", cfg.Server.StaticDir)

	v.SetDefault("storage.driver", cfg.Storage.Driver)
	v.SetDefault("storage.postgres_dsn", cfg.Storage.PostgresDSN)
	v.SetDefault("storage.sqlite_path", cfg.Storage.SQLitePath)

	v.SetDefault("cache.redis_addr", cfg.Cache.RedisAddr)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.enable_caller", cfg.Logging.EnableCaller)

	v.SetDefault("timeline.pixels_per_day", cfg.Timeline.PixelsPerDay)
	v.SetDefault("timeline.zoom", cfg.Timeline.Zoom)
	v.SetDefault("timeline.left_margin", cfg.Timeline.LeftMargin)
	v.SetDefault("timeline.min_bar_width", cfg.Timeline.MinBarWidth)
	v.SetDefault("timeline.buffer_policy", cfg.Timeline.BufferPolicy)
	v.SetDefault("timeline.buffer_days", cfg.Timeline.BufferDays)
	v.SetDefault("timeline.palette_file", cfg.Timeline.PaletteFile)

	v.SetDefault("notify.sendgrid_api_key", cfg.Notify.SendgridAPIKey)
	v.SetDefault("notify.from_name", cfg.Notify.FromName)
	v.SetDefault("notify.from_address", cfg.Notify.FromAddress)
	v.SetDefault("notify.recipients", cfg.Notify.Recipients)
	v.SetDefault("notify.horizon_days", cfg.Notify.HorizonDays)

	v.SetDefault("calendar.credentials_file", cfg.Calendar.CredentialsFile)
	v.SetDefault("calendar.token_file", cfg.Calendar.TokenFile)
	v.SetDefault("calendar.calendar_id", cfg.Calendar.CalendarID)

	v.SetDefault("worker.interval", cfg.Worker.Interval)
	v.SetDefault("worker.report_dir", cfg.Worker.ReportDir)
}

func (l *Loader) loadConfigFile() error {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.configFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return err
	}

	return nil
}

func expandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

func expandPaths(cfg *Config) {
	cfg.Server.StaticDir = expandTilde(cfg.Server.StaticDir)
	cfg.Storage.SQLitePath = expandTilde(cfg.Storage.SQLitePath)
	cfg.Timeline.PaletteFile = expandTilde(cfg.Timeline.PaletteFile)
	cfg.Calendar.CredentialsFile = expandTilde(cfg.Calendar.CredentialsFile)
	cfg.Calendar.TokenFile = expandTilde(cfg.Calendar.TokenFile)
	cfg.Worker.ReportDir = expandTilde(cfg.Worker.ReportDir)
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	loader := NewLoader()
	loader.SetConfigFile(path)
	return loader.Load()
}
