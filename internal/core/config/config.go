package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Backends accepted by persistence.backend.
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config represents the top-level configuration for qrpulse.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Clock       ClockConfig       `koanf:"clock"`
	Persistence PersistenceConfig `koanf:"persistence"`
	Logging     LoggingConfig     `koanf:"logging"`
}

type ServerConfig struct {
	Port           int     `koanf:"port"`
	Host           string  `koanf:"host"`
	MaxBodySizeMB  int     `koanf:"max_body_size_mb"`
	Mode           string  `koanf:"mode"`             // debug | release
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`   // 0 disables ingestion rate limiting
	RateLimitBurst int     `koanf:"rate_limit_burst"` // ignored when rate_limit_rps is 0
}

// ClockConfig selects the wall clock used as "now" for windowed queries.
type ClockConfig struct {
	Timezone string `koanf:"timezone"` // IANA name, "Local" or "UTC"
}

type PersistenceConfig struct {
	Backend       string `koanf:"backend"`
	SyncSave      bool   `koanf:"sync_save"`      // save inside the POST handler instead of in the background
	FlushInterval string `koanf:"flush_interval"` // periodic save of unsaved changes; "0s" disables
	SaveTimeout   string `koanf:"save_timeout"`

	File     FileConfig     `koanf:"file"`
	Redis    RedisConfig    `koanf:"redis"`
	SQLite   SQLiteConfig   `koanf:"sqlite"`
	Postgres PostgresConfig `koanf:"postgres"`
}

type FileConfig struct {
	Path string `koanf:"path"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Key      string `koanf:"key"`
}

type SQLiteConfig struct {
	DSN  string `koanf:"dsn"`
	Name string `koanf:"name"`
}

type PostgresConfig struct {
	DSN          string `koanf:"dsn"`
	Name         string `koanf:"name"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

type LoggingConfig struct {
	Level      string `koanf:"level"`  // debug | info | warn | error
	Format     string `koanf:"format"` // text | json
	File       string `koanf:"file"`   // optional rotating log file, in addition to stdout
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
	Compress   bool   `koanf:"compress"`
}

// Location resolves the configured timezone.
func (c ClockConfig) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid clock.timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// FlushIntervalDuration parses persistence.flush_interval.
func (c PersistenceConfig) FlushIntervalDuration() (time.Duration, error) {
	return time.ParseDuration(c.FlushInterval)
}

// SaveTimeoutDuration parses persistence.save_timeout.
func (c PersistenceConfig) SaveTimeoutDuration() (time.Duration, error) {
	return time.ParseDuration(c.SaveTimeout)
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("server.max_body_size_mb must be > 0")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}
	if c.Server.RateLimitRPS < 0 {
		return fmt.Errorf("server.rate_limit_rps must be >= 0")
	}
	if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst <= 0 {
		return fmt.Errorf("server.rate_limit_burst must be > 0 when rate limiting is enabled")
	}

	if _, err := c.Clock.Location(); err != nil {
		return err
	}

	if err := c.Persistence.validate(); err != nil {
		return err
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level %q (must be debug, info, warn or error)", c.Logging.Level)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid logging.format %q (must be text or json)", c.Logging.Format)
	}

	return nil
}

func (c PersistenceConfig) validate() error {
	interval, err := c.FlushIntervalDuration()
	if err != nil {
		return fmt.Errorf("invalid persistence.flush_interval %q: %w", c.FlushInterval, err)
	}
	if interval < 0 {
		return fmt.Errorf("persistence.flush_interval must be >= 0")
	}
	timeout, err := c.SaveTimeoutDuration()
	if err != nil {
		return fmt.Errorf("invalid persistence.save_timeout %q: %w", c.SaveTimeout, err)
	}
	if timeout <= 0 {
		return fmt.Errorf("persistence.save_timeout must be > 0")
	}

	switch c.Backend {
	case BackendFile:
		if strings.TrimSpace(c.File.Path) == "" {
			return fmt.Errorf("persistence.file.path is required")
		}
	case BackendRedis:
		if strings.TrimSpace(c.Redis.Addr) == "" {
			return fmt.Errorf("persistence.redis.addr is required")
		}
	case BackendSQLite:
		if strings.TrimSpace(c.SQLite.DSN) == "" {
			return fmt.Errorf("persistence.sqlite.dsn is required")
		}
	case BackendPostgres:
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			return fmt.Errorf("persistence.postgres.dsn is required")
		}
		if c.Postgres.MaxOpenConns <= 0 {
			return fmt.Errorf("persistence.postgres.max_open_conns must be > 0")
		}
		if c.Postgres.MaxIdleConns <= 0 {
			return fmt.Errorf("persistence.postgres.max_idle_conns must be > 0")
		}
	default:
		return fmt.Errorf("unsupported persistence.backend %q", c.Backend)
	}
	return nil
}

// Load parses config from defaults, the YAML file at configPath and
// QRPULSE_* environment variables, in that order, then validates it.
// A missing config file is not an error; a malformed one is.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":                         5000,
		"server.host":                         "127.0.0.1",
		"server.max_body_size_mb":             1,
		"server.mode":                         "release",
		"server.rate_limit_rps":               0.0,
		"server.rate_limit_burst":             0,
		"clock.timezone":                      "Local",
		"persistence.backend":                 BackendFile,
		"persistence.sync_save":               false,
		"persistence.flush_interval":          "30s",
		"persistence.save_timeout":            "10s",
		"persistence.file.path":               "clicks_data.json",
		"persistence.redis.addr":              "localhost:6379",
		"persistence.redis.password":          "",
		"persistence.redis.db":                0,
		"persistence.redis.key":               "qrpulse:clicks_data",
		"persistence.sqlite.dsn":              "qrpulse.db",
		"persistence.sqlite.name":             "clicks_data",
		"persistence.postgres.dsn":            "",
		"persistence.postgres.name":           "clicks_data",
		"persistence.postgres.max_open_conns": 5,
		"persistence.postgres.max_idle_conns": 2,
		"persistence.postgres.auto_migrate":   true,
		"logging.level":                       "info",
		"logging.format":                      "text",
		"logging.file":                        "",
		"logging.max_size_mb":                 10,
		"logging.max_backups":                 3,
		"logging.max_age_days":                28,
		"logging.compress":                    true,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Config file not found, using defaults and environment", "path", configPath)
		} else if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// QRPULSE_PERSISTENCE__FILE__PATH=/data/clicks.json overrides persistence.file.path
	if err := k.Load(env.Provider("QRPULSE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "QRPULSE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
