// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and JURYRANK_ env vars on top of the defaults.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/robfig/cron/v3"
)

// Storage driver names accepted by StorageDriver.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory score submission queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of submission workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the submission id cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxResultsLimit caps GET /rankings?limit.
	MaxResultsLimit int `koanf:"max_results_limit"`

	// StorageDriver picks the state backend.
	StorageDriver string `koanf:"storage_driver"`

	// StoragePath is the file or sqlite database path.
	StoragePath string `koanf:"storage_path"`

	// StorageKey names the document inside sqlite, redis and postgres.
	StorageKey string `koanf:"storage_key"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// PostgresDSN is a lib/pq connection string.
	PostgresDSN string `koanf:"postgres_dsn"`

	// SeedDemoData loads the demo hackathon when the store is empty.
	SeedDemoData bool `koanf:"seed_demo_data"`

	// ExportCron is a five-field cron expression; empty disables exports.
	ExportCron string `koanf:"export_cron"`

	// ExportPath receives the exported rankings JSON.
	ExportPath string `koanf:"export_path"`

	// StreamEnabled mounts the websocket ranking stream.
	StreamEnabled bool `koanf:"stream_enabled"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		QueueSize:       10_000,
		WorkerCount:     runtime.NumCPU(),
		DedupeSize:      100_000,
		MaxResultsLimit: 100,
		StorageDriver:   DriverMemory,
		StoragePath:     "juryrank.json",
		StorageKey:      "juryrank:state",
		RedisAddr:       "localhost:6379",
		SeedDemoData:    true,
		StreamEnabled:   true,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	}
	if c.DedupeSize <= 0 {
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	}
	if c.MaxResultsLimit <= 0 {
		return fmt.Errorf("%w: max_results_limit must be positive", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	switch c.StorageDriver {
	case DriverMemory:
	case DriverFile, DriverSQLite:
		if c.StoragePath == "" {
			return fmt.Errorf("%w: storage_path is required for %s", ErrInvalidConfig, c.StorageDriver)
		}
	case DriverRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis_addr is required for redis", ErrInvalidConfig)
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres_dsn is required for postgres", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage_driver %q", ErrInvalidConfig, c.StorageDriver)
	}
	if c.ExportCron != "" {
		if _, err := cron.ParseStandard(c.ExportCron); err != nil {
			return fmt.Errorf("%w: export_cron: %w", ErrInvalidConfig, err)
		}
		if c.ExportPath == "" {
			return fmt.Errorf("%w: export_path is required when export_cron is set", ErrInvalidConfig)
		}
	}
	return nil
}
