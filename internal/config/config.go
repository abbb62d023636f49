package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DefaultEnvFiles are loaded, when present, before the environment is parsed.
var DefaultEnvFiles = []string{".env", ".env.local"}

// Config holds all configuration for the application.
type Config struct {
	// Server configuration
	ServerPort   string        `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"5m"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	// Store configuration
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	SeedFile    string `env:"SEED_FILE"`

	// Database configuration
	DBHost              string        `env:"DB_HOST" envDefault:"localhost"`
	DBPort              int           `env:"DB_PORT" envDefault:"5432"`
	DBUser              string        `env:"DB_USER" envDefault:"postgres"`
	DBPassword          string        `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName              string        `env:"DB_NAME" envDefault:"payroll"`
	DBSSLMode           string        `env:"DB_SSL_MODE" envDefault:"disable"`
	DBMaxConns          int32         `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int32         `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
	DBMigrate           bool          `env:"DB_MIGRATE" envDefault:"false"`
	MigrationsDir       string        `env:"MIGRATIONS_DIR" envDefault:"./migrations"`

	// Import configuration
	WorkerPoolSize   int           `env:"WORKER_POOL_SIZE" envDefault:"4"`
	BatchSize        int           `env:"LINE_ITEM_BATCH_SIZE" envDefault:"100"`
	MaxUploadBytes   int64         `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"`
	MatchParallelism int           `env:"MATCH_PARALLELISM" envDefault:"0"`
	ImportTimeout    time.Duration `env:"IMPORT_TIMEOUT" envDefault:"30m"`
	TrackerLimit     int           `env:"PROGRESS_TRACKER_LIMIT" envDefault:"1000"`

	// Logging configuration
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load loads configuration from .env files and environment variables.
// Variables already set in the environment win over the files.
func Load() (*Config, error) {
	if err := loadEnvFiles(DefaultEnvFiles); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadEnvFiles loads the files of paths that exist.
func loadEnvFiles(paths []string) error {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

// validate validates the configuration. Zero values skip ozzo threshold
// rules, so numeric settings that must be positive are also Required.
func (c *Config) validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.ServerPort, validation.Required.Error("SERVER_PORT is required")),
		validation.Field(&c.StoreDriver,
			validation.In(DriverPostgres, DriverMemory).Error("STORE_DRIVER must be postgres or memory")),
		validation.Field(&c.WorkerPoolSize, validation.Required.Error("WORKER_POOL_SIZE must be at least 1"), validation.Min(1).Error("WORKER_POOL_SIZE must be at least 1")),
		validation.Field(&c.BatchSize, validation.Required.Error("LINE_ITEM_BATCH_SIZE must be at least 1"), validation.Min(1).Error("LINE_ITEM_BATCH_SIZE must be at least 1")),
		validation.Field(&c.MaxUploadBytes, validation.Required.Error("MAX_UPLOAD_BYTES must be positive"), validation.Min(int64(1)).Error("MAX_UPLOAD_BYTES must be positive")),
		validation.Field(&c.MatchParallelism, validation.Min(0).Error("MATCH_PARALLELISM must not be negative")),
		validation.Field(&c.ImportTimeout, validation.Required.Error("IMPORT_TIMEOUT must be at least 1s"), validation.Min(time.Second).Error("IMPORT_TIMEOUT must be at least 1s")),
	)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.StoreDriver == DriverPostgres {
		err := validation.ValidateStruct(c,
			validation.Field(&c.DBHost, validation.Required.Error("DB_HOST is required")),
			validation.Field(&c.DBUser, validation.Required.Error("DB_USER is required")),
			validation.Field(&c.DBName, validation.Required.Error("DB_NAME is required")),
		)
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}
	return nil
}
