package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envVars = []string{
	"SERVER_PORT",
	"HTTP_READ_TIMEOUT",
	"STORE_DRIVER",
	"SEED_FILE",
	"DB_HOST",
	"DB_PORT",
	"DB_USER",
	"DB_NAME",
	"DB_MAX_CONNS",
	"DB_MIGRATE",
	"WORKER_POOL_SIZE",
	"LINE_ITEM_BATCH_SIZE",
	"MAX_UPLOAD_BYTES",
	"MATCH_PARALLELISM",
	"IMPORT_TIMEOUT",
	"LOG_LEVEL",
}

// clearEnv unsets the variables Load reads and restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envVars {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.ServerPort)
		assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
		assert.Equal(t, DriverPostgres, cfg.StoreDriver)
		assert.Equal(t, "localhost", cfg.DBHost)
		assert.Equal(t, 5432, cfg.DBPort)
		assert.Equal(t, "payroll", cfg.DBName)
		assert.Equal(t, int32(25), cfg.DBMaxConns)
		assert.False(t, cfg.DBMigrate)
		assert.Equal(t, 4, cfg.WorkerPoolSize)
		assert.Equal(t, 100, cfg.BatchSize)
		assert.Equal(t, int64(50<<20), cfg.MaxUploadBytes)
		assert.Equal(t, 0, cfg.MatchParallelism)
		assert.Equal(t, 30*time.Minute, cfg.ImportTimeout)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("custom values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SERVER_PORT", "9090")
		t.Setenv("STORE_DRIVER", "memory")
		t.Setenv("SEED_FILE", "seed.json")
		t.Setenv("DB_PORT", "5433")
		t.Setenv("DB_MIGRATE", "true")
		t.Setenv("WORKER_POOL_SIZE", "8")
		t.Setenv("LINE_ITEM_BATCH_SIZE", "250")
		t.Setenv("MAX_UPLOAD_BYTES", "1048576")
		t.Setenv("MATCH_PARALLELISM", "3")
		t.Setenv("IMPORT_TIMEOUT", "90s")
		t.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9090", cfg.ServerPort)
		assert.Equal(t, DriverMemory, cfg.StoreDriver)
		assert.Equal(t, "seed.json", cfg.SeedFile)
		assert.Equal(t, 5433, cfg.DBPort)
		assert.True(t, cfg.DBMigrate)
		assert.Equal(t, 8, cfg.WorkerPoolSize)
		assert.Equal(t, 250, cfg.BatchSize)
		assert.Equal(t, int64(1<<20), cfg.MaxUploadBytes)
		assert.Equal(t, 3, cfg.MatchParallelism)
		assert.Equal(t, 90*time.Second, cfg.ImportTimeout)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("rejects malformed values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("WORKER_POOL_SIZE", "many")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ServerPort:     "8080",
			StoreDriver:    DriverPostgres,
			DBHost:         "localhost",
			DBUser:         "postgres",
			DBName:         "payroll",
			WorkerPoolSize: 4,
			BatchSize:      100,
			MaxUploadBytes: 1024,
			ImportTimeout:  time.Minute,
		}
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "valid", modify: func(*Config) {}},
		{name: "missing port", modify: func(c *Config) { c.ServerPort = "" }, wantErr: "SERVER_PORT"},
		{name: "unknown driver", modify: func(c *Config) { c.StoreDriver = "mysql" }, wantErr: "STORE_DRIVER"},
		{name: "zero workers", modify: func(c *Config) { c.WorkerPoolSize = 0 }, wantErr: "WORKER_POOL_SIZE"},
		{name: "negative batch size", modify: func(c *Config) { c.BatchSize = -1 }, wantErr: "LINE_ITEM_BATCH_SIZE"},
		{name: "zero upload limit", modify: func(c *Config) { c.MaxUploadBytes = 0 }, wantErr: "MAX_UPLOAD_BYTES"},
		{name: "negative parallelism", modify: func(c *Config) { c.MatchParallelism = -2 }, wantErr: "MATCH_PARALLELISM"},
		{name: "short timeout", modify: func(c *Config) { c.ImportTimeout = time.Millisecond }, wantErr: "IMPORT_TIMEOUT"},
		{name: "postgres without host", modify: func(c *Config) { c.DBHost = "" }, wantErr: "DB_HOST"},
		{
			name: "memory store ignores database settings",
			modify: func(c *Config) {
				c.StoreDriver = DriverMemory
				c.DBHost = ""
				c.DBName = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadEnvFiles(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("WORKER_POOL_SIZE=6\nLOG_LEVEL=warn\n"), 0o600))
	t.Setenv("LOG_LEVEL", "error")

	require.NoError(t, loadEnvFiles([]string{path, filepath.Join(dir, "missing.env")}))
	t.Cleanup(func() { os.Unsetenv("WORKER_POOL_SIZE") })

	assert.Equal(t, "6", os.Getenv("WORKER_POOL_SIZE"))
	assert.Equal(t, "error", os.Getenv("LOG_LEVEL"), "existing variables win over env files")
}
