package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"payroll-import/internal/catalog"
	"payroll-import/internal/config"
	"payroll-import/internal/handler"
	"payroll-import/internal/infrastructure/database"
	"payroll-import/internal/logger"
	"payroll-import/internal/matcher"
	"payroll-import/internal/metrics"
	"payroll-import/internal/repository"
	"payroll-import/internal/service"
	"payroll-import/internal/validator"
)

const (
	poolStatsInterval = 15 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// backend is the storage selected by STORE_DRIVER.
type backend struct {
	store   repository.Store
	jobRepo repository.ImportJobRepository
	pinger  handler.Pinger
	close   func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", slog.String("error", err.Error()))
	}
	logger.Configure(cfg.LogLevel, cfg.LogFormat)

	be, err := openBackend(context.Background(), cfg)
	if err != nil {
		logger.Fatal("Failed to open store",
			slog.String("store_driver", cfg.StoreDriver),
			slog.String("error", err.Error()))
	}
	defer be.close()

	cat := catalog.New(be.store)
	importService := service.NewImportService(
		be.store,
		be.jobRepo,
		cat,
		matcher.New(nil, cfg.MatchParallelism),
		validator.NewValidator(),
		service.ImportConfig{
			Workers:        cfg.WorkerPoolSize,
			BatchSize:      cfg.BatchSize,
			MaxUploadBytes: cfg.MaxUploadBytes,
			Timeout:        cfg.ImportTimeout,
			TrackerLimit:   cfg.TrackerLimit,
		},
	)
	exportService := service.NewExportService(be.store, cat)

	gin.SetMode(gin.ReleaseMode)
	router := newRouter(
		handler.NewImportHandler(importService),
		handler.NewExportHandler(exportService),
		handler.NewHealthHandler(be.pinger, cfg.StoreDriver),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logger.Info("Starting server",
			slog.String("port", cfg.ServerPort),
			slog.String("store_driver", cfg.StoreDriver),
			slog.Int("workers", cfg.WorkerPoolSize))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	// Workers stop first; queued jobs stay pending in the job store.
	importService.Close()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("Server exited")
}

// openBackend builds the stores for the configured driver. The returned close
// function releases whatever was opened.
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	if cfg.StoreDriver == config.DriverMemory {
		mem := repository.NewMemoryStore()
		if cfg.SeedFile != "" {
			if err := loadSeed(mem, cfg.SeedFile); err != nil {
				return nil, err
			}
		}
		logger.Info("Using in-memory store", slog.String("seed_file", cfg.SeedFile))
		return &backend{store: mem, jobRepo: repository.NewMemoryJobRepository(), close: func() {}}, nil
	}

	poolCfg := database.PoolConfig{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		Database:          cfg.DBName,
		SSLMode:           cfg.DBSSLMode,
		MaxConns:          cfg.DBMaxConns,
		MinConns:          cfg.DBMinConns,
		MaxConnLifetime:   cfg.DBMaxConnLifetime,
		MaxConnIdleTime:   cfg.DBMaxConnIdleTime,
		HealthCheckPeriod: cfg.DBHealthCheckPeriod,
	}
	if cfg.DBMigrate {
		version, err := database.Migrate(poolCfg.URL(), cfg.MigrationsDir)
		if err != nil {
			return nil, err
		}
		logger.Info("Database schema is current", slog.Uint64("version", uint64(version)))
	}

	pool, err := database.NewPostgres(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	collector := metrics.NewPoolStatsCollector(pool)
	collector.Start(poolStatsInterval)

	return &backend{
		store:   repository.NewPostgresStore(pool),
		jobRepo: repository.NewPostgresJobRepository(pool),
		pinger:  pool,
		close: func() {
			collector.Stop()
			pool.Close()
		},
	}, nil
}

func loadSeed(store *repository.MemoryStore, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	if err := store.LoadSeed(f); err != nil {
		return fmt.Errorf("seed file %s: %w", path, err)
	}
	return nil
}
