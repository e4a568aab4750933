package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/juryrank/internal/adapters/export"
	"github.com/okian/juryrank/internal/adapters/http/api"
	"github.com/okian/juryrank/internal/adapters/http/stream"
	"github.com/okian/juryrank/internal/adapters/http/swagger"
	"github.com/okian/juryrank/internal/adapters/repository"
	service "github.com/okian/juryrank/internal/app"
	"github.com/okian/juryrank/internal/config"
	"github.com/okian/juryrank/pkg/logger"
	"github.com/okian/juryrank/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Get().Error(ctx, "failed to load config", logger.Error(err))
		os.Exit(1) //nolint:gocritic // nothing to clean up yet
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		logger.Get().Error(ctx, "failed to apply log format", logger.Error(err))
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	log := logger.Get()

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "juryrank stopped with error", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

// run wires the service from cfg and serves until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	store, err := repository.Open(ctx, storeOptions(cfg)...)
	if err != nil {
		return err
	}

	svc := service.New(
		service.WithStore(store),
		service.WithLogger(log),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithSeedDemoData(cfg.SeedDemoData),
	)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return err
	}

	exporter, err := newExporter(cfg, svc)
	if err != nil {
		_ = svc.Stop(context.Background())
		return err
	}
	if exporter != nil {
		exporter.Start(ctx)
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	mux, hub := newMux(ctx, cfg, svc)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("storage_driver", cfg.StorageDriver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	if hub != nil {
		if err := hub.Close(shutdownCtx); err != nil {
			log.Warn(shutdownCtx, "stream shutdown incomplete", logger.Error(err))
		}
	}
	if exporter != nil {
		if err := exporter.Stop(shutdownCtx); err != nil {
			log.Warn(shutdownCtx, "export shutdown incomplete", logger.Error(err))
		}
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "service shutdown failed", logger.Error(err))
	}

	log.Info(shutdownCtx, "server stopped")
	return runErr
}

// storeOptions maps configuration onto repository options.
func storeOptions(cfg *config.Config) []repository.Option {
	return []repository.Option{
		repository.WithDriver(cfg.StorageDriver),
		repository.WithPath(cfg.StoragePath),
		repository.WithKey(cfg.StorageKey),
		repository.WithRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB),
		repository.WithPostgresDSN(cfg.PostgresDSN),
	}
}

// newExporter returns nil when no export schedule is configured.
func newExporter(cfg *config.Config, svc *service.Service) (*export.Exporter, error) {
	if cfg.ExportCron == "" {
		return nil, nil
	}
	return export.New(svc, cfg.ExportPath,
		export.WithSchedule(cfg.ExportCron),
		export.WithSkipUnchanged(true),
	)
}

// newMux registers every route. The hub is nil when streaming is disabled.
func newMux(ctx context.Context, cfg *config.Config, svc *service.Service) (*http.ServeMux, *stream.Hub) {
	mux := http.NewServeMux()

	swagger.Register(ctx, mux)
	api.NewServer(svc, api.WithMaxResultsLimit(cfg.MaxResultsLimit)).Register(mux)

	if !cfg.StreamEnabled {
		return mux, nil
	}
	hub := stream.NewHub(svc)
	hub.Register(mux)
	return mux, hub
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes gauges derived from service stats.
func updateServiceMetrics(ctx context.Context, svc *service.Service) {
	stats := svc.GetStats(ctx)
	metrics.UpdateQueueSize(stats.QueueLength)
	metrics.UpdateWorkerCount(stats.Workers)
	if stats.QueueCapacity > 0 {
		metrics.UpdateQueueUtilization(float64(stats.QueueLength) / float64(stats.QueueCapacity))
	}
}
