// Package main provides the main entry point for the movie discovery and watchlist service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cinelist/config"
	"cinelist/database"
	"cinelist/jobs"
	"cinelist/logger"
	"cinelist/metrics"
	"cinelist/repository"
	"cinelist/services"
	"cinelist/storage"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/afero"
)

// App represents the application with its dependencies
type App struct {
	catalog    services.Catalog
	searches   *services.SearchCoordinator
	watchlist  *services.WatchlistStore
	jobManager *jobs.JobManager
	registry   *prometheus.Registry
	logger     *logger.Logger
	validate   *validator.Validate
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		ServiceName: "cinelist",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		FilePath:    cfg.App.LogFile,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "server exited with error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	catalogMetrics := metrics.NewCatalogMetrics(registry)
	watchlistMetrics := metrics.NewWatchlistMetrics(registry)

	slots, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStorage(); err != nil {
			log.Warn(context.Background(), "failed to close storage", err)
		}
	}()
	log.Info(log.WithField(ctx, "backend", cfg.Storage.Backend), "watchlist storage ready")

	tmdbService := services.NewTMDBService(cfg.TMDB.ReadAccessToken,
		services.WithBaseURL(cfg.TMDB.BaseURL),
		services.WithHTTPClient(&http.Client{Timeout: cfg.TMDB.Timeout}),
		services.WithRetryAttempts(cfg.TMDB.RetryAttempts, 300*time.Millisecond),
		services.WithCatalogMetrics(catalogMetrics),
		services.WithLogger(log),
	)

	var catalog services.Catalog = tmdbService
	var jobManager *jobs.JobManager
	if cfg.Cache.Enabled {
		cached := services.NewCachedCatalog(tmdbService, services.CacheOptions{
			Size:      cfg.Cache.Size,
			TTL:       cfg.Cache.TTL,
			SearchTTL: cfg.Cache.SearchTTL,
			Metrics:   catalogMetrics,
		})
		catalog = cached

		trendingJob := jobs.NewTrendingRefreshJob(cached, cfg.Cache.TrendingRefreshInterval, log)
		jobManager = jobs.NewJobManager(trendingJob, log)
		jobManager.Start()
		defer jobManager.Stop()
	}

	app := &App{
		catalog:  catalog,
		searches: services.NewSearchCoordinator(catalog),
		watchlist: services.NewWatchlistStore(slots,
			services.WithWatchlistKey(cfg.Watchlist.Key),
			services.WithWatchlistLogger(log),
			services.WithWatchlistMetrics(watchlistMetrics),
		),
		jobManager: jobManager,
		registry:   registry,
		logger:     log,
		validate:   validator.New(),
	}

	server := &http.Server{
		Addr:         cfg.App.HTTPAddr,
		Handler:      app.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(log.WithField(ctx, "addr", server.Addr), "server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Graceful shutdown
	log.Info(context.Background(), "shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// openStorage builds the configured watchlist slot backend and its close function
func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Storage.Backend {
	case config.StorageMemory:
		return storage.NewMemory(), noop, nil

	case config.StorageFile:
		s, err := storage.NewFile(afero.NewOsFs(), cfg.Storage.FileDir)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil

	case config.StorageSQLite:
		db, err := database.NewDB(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.InitSchema(); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
		return repository.NewSlotRepository(db), db.Close, nil

	case config.StorageRedis:
		s, err := storage.NewRedis(ctx, storage.RedisOptions{
			URL:          cfg.Redis.URL,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}

	return nil, nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
}
