package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"clubhub/internal/adapters/config"
	"clubhub/internal/adapters/errors/noop"
	"clubhub/internal/adapters/errors/sentry"
	"clubhub/internal/adapters/openrouter"
	"clubhub/internal/adapters/postgres"
	"clubhub/internal/adapters/redis"
	"clubhub/internal/api"
	"clubhub/internal/api/health"
	"clubhub/internal/metrics"
	"clubhub/internal/migrate"
	repo "clubhub/internal/repository/postgres"
	catalogservice "clubhub/internal/services/catalog"
	usageservice "clubhub/internal/services/usage"
	"clubhub/internal/workers"
	"clubhub/pkg/errors"
	"clubhub/pkg/logger"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	log.Infof("Starting %s %s in %s mode", cfg.App.Name, version, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	metrics.Init()

	// Database must be reachable and fully migrated before anything serves
	pgClient, err := postgres.NewClient(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer func() { _ = pgClient.Close() }()

	runner := migrate.NewRunner(pgClient.DB(), log)
	applied, err := runner.Run(context.Background(), migrate.All())
	if err != nil {
		log.Fatalf("Migrations failed, refusing to start: %v", err)
	}
	if applied > 0 {
		log.Infof("Applied %d migrations", applied)
	}

	// Repositories
	usageRepo := repo.NewUsageRepository(pgClient.DB())
	modelRepo := repo.NewModelRepository(pgClient.DB())
	syncLogRepo := repo.NewSyncLogRepository(pgClient.DB())

	// Services
	usageService := usageservice.NewService(usageRepo, log)
	windows, redisClient := initWindowStore(cfg, log)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	usageManager := usageservice.NewManager(usageService, windows, usageservice.ManagerConfig{
		StatusCacheTTL:  cfg.Usage.StatusCacheTTL,
		RateLimitMax:    cfg.Usage.RateLimitMax,
		RateLimitWindow: cfg.Usage.RateLimitWindow,
	}, log)

	catalogService := catalogservice.NewService(modelRepo, log)
	catalogAPI := openrouter.NewClient(cfg.Catalog)
	syncService := catalogservice.NewSyncService(catalogAPI, modelRepo, syncLogRepo, log)

	// Workers
	scheduler := workers.NewScheduler()
	scheduler.RegisterWorker(workers.NewCatalogSyncWorker(
		syncService,
		catalogService,
		cfg.Catalog.SyncInterval,
		cfg.Catalog.SyncEnabled,
	))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start workers: %v", err)
	}

	// HTTP API
	server := initServer(cfg, pgClient, redisClient, usageManager, usageService, catalogService, syncService, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	log.Info("System initialized successfully")

	waitForShutdown(ctx, cancel, scheduler, server, errorTracker, log)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// initWindowStore picks the rate-limit backend. Redis is opt-in; any
// connection failure falls back to the in-memory store so startup never
// depends on Redis.
func initWindowStore(cfg *config.Config, log *logger.Logger) (usageservice.WindowStore, *redis.Client) {
	if cfg.Usage.RateLimitStore != "redis" {
		return usageservice.NewMemoryWindowStore(), nil
	}

	client, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Warnf("Failed to connect to Redis, using in-memory rate limiter: %v", err)
		return usageservice.NewMemoryWindowStore(), nil
	}

	log.Info("Rate limiter backed by Redis")
	return usageservice.NewRedisWindowStore(client.Client()), client
}

// initServer assembles the HTTP API with all handlers
func initServer(
	cfg *config.Config,
	pg *postgres.Client,
	redisClient *redis.Client,
	manager *usageservice.Manager,
	usageService *usageservice.Service,
	catalogService *catalogservice.Service,
	syncService *catalogservice.SyncService,
	log *logger.Logger,
) *api.Server {
	var rdb *redisv9.Client
	if redisClient != nil {
		rdb = redisClient.Client()
	}

	healthHandler := health.New(log, pg.DB(), rdb, cfg.App.Name, version)
	usageHandler := api.NewUsageHandler(manager, usageService, int64(cfg.Usage.DefaultUserLimit), log)
	catalogHandler := api.NewCatalogHandler(catalogService, syncService, log)

	return api.NewServer(api.ServerConfig{
		Port:        cfg.App.HTTPPort,
		ServiceName: cfg.App.Name,
		Version:     version,
	}, healthHandler, usageHandler, catalogHandler, manager, log)
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	scheduler *workers.Scheduler,
	server *api.Server,
	errorTracker errors.Tracker,
	log *logger.Logger,
) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("HTTP server shutdown: %v", err)
	}

	if err := scheduler.Stop(); err != nil {
		log.Warnf("Worker shutdown: %v", err)
	}

	if errorTracker != nil {
		if err := errorTracker.Flush(ctx); err != nil {
			log.Warnf("Failed to flush error tracker: %v", err)
		}
	}

	log.Info("Shutdown complete")
}
