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

	"eclipse_backend/internal/clients"
	"eclipse_backend/internal/events"
	apphttp "eclipse_backend/internal/http"
	"eclipse_backend/internal/http/router"
	"eclipse_backend/internal/pipeline"
	pipelinerepo "eclipse_backend/internal/pipeline/repository"
	pipelineservice "eclipse_backend/internal/pipeline/service"
	"eclipse_backend/internal/scheduler"
	"eclipse_backend/platform/cache"
	"eclipse_backend/platform/config"
	"eclipse_backend/platform/db"
	"eclipse_backend/platform/logger"
	"eclipse_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg)
	}); err != nil {
		log.DatabaseError("migrate", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.DatabaseError("connect", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	kpiCache, closeRedis := initKPICache(ctx, cfg, log)
	if closeRedis != nil {
		defer closeRedis()
	}

	syncClient, closeScheduler := initSyncClient(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	pipelineModule, err := pipeline.NewModule(pool, eventBus, val, kpiCache, cfg, log)
	if err != nil {
		log.Error("failed to initialize pipeline module", "error", err)
		panic("failed to initialize pipeline module: " + err.Error())
	}
	pipelineModule.RegisterHandlers(eventBus)
	if syncClient != nil {
		pipelineModule.SetSyncEnqueuer(syncClient)
	}

	clientsModule, err := clients.NewModule(pool, eventBus, val, cfg)
	if err != nil {
		log.Error("failed to initialize clients module", "error", err)
		panic("failed to initialize clients module: " + err.Error())
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			pipelineModule,
			clientsModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		waitForHandlers(shutdownCtx, eventBus, log)
	case err, ok := <-srvErr:
		if ok && err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// waitForHandlers lets in-flight event handlers finish until ctx expires.
func waitForHandlers(ctx context.Context, bus *events.InMemoryBus, log *logger.Logger) {
	done := make(chan struct{})
	go func() {
		bus.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		log.Warn("event handlers still running at shutdown")
	}
}

// initKPICache connects the Redis-backed KPI cache. The returned cache is nil
// when Redis is not configured, unreachable or the TTL disables caching.
func initKPICache(ctx context.Context, cfg *config.Config, log *logger.Logger) (pipelineservice.KPICache, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; KPI cache disabled")
		return nil, nil
	}
	if cfg.GetKPICacheTTL() <= 0 {
		log.Info("KPI cache disabled by KPI_CACHE_TTL")
		return nil, nil
	}

	var client *redis.Client
	if err := withRetry(ctx, log, "redis connection", 3, time.Second, func() error {
		c, err := cache.NewRedisClient(ctx, cfg)
		if err != nil {
			return err
		}
		client = c
		return nil
	}); err != nil {
		log.Error("failed to connect to redis; KPI cache disabled", "error", err)
		return nil, nil
	}

	log.Info("KPI cache enabled", "ttl", cfg.GetKPICacheTTL().String())
	return pipelinerepo.NewRedisKPICache(client, cfg.GetKPICacheTTL()), func() {
		_ = client.Close()
	}
}

func initSyncClient(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; background pipeline resync disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
