package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eclipse_backend/internal/adapters/storage"
	"eclipse_backend/internal/email"
	"eclipse_backend/internal/events"
	"eclipse_backend/internal/pipeline"
	pipelinerepo "eclipse_backend/internal/pipeline/repository"
	pipelineservice "eclipse_backend/internal/pipeline/service"
	"eclipse_backend/internal/scheduledsend"
	scheduledsendrepo "eclipse_backend/internal/scheduledsend/repository"
	"eclipse_backend/internal/scheduler"
	"eclipse_backend/platform/cache"
	"eclipse_backend/platform/config"
	"eclipse_backend/platform/db"
	"eclipse_backend/platform/logger"
	"eclipse_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	// Worker-side pipeline wiring (no HTTP handlers required). Status writes
	// still invalidate the API's KPI cache when Redis is available.
	var kpiCache pipelineservice.KPICache
	if cfg.GetRedisURL() != "" && cfg.GetKPICacheTTL() > 0 {
		redisClient, err := cache.NewRedisClient(ctx, cfg)
		if err != nil {
			log.Warn("failed to connect to redis; KPI cache invalidation disabled", "error", err)
		} else {
			defer func() { _ = redisClient.Close() }()
			kpiCache = pipelinerepo.NewRedisKPICache(redisClient, cfg.GetKPICacheTTL())
		}
	}

	pipelineModule, err := pipeline.NewModule(pool, eventBus, val, kpiCache, cfg, log)
	if err != nil {
		log.Error("failed to initialize pipeline module", "error", err)
		panic("failed to initialize pipeline module: " + err.Error())
	}

	pipelineModule.RegisterHandlers(eventBus)
	scheduledsend.RegisterHandlers(eventBus, log)

	g, gctx := errgroup.WithContext(ctx)

	if reconciler := initReconciler(gctx, cfg, pool, log); reconciler != nil {
		reconciler.SetActionRecorder(pipelineModule.Service())
		reconciler.SetEventBus(eventBus)
		g.Go(func() error {
			reconciler.Run(gctx)
			return nil
		})
	}

	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; pipeline resync worker disabled")
	} else {
		worker, err := scheduler.NewWorker(cfg, pipelineModule.Service(), log)
		if err != nil {
			log.Error("failed to initialize scheduler worker", "error", err)
			panic("failed to initialize scheduler worker: " + err.Error())
		}
		g.Go(func() error {
			worker.Run(gctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("scheduler stopped", "error", err)
	}
	eventBus.Wait()
	log.Info("scheduler stopped")
}

// initReconciler builds the scheduled send reconciler. It returns nil when
// SMTP is not configured.
func initReconciler(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, log *logger.Logger) *scheduledsend.Reconciler {
	sender, err := email.NewSMTPSenderFromConfig(cfg)
	if err != nil {
		log.Warn("SMTP not configured; scheduled emails and newsletters disabled")
		return nil
	}

	reconciler := scheduledsend.NewReconciler(scheduledsendrepo.New(pool), sender, cfg, log)

	if !cfg.IsMinIOEnabled() {
		log.Warn("MinIO not configured; scheduled emails with attachments will fail")
		return reconciler
	}

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	bucket := cfg.GetMinioBucketEmailAttachments()
	if err := withRetry(ctx, log, "ensure email-attachments bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	reconciler.SetAttachmentFetcher(storageSvc, bucket)
	log.Info("storage service initialized", "email_attachments_bucket", bucket)

	return reconciler
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
