package scheduler

import (
	"context"
	"fmt"

	pipelineservice "eclipse_backend/internal/pipeline/service"
	"eclipse_backend/platform/config"
	"eclipse_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// PipelineSyncer recomputes every client status of a tenant.
type PipelineSyncer interface {
	SyncTenant(ctx context.Context, tenantID uuid.UUID) (pipelineservice.SyncReport, error)
}

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	pipeline PipelineSyncer
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pipeline PipelineSyncer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := &Worker{
		server:   server,
		pipeline: pipeline,
		log:      log,
	}
	w.mux = w.newMux()

	return w, nil
}

func (w *Worker) newMux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskPipelineSyncTenant, w.handlePipelineSyncTenant)
	return mux
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handlePipelineSyncTenant(ctx context.Context, task *asynq.Task) error {
	payload, err := ParsePipelineSyncTenantPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return fmt.Errorf("%w: invalid tenant id %q", asynq.SkipRetry, payload.TenantID)
	}

	report, err := w.pipeline.SyncTenant(ctx, tenantID)
	if err != nil {
		return err
	}

	w.log.WithTenant(tenantID.String()).Info("pipeline sync task completed",
		"checked", report.Checked, "updated", report.Updated, "failed", report.Failed)
	return nil
}
