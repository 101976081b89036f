package scheduler

import (
	"context"
	"errors"
	"testing"

	pipelineservice "eclipse_backend/internal/pipeline/service"
	"eclipse_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type fakeSyncer struct {
	tenants []uuid.UUID
	err     error
}

func (f *fakeSyncer) SyncTenant(_ context.Context, tenantID uuid.UUID) (pipelineservice.SyncReport, error) {
	f.tenants = append(f.tenants, tenantID)
	return pipelineservice.SyncReport{Checked: 2, Updated: 1}, f.err
}

func TestPipelineSyncTenantTaskPayload(t *testing.T) {
	tenantID := uuid.New()
	task, err := NewPipelineSyncTenantTask(PipelineSyncTenantPayload{TenantID: tenantID.String()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Type() != TaskPipelineSyncTenant {
		t.Fatalf("expected task type %s, got %s", TaskPipelineSyncTenant, task.Type())
	}
	if string(task.Payload()) != `{"tenantId":"`+tenantID.String()+`"}` {
		t.Fatalf("unexpected payload: %s", task.Payload())
	}
}

func TestHandlePipelineSyncTenant(t *testing.T) {
	syncer := &fakeSyncer{}
	w := &Worker{pipeline: syncer, log: logger.Discard()}
	tenantID := uuid.New()

	task, _ := NewPipelineSyncTenantTask(PipelineSyncTenantPayload{TenantID: tenantID.String()})
	if err := w.handlePipelineSyncTenant(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(syncer.tenants) != 1 || syncer.tenants[0] != tenantID {
		t.Fatalf("expected sync for %s, got %v", tenantID, syncer.tenants)
	}
}

func TestHandlePipelineSyncTenantSkipsRetryOnBadPayload(t *testing.T) {
	w := &Worker{pipeline: &fakeSyncer{}, log: logger.Discard()}

	err := w.handlePipelineSyncTenant(context.Background(), asynq.NewTask(TaskPipelineSyncTenant, []byte(`{"tenantId":"nope"}`)))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}

	err = w.handlePipelineSyncTenant(context.Background(), asynq.NewTask(TaskPipelineSyncTenant, []byte(`not json`)))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for malformed payload, got %v", err)
	}
}

func TestHandlePipelineSyncTenantPropagatesFailure(t *testing.T) {
	w := &Worker{pipeline: &fakeSyncer{err: errors.New("db down")}, log: logger.Discard()}
	task, _ := NewPipelineSyncTenantTask(PipelineSyncTenantPayload{TenantID: uuid.NewString()})

	if err := w.handlePipelineSyncTenant(context.Background(), task); err == nil {
		t.Fatal("expected failure to be returned so asynq retries")
	}
}

func TestRedisClientOpt(t *testing.T) {
	opt, err := redisClientOpt("rediss://user:pw@cache.internal:6380/1", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opt.Addr != "cache.internal:6380" || opt.Username != "user" || opt.Password != "pw" || opt.DB != 1 {
		t.Fatalf("unexpected options: %+v", opt)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatal("expected insecure TLS config")
	}
}

func TestNilClientEnqueueIsNoop(t *testing.T) {
	var c *Client
	if err := c.EnqueuePipelineSync(context.Background(), uuid.New()); err != nil {
		t.Fatalf("expected nil client to be a no-op, got %v", err)
	}
}
