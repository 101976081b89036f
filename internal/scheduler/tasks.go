package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskPipelineSyncTenant = "pipeline.sync_tenant"

type PipelineSyncTenantPayload struct {
	TenantID string `json:"tenantId"`
}

func NewPipelineSyncTenantTask(payload PipelineSyncTenantPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPipelineSyncTenant, data), nil
}

func ParsePipelineSyncTenantPayload(task *asynq.Task) (PipelineSyncTenantPayload, error) {
	var payload PipelineSyncTenantPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return PipelineSyncTenantPayload{}, err
	}
	return payload, nil
}
