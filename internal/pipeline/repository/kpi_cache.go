package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"eclipse_backend/internal/pipeline/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const kpiCacheKeyPrefix = "pipeline:kpis:"

// RedisKPICache stores computed funnel KPIs per tenant.
type RedisKPICache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisKPICache creates a KPI cache. A non-positive ttl disables caching.
func NewRedisKPICache(client *redis.Client, ttl time.Duration) *RedisKPICache {
	return &RedisKPICache{client: client, ttl: ttl}
}

func kpiCacheKey(tenantID uuid.UUID) string {
	return kpiCacheKeyPrefix + tenantID.String()
}

// Get returns the cached KPIs and whether they were present.
func (c *RedisKPICache) Get(ctx context.Context, tenantID uuid.UUID) (domain.KPIs, bool, error) {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return domain.KPIs{}, false, nil
	}

	raw, err := c.client.Get(ctx, kpiCacheKey(tenantID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.KPIs{}, false, nil
		}
		return domain.KPIs{}, false, fmt.Errorf("read kpi cache: %w", err)
	}

	var kpis domain.KPIs
	if err := json.Unmarshal(raw, &kpis); err != nil {
		return domain.KPIs{}, false, fmt.Errorf("decode kpi cache: %w", err)
	}
	return kpis, true, nil
}

// Set stores kpis for the configured TTL.
func (c *RedisKPICache) Set(ctx context.Context, tenantID uuid.UUID, kpis domain.KPIs) error {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(kpis)
	if err != nil {
		return fmt.Errorf("encode kpi cache: %w", err)
	}
	if err := c.client.Set(ctx, kpiCacheKey(tenantID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("write kpi cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached KPIs of the tenant.
func (c *RedisKPICache) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, kpiCacheKey(tenantID)).Err(); err != nil {
		return fmt.Errorf("invalidate kpi cache: %w", err)
	}
	return nil
}
