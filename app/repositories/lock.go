package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/mosaicpim/mosaic/config"
	"github.com/mosaicpim/mosaic/pkg/cache"
)

// ExecutionLock guards the single per-tenant job execution slot.
type ExecutionLock interface {
	// Acquire claims the tenant's slot for the given job uid. It reports
	// false when another run already holds it. The claim must be atomic:
	// two concurrent Acquire calls can never both succeed.
	Acquire(ctx context.Context, tenant, uid string) (bool, error)
	// Release frees the slot regardless of who holds it.
	Release(ctx context.Context, tenant string) error
}

// RedisLock implements ExecutionLock on Redis SET NX with a TTL, so a
// crashed worker cannot hold a tenant's slot forever.
type RedisLock struct{}

func NewRedisLock() *RedisLock { return &RedisLock{} }

func lockKey(tenant string) string {
	return "mosaic:jobs:lock:" + tenant
}

func (l *RedisLock) Acquire(ctx context.Context, tenant, uid string) (bool, error) {
	ttl := time.Duration(config.JobLockTTLSeconds()) * time.Second
	ok, err := cache.SetNX(ctx, lockKey(tenant), uid, ttl)
	if err != nil {
		return false, fmt.Errorf("repositories: acquire job lock: %w", err)
	}
	return ok, nil
}

func (l *RedisLock) Release(ctx context.Context, tenant string) error {
	if err := cache.Del(ctx, lockKey(tenant)); err != nil {
		return fmt.Errorf("repositories: release job lock: %w", err)
	}
	return nil
}
