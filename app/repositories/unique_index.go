package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mosaicpim/mosaic/pkg/cache"
)

// UniqueIndex tracks values already taken by unique attributes, one logical
// set per (tenant, attribute).
//
// Exists and Record are two separate round trips, so two writers probing the
// same fresh value at the same instant can both pass the check and both
// record it. The index is a guard against accidental duplicates, not a
// serializable constraint; the state store remains the source of truth.
type UniqueIndex interface {
	Exists(ctx context.Context, tenant, attribute, value string) (bool, error)
	Record(ctx context.Context, tenant, attribute, value string) error
	Remove(ctx context.Context, tenant, attribute, value string) error
}

// RedisUniqueIndex keeps each (tenant, attribute) set in a Redis sorted set
// with all scores at zero; ZScore doubles as the membership probe.
type RedisUniqueIndex struct{}

func NewRedisUniqueIndex() *RedisUniqueIndex { return &RedisUniqueIndex{} }

func uniqueKey(tenant, attribute string) string {
	return fmt.Sprintf("mosaic:unique:%s:%s", tenant, attribute)
}

func (i *RedisUniqueIndex) Exists(ctx context.Context, tenant, attribute, value string) (bool, error) {
	rdb := cache.Client()
	if rdb == nil {
		return false, fmt.Errorf("repositories: unique index: cache not connected")
	}

	_, err := rdb.ZScore(ctx, uniqueKey(tenant, attribute), value).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("repositories: unique probe %s/%s: %w", tenant, attribute, err)
	}
	return true, nil
}

func (i *RedisUniqueIndex) Record(ctx context.Context, tenant, attribute, value string) error {
	rdb := cache.Client()
	if rdb == nil {
		return fmt.Errorf("repositories: unique index: cache not connected")
	}

	err := rdb.ZAdd(ctx, uniqueKey(tenant, attribute), redis.Z{Score: 0, Member: value}).Err()
	if err != nil {
		return fmt.Errorf("repositories: unique record %s/%s: %w", tenant, attribute, err)
	}
	return nil
}

func (i *RedisUniqueIndex) Remove(ctx context.Context, tenant, attribute, value string) error {
	rdb := cache.Client()
	if rdb == nil {
		return fmt.Errorf("repositories: unique index: cache not connected")
	}

	if err := rdb.ZRem(ctx, uniqueKey(tenant, attribute), value).Err(); err != nil {
		return fmt.Errorf("repositories: unique remove %s/%s: %w", tenant, attribute, err)
	}
	return nil
}
