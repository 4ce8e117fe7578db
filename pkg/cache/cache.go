// Package cache is Mosaic's key-value "memory" store, backed by Redis.
//
// Beyond plain caching it hosts the two synchronization primitives of the
// job runner: the per-tenant execution lock (SetNX) and numeric progress
// counters (Incr). The raw client is exposed via Client() for adapters
// that need richer commands (the uniqueness sorted set, the queue driver).
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mosaicpim/mosaic/config"
)

var RDB *redis.Client

// Connect initialises the Redis client and verifies the connection with a
// ping. Returns an error so the caller can react (log warning, fall back,
// or abort).
func Connect() error {
	RDB = redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       0,
	})

	if err := RDB.Ping(context.Background()).Err(); err != nil {
		RDB = nil // mark as unavailable so helpers no-op safely
		return fmt.Errorf("cache: redis ping: %w", err)
	}
	return nil
}

// Client returns the raw Redis client, or nil when not connected.
func Client() *redis.Client { return RDB }

// Get retrieves a cached value by key and unmarshals into dest.
// Returns true on a cache hit, false on miss or error.
func Get(ctx context.Context, key string, dest interface{}) bool {
	if RDB == nil {
		return false
	}

	val, err := RDB.Get(ctx, key).Result()
	if err != nil {
		return false
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false
	}

	return true
}

// Set stores value in Redis under key for the given TTL.
func Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if RDB == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return RDB.Set(ctx, key, data, ttl).Err()
}

// Del removes one or more keys from Redis.
func Del(ctx context.Context, keys ...string) error {
	if RDB == nil {
		return nil
	}
	return RDB.Del(ctx, keys...).Err()
}

// Incr atomically increments the integer stored at key and returns the
// new value.
func Incr(ctx context.Context, key string) (int64, error) {
	if RDB == nil {
		return 0, nil
	}
	return RDB.Incr(ctx, key).Result()
}

// SetNX atomically stores value under key only when the key is absent.
// Reports whether the key was claimed. This is the insert-if-absent
// primitive the job execution lock is built on.
func SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if RDB == nil {
		return false, fmt.Errorf("cache: not connected")
	}
	ok, err := RDB.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cache: setnx %s: %w", key, err)
	}
	return ok, nil
}
