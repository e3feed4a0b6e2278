package utils

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is the Redis-backed Cache. It tracks its own health: any Redis
// error marks it unhealthy and a background checker probes for recovery, so
// a dead Redis costs one failed call rather than one per lookup.
type RedisCache struct {
	client  *redis.Client
	mu      sync.RWMutex
	healthy bool
}

// NewRedisCache wraps a Redis client, probing it once immediately and then
// every 30 seconds.
func NewRedisCache(client *redis.Client) *RedisCache {
	rc := &RedisCache{client: client}
	rc.checkHealth(true)
	go rc.healthChecker()
	return rc
}

// Get retrieves a value from Redis. A missing key is a miss, not an error.
func (rc *RedisCache) Get(ctx context.Context, key string) (CacheResult, error) {
	if !rc.IsHealthy() {
		return CacheResult{}, nil
	}

	value, err := rc.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		return CacheResult{Data: value, Found: true}, nil
	case err == redis.Nil:
		return CacheResult{}, nil
	default:
		rc.setHealthy(false)
		return CacheResult{}, err
	}
}

// Set stores a value in Redis, silently skipping the write while unhealthy.
func (rc *RedisCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	if !rc.IsHealthy() {
		return nil
	}
	if err := rc.client.Set(ctx, key, value, expiration).Err(); err != nil {
		rc.setHealthy(false)
		return err
	}
	return nil
}

// IsHealthy reports whether the last Redis interaction succeeded.
func (rc *RedisCache) IsHealthy() bool {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.healthy
}

func (rc *RedisCache) setHealthy(healthy bool) {
	rc.mu.Lock()
	rc.healthy = healthy
	rc.mu.Unlock()
}

func (rc *RedisCache) checkHealth(initial bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	wasHealthy := rc.IsHealthy()
	if _, err := rc.client.Ping(ctx).Result(); err != nil {
		rc.setHealthy(false)
		if initial {
			log.Printf("Redis unavailable: %v\n", err)
		} else if wasHealthy {
			log.Printf("Redis connection lost: %v\n", err)
		}
		return
	}

	rc.setHealthy(true)
	if !initial && !wasHealthy {
		log.Println("Redis connection restored")
	}
}

func (rc *RedisCache) healthChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		rc.checkHealth(false)
	}
}
