// Package utils provides the shared store used to remember dynamically
// discovered WHOIS servers, with a Redis primary and an in-memory fallback,
// plus small HTTP helpers for the service layer.
package utils

import (
	"context"
	"sync"
	"time"
)

// CacheResult is the outcome of a cache read. A miss is not an error.
type CacheResult struct {
	Data  string
	Found bool
}

// Cache is the store interface. Implementations must be safe for concurrent
// use.
type Cache interface {
	Get(ctx context.Context, key string) (CacheResult, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	IsHealthy() bool
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache is a bounded in-memory Cache. It serves as the fallback when
// Redis is unavailable.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	maxSize int
}

// NewMemoryCache returns a MemoryCache holding at most maxSize entries.
// Expired entries are swept every cleanInterval when it is positive.
func NewMemoryCache(maxSize int, cleanInterval time.Duration) *MemoryCache {
	mc := &MemoryCache{
		entries: make(map[string]memoryEntry),
		maxSize: maxSize,
	}
	if cleanInterval > 0 {
		go mc.cleaner(cleanInterval)
	}
	return mc
}

// Get retrieves a value, treating expired entries as misses.
func (mc *MemoryCache) Get(ctx context.Context, key string) (CacheResult, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	entry, ok := mc.entries[key]
	if !ok {
		return CacheResult{}, nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(mc.entries, key)
		return CacheResult{}, nil
	}
	return CacheResult{Data: entry.value, Found: true}, nil
}

// Set stores a value. When the cache is full it drops expired entries first
// and silently refuses the write if it is still full.
func (mc *MemoryCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, exists := mc.entries[key]; !exists && len(mc.entries) >= mc.maxSize {
		mc.removeExpiredLocked()
		if len(mc.entries) >= mc.maxSize {
			return nil
		}
	}
	mc.entries[key] = memoryEntry{value: value, expiresAt: time.Now().Add(expiration)}
	return nil
}

// IsHealthy always reports true: memory is the fallback of last resort.
func (mc *MemoryCache) IsHealthy() bool {
	return true
}

func (mc *MemoryCache) cleaner(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		mc.mu.Lock()
		mc.removeExpiredLocked()
		mc.mu.Unlock()
	}
}

func (mc *MemoryCache) removeExpiredLocked() {
	now := time.Now()
	for key, entry := range mc.entries {
		if now.After(entry.expiresAt) {
			delete(mc.entries, key)
		}
	}
}

// FallbackCache reads and writes through a primary Cache, falling back to a
// secondary when the primary is unhealthy or errors. Writes go to both so a
// recovered primary never shadows fresher fallback data with a miss.
type FallbackCache struct {
	primary  Cache
	fallback Cache
}

// NewFallbackCache combines a primary and a fallback Cache.
func NewFallbackCache(primary, fallback Cache) *FallbackCache {
	return &FallbackCache{primary: primary, fallback: fallback}
}

// Get tries the primary first and consults the fallback only when the
// primary is unhealthy or fails.
func (fc *FallbackCache) Get(ctx context.Context, key string) (CacheResult, error) {
	if fc.primary.IsHealthy() {
		if result, err := fc.primary.Get(ctx, key); err == nil {
			return result, nil
		}
	}
	return fc.fallback.Get(ctx, key)
}

// Set writes to both caches, reporting the primary's error when it has one.
func (fc *FallbackCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	var primaryErr error
	if fc.primary.IsHealthy() {
		primaryErr = fc.primary.Set(ctx, key, value, expiration)
	}
	fallbackErr := fc.fallback.Set(ctx, key, value, expiration)
	if primaryErr != nil {
		return primaryErr
	}
	return fallbackErr
}

// IsHealthy reports true as long as either layer is usable.
func (fc *FallbackCache) IsHealthy() bool {
	return fc.primary.IsHealthy() || fc.fallback.IsHealthy()
}

// IsPrimaryHealthy reports the health of the primary layer alone, for
// health endpoints that distinguish Redis from the memory fallback.
func (fc *FallbackCache) IsPrimaryHealthy() bool {
	return fc.primary.IsHealthy()
}
