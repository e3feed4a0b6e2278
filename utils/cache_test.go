package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(100, 0)

	if err := cache.Set(ctx, "srv:org", "whois.pir.org", 5*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}

	result, err := cache.Get(ctx, "srv:org")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !result.Found || result.Data != "whois.pir.org" {
		t.Fatalf("Get = %+v; want a hit with whois.pir.org", result)
	}

	result, err = cache.Get(ctx, "srv:missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if result.Found {
		t.Fatal("expected a miss for an unknown key")
	}
}

func TestMemoryCacheExpiration(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(100, 0)

	if err := cache.Set(ctx, "srv:dev", "whois.nic.google", 50*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	result, err := cache.Get(ctx, "srv:dev")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if result.Found {
		t.Fatal("expected the expired entry to be a miss")
	}
}

func TestMemoryCacheSizeLimit(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(1, 0)

	if err := cache.Set(ctx, "a", "1", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// The cache is full and "a" has not expired: the write is refused.
	if err := cache.Set(ctx, "b", "2", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if result, _ := cache.Get(ctx, "b"); result.Found {
		t.Error("write should have been refused at capacity")
	}
	if result, _ := cache.Get(ctx, "a"); !result.Found {
		t.Error("existing entry should survive a refused write")
	}
}

// stubCache is a controllable Cache for fallback tests.
type stubCache struct {
	healthy bool
	getErr  error
	data    map[string]string
}

func (s *stubCache) Get(ctx context.Context, key string) (CacheResult, error) {
	if s.getErr != nil {
		return CacheResult{}, s.getErr
	}
	value, ok := s.data[key]
	return CacheResult{Data: value, Found: ok}, nil
}

func (s *stubCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	if s.data == nil {
		s.data = make(map[string]string)
	}
	s.data[key] = value
	return nil
}

func (s *stubCache) IsHealthy() bool { return s.healthy }

func TestFallbackCacheUsesPrimary(t *testing.T) {
	ctx := context.Background()
	primary := &stubCache{healthy: true, data: map[string]string{"k": "primary"}}
	fallback := &stubCache{healthy: true, data: map[string]string{"k": "fallback"}}
	fc := NewFallbackCache(primary, fallback)

	result, err := fc.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if result.Data != "primary" {
		t.Errorf("Get = %q; want the primary's value", result.Data)
	}
}

func TestFallbackCacheFallsBack(t *testing.T) {
	ctx := context.Background()
	fallback := &stubCache{healthy: true, data: map[string]string{"k": "fallback"}}

	// Unhealthy primary.
	fc := NewFallbackCache(&stubCache{healthy: false}, fallback)
	result, err := fc.Get(ctx, "k")
	if err != nil || result.Data != "fallback" {
		t.Errorf("Get with unhealthy primary = %+v, %v; want the fallback's value", result, err)
	}

	// Healthy but erroring primary.
	fc = NewFallbackCache(&stubCache{healthy: true, getErr: errors.New("boom")}, fallback)
	result, err = fc.Get(ctx, "k")
	if err != nil || result.Data != "fallback" {
		t.Errorf("Get with erroring primary = %+v, %v; want the fallback's value", result, err)
	}
}

func TestFallbackCacheWritesBoth(t *testing.T) {
	ctx := context.Background()
	primary := &stubCache{healthy: true}
	fallback := &stubCache{healthy: true}
	fc := NewFallbackCache(primary, fallback)

	if err := fc.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if primary.data["k"] != "v" {
		t.Error("primary missed the write")
	}
	if fallback.data["k"] != "v" {
		t.Error("fallback missed the write")
	}
}
