package service

import (
	"context"
	"testing"
	"time"
)

func cachedResult(version string) CachedResult {
	return CachedResult{
		SimilarProfiles: []SimilarProfile{{UserID: "other", Score: 7}},
		CalculatedAt:    time.Now().UTC(),
		ProfilesVersion: version,
	}
}

func TestMemoryResultCacheRoundTrip(t *testing.T) {
	cache := NewMemoryResultCache(time.Minute, 10)
	ctx := context.Background()

	if _, ok, _ := cache.Get(ctx, "u1", "c1"); ok {
		t.Fatalf("expected miss on empty cache")
	}

	if err := cache.Set(ctx, "u1", "c1", cachedResult("v1")); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	result, ok, err := cache.Get(ctx, "u1", "c1")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if result.ProfilesVersion != "v1" {
		t.Fatalf("expected version v1, got %q", result.ProfilesVersion)
	}
	if cache.Len(ctx) != 1 {
		t.Fatalf("expected 1 entry, got %d", cache.Len(ctx))
	}
}

func TestMemoryResultCacheTTL(t *testing.T) {
	cache := NewMemoryResultCache(10*time.Millisecond, 10)
	ctx := context.Background()

	_ = cache.Set(ctx, "u1", "c1", cachedResult("v1"))
	time.Sleep(20 * time.Millisecond)

	if _, ok, _ := cache.Get(ctx, "u1", "c1"); ok {
		t.Fatalf("expected expired entry to miss")
	}
}

func TestMemoryResultCacheEvictsOldest(t *testing.T) {
	cache := NewMemoryResultCache(time.Minute, 2)
	ctx := context.Background()

	_ = cache.Set(ctx, "u1", "c1", cachedResult("v1"))
	time.Sleep(2 * time.Millisecond)
	_ = cache.Set(ctx, "u2", "c1", cachedResult("v2"))
	time.Sleep(2 * time.Millisecond)
	_ = cache.Set(ctx, "u3", "c1", cachedResult("v3"))

	if _, ok, _ := cache.Get(ctx, "u1", "c1"); ok {
		t.Fatalf("expected oldest entry evicted")
	}
	if _, ok, _ := cache.Get(ctx, "u2", "c1"); !ok {
		t.Fatalf("expected newer entry to survive")
	}
	if _, ok, _ := cache.Get(ctx, "u3", "c1"); !ok {
		t.Fatalf("expected newest entry to survive")
	}
	if cache.Len(ctx) != 2 {
		t.Fatalf("expected 2 entries after eviction, got %d", cache.Len(ctx))
	}
}

func TestMemoryResultCacheDeleteCommunity(t *testing.T) {
	cache := NewMemoryResultCache(time.Minute, 10)
	ctx := context.Background()

	_ = cache.Set(ctx, "u1", "c1", cachedResult("v1"))
	_ = cache.Set(ctx, "u2", "c1", cachedResult("v1"))
	_ = cache.Set(ctx, "u1", "c2", cachedResult("v1"))

	if err := cache.DeleteCommunity(ctx, "c1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, ok, _ := cache.Get(ctx, "u1", "c1"); ok {
		t.Fatalf("expected c1 entries removed")
	}
	if _, ok, _ := cache.Get(ctx, "u2", "c1"); ok {
		t.Fatalf("expected c1 entries removed")
	}
	if _, ok, _ := cache.Get(ctx, "u1", "c2"); !ok {
		t.Fatalf("expected other community untouched")
	}
}
