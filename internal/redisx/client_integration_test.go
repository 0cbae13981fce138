//go:build integration

package redisx

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
)

// Run with: TEST_REDIS_ADDR=localhost:6379 go test -tags integration ./internal/redisx/
func TestStatusCacheDropsStaleWrite(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := New(addr)
	t.Cleanup(func() { _ = rdb.Close() })
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	cache := NewStatusCache(rdb)
	number := uuid.NewString()[:12]

	if _, _, ok := cache.Get(ctx, number); ok {
		t.Fatal("hit on empty cache")
	}
	// a reader observes the generation, then loads the pending order
	ver, err := cache.Version(ctx, number)
	if err != nil {
		t.Fatal(err)
	}
	// the order is paid and the entry invalidated before the reader writes back
	if err := cache.Invalidate(ctx, number); err != nil {
		t.Fatal(err)
	}
	if err := cache.Set(ctx, number, ver, "u1", "Pending"); err != nil {
		t.Fatal(err)
	}
	if _, status, ok := cache.Get(ctx, number); ok {
		t.Fatalf("stale entry served: %s", status)
	}

	ver, err = cache.Version(ctx, number)
	if err != nil {
		t.Fatal(err)
	}
	if err := cache.Set(ctx, number, ver, "u1", "Paid"); err != nil {
		t.Fatal(err)
	}
	uid, status, ok := cache.Get(ctx, number)
	if !ok || uid != "u1" || status != "Paid" {
		t.Fatalf("get=%q %q %v", uid, status, ok)
	}
}
