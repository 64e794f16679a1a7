package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"whiteboard-backend/internal/model"
)

func newTestCache(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisClient(mr.Addr(), "", 0, 30*time.Second)
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestListCacheRoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if _, ok := c.Get(ctx); ok {
		t.Fatal("empty cache reported a hit")
	}

	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	list := []model.WhiteboardSummary{{ID: "a", Name: "A", CreatedAt: now, UpdatedAt: now}}
	gen, ok := c.Generation(ctx)
	if !ok || gen != 0 {
		t.Fatalf("Generation = %d, %v", gen, ok)
	}
	c.Set(ctx, gen, list)

	got, ok := c.Get(ctx)
	if !ok || len(got) != 1 || got[0].Name != "A" || !got[0].UpdatedAt.Equal(now) {
		t.Fatalf("Get = %+v, %v", got, ok)
	}
	if ttl := mr.TTL(ListKey); ttl != 30*time.Second {
		t.Fatalf("ttl = %v", ttl)
	}

	mr.FastForward(31 * time.Second)
	if _, ok := c.Get(ctx); ok {
		t.Fatal("entry survived its TTL")
	}
}

func TestListCacheInvalidate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	c.Set(ctx, 0, nil)
	if got, ok := c.Get(ctx); !ok || len(got) != 0 {
		t.Fatalf("empty list not cached: %v %v", got, ok)
	}
	c.Invalidate(ctx)
	if _, ok := c.Get(ctx); ok {
		t.Fatal("hit after invalidate")
	}
}

func TestListCacheCorruptEntry(t *testing.T) {
	c, mr := newTestCache(t)
	if err := mr.Set(ListKey, "not json"); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(context.Background()); ok {
		t.Fatal("corrupt entry reported a hit")
	}
	if mr.Exists(ListKey) {
		t.Fatal("corrupt entry not dropped")
	}
}

func TestListCacheServerDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()
	ctx := context.Background()
	if _, ok := c.Generation(ctx); ok {
		t.Fatal("generation readable with server down")
	}
	c.Set(ctx, 0, []model.WhiteboardSummary{{ID: "x"}})
	if _, ok := c.Get(ctx); ok {
		t.Fatal("hit with server down")
	}
	if err := c.Health(ctx); err == nil {
		t.Fatal("health should fail")
	}
}

func TestNopCache(t *testing.T) {
	var c ListCache = NopCache{}
	ctx := context.Background()
	if _, ok := c.Generation(ctx); ok {
		t.Fatal("nop cache offered a generation")
	}
	c.Set(ctx, 0, []model.WhiteboardSummary{{ID: "x"}})
	if _, ok := c.Get(ctx); ok {
		t.Fatal("nop cache hit")
	}
	if err := c.Health(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestListCacheSkipsStaleGeneration(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	gen, _ := c.Generation(ctx)
	c.Invalidate(ctx) // a write lands while the reader queries the store
	c.Set(ctx, gen, []model.WhiteboardSummary{{ID: "old"}})
	if _, ok := c.Get(ctx); ok || mr.Exists(ListKey) {
		t.Fatal("stale list cached after invalidate")
	}

	gen, ok := c.Generation(ctx)
	if !ok || gen != 1 {
		t.Fatalf("Generation = %d, %v", gen, ok)
	}
	c.Set(ctx, gen, []model.WhiteboardSummary{{ID: "new"}})
	if got, ok := c.Get(ctx); !ok || got[0].ID != "new" {
		t.Fatalf("Get = %+v, %v", got, ok)
	}
}
