package rollupcache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryInvalidateDropsAllMonths(t *testing.T) {
	c := NewMemory(time.Minute)
	ctx := context.Background()

	_ = c.Set(ctx, "et-1", "2026-01|UTC", []byte("jan"))
	_ = c.Set(ctx, "et-1", "2026-02|UTC", []byte("feb"))
	_ = c.Set(ctx, "et-2", "2026-01|UTC", []byte("other"))

	if v, ok, _ := c.Get(ctx, "et-1", "2026-01|UTC"); !ok || string(v) != "jan" {
		t.Fatalf("expected cached jan, got %q ok=%v", v, ok)
	}

	if err := c.Invalidate(ctx, "et-1"); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	for _, k := range []string{"2026-01|UTC", "2026-02|UTC"} {
		if _, ok, _ := c.Get(ctx, "et-1", k); ok {
			t.Fatalf("expected %s to be invalidated", k)
		}
	}
	if _, ok, _ := c.Get(ctx, "et-2", "2026-01|UTC"); !ok {
		t.Fatal("expected other event type to keep its entry")
	}

	_ = c.Set(ctx, "et-1", "2026-01|UTC", []byte("jan2"))
	if v, ok, _ := c.Get(ctx, "et-1", "2026-01|UTC"); !ok || string(v) != "jan2" {
		t.Fatalf("expected fresh entry after invalidate, got %q ok=%v", v, ok)
	}
}

func TestMemoryTTL(t *testing.T) {
	c := NewMemory(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_ = c.Set(ctx, "et", "k", []byte("v"))
	now = now.Add(59 * time.Second)
	if _, ok, _ := c.Get(ctx, "et", "k"); !ok {
		t.Fatal("expected entry before ttl")
	}
	now = now.Add(time.Second)
	if _, ok, _ := c.Get(ctx, "et", "k"); ok {
		t.Fatal("expected entry to expire")
	}
}

func TestMemorySetSweepsStaleEntries(t *testing.T) {
	c := NewMemory(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_ = c.Set(ctx, "et-1", "2026-01|UTC", []byte("jan"))
	_ = c.Set(ctx, "et-1", "2026-02|UTC", []byte("feb"))
	_ = c.Set(ctx, "et-2", "2026-01|UTC", []byte("other"))
	if n := c.Len(); n != 3 {
		t.Fatalf("expected 3 entries, got %d", n)
	}

	_ = c.Invalidate(ctx, "et-1")
	_ = c.Set(ctx, "et-1", "2026-03|UTC", []byte("mar"))
	if n := c.Len(); n != 2 {
		t.Fatalf("expected superseded entries swept, got %d", n)
	}

	now = now.Add(time.Minute)
	_ = c.Set(ctx, "et-3", "2026-01|UTC", []byte("new"))
	if n := c.Len(); n != 1 {
		t.Fatalf("expected expired entries swept, got %d", n)
	}
	if v, ok, _ := c.Get(ctx, "et-3", "2026-01|UTC"); !ok || string(v) != "new" {
		t.Fatalf("expected fresh entry, got %q ok=%v", v, ok)
	}
}

func TestMemoryCopiesValue(t *testing.T) {
	c := NewMemory(time.Minute)
	ctx := context.Background()
	buf := []byte("abc")
	_ = c.Set(ctx, "et", "k", buf)
	buf[0] = 'x'
	if v, _, _ := c.Get(ctx, "et", "k"); string(v) != "abc" {
		t.Fatalf("expected stored copy abc, got %q", v)
	}
}
