package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/veritas/internal/model"
)

func TestKey_StableAndNamespaced(t *testing.T) {
	a := Key("evidence", "synthetic", "The sky is blue")
	b := Key("evidence", "synthetic", "The sky is blue")
	c := Key("evidence", "tavily", "The sky is blue")

	if a != b {
		t.Error("Expected identical keys for identical parts")
	}
	if a == c {
		t.Error("Expected different keys for different parts")
	}
	if !strings.HasPrefix(a, "veritas:v1:evidence:") {
		t.Errorf("Unexpected key prefix: %s", a)
	}
}

func TestMemoryCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, time.Minute)

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, ok := c.Get(ctx, "k")
	if !ok || string(val) != "v" {
		t.Fatalf("Expected hit with 'v', got %q %v", val, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", c.Len())
	}

	_ = c.Delete(ctx, "k")
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("Expected miss after delete")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, time.Minute)

	_ = c.Set(ctx, "k", []byte("v"), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("Expected expired entry to miss")
	}
}

func TestDiskCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	key := Key("evidence", "x")
	if err := c.Set(ctx, key, []byte(`[{"snippet":"s"}]`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, ok := c.Get(ctx, key)
	if !ok {
		t.Fatal("Expected disk hit")
	}
	if string(val) != `[{"snippet":"s"}]` {
		t.Errorf("Unexpected value %q", val)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.Contains(e.Name(), ":") {
			t.Errorf("Cache file name contains colon: %s", e.Name())
		}
		if filepath.Ext(e.Name()) != ".cache" {
			t.Errorf("Unexpected leftover file: %s", e.Name())
		}
	}

	if err := c.Delete(ctx, key); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Errorf("Deleting a missing key should not fail: %v", err)
	}
}

func TestDiskCache_Expired(t *testing.T) {
	ctx := context.Background()
	c := NewDiskCache(t.TempDir(), time.Hour)

	_ = c.Set(ctx, "k", []byte("v"), time.Millisecond)
	time.Sleep(10 * time.Millisecond)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("Expected expired disk entry to miss")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first := NewLayeredCache(time.Minute, dir, time.Hour)
	if err := first.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// A fresh layered cache over the same dir starts with an empty memory layer
	second := NewLayeredCache(time.Minute, dir, time.Hour)
	val, ok := second.Get(ctx, "k")
	if !ok || string(val) != "v" {
		t.Fatalf("Expected disk hit, got %q %v", val, ok)
	}
	if _, ok := second.memory.Get(ctx, "k"); !ok {
		t.Error("Expected disk hit to be promoted to memory")
	}

	if err := second.Clear(ctx); err != nil {
		t.Errorf("Clear failed: %v", err)
	}
	if _, ok := second.Get(ctx, "k"); ok {
		t.Error("Expected miss after clear")
	}
}

func TestNew_Backends(t *testing.T) {
	cfg := model.DefaultConfig().Cache

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := c.(*MemoryCache); !ok {
		t.Errorf("Expected MemoryCache by default, got %T", c)
	}

	cfg.Backend = "layered"
	cfg.Dir = t.TempDir()
	if c, _ := New(cfg); c == nil {
		t.Error("Expected layered cache")
	}

	cfg.Backend = "redis"
	if _, err := New(cfg); err == nil {
		t.Error("Expected error for redis without address")
	}

	cfg.Backend = "bogus"
	if _, err := New(cfg); err == nil {
		t.Error("Expected error for unknown backend")
	}

	cfg.Enabled = false
	if c, err := New(cfg); c != nil || err != nil {
		t.Errorf("Expected nil cache for disabled config, got %v %v", c, err)
	}
}

func TestRedisCache_UnreachableIsMiss(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	// Nothing listens on this port; reads degrade to misses
	c := NewRedisCache("127.0.0.1:1", time.Minute)
	defer func() { _ = c.Close() }()

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("Expected miss from unreachable redis")
	}
	if err := c.Ping(ctx); err == nil {
		t.Error("Expected ping error from unreachable redis")
	}
}
