package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	// GraphKey is namespaced and deterministic
	gk1 := k.GraphKey("team-roadmap")
	gk2 := k.GraphKey("team-roadmap")
	if gk1 != gk2 {
		t.Error("GraphKey should be deterministic")
	}
	if !strings.HasPrefix(gk1, "graph:") {
		t.Errorf("GraphKey should be namespaced: %s", gk1)
	}
	if gk1 == k.GraphKey("other-view") {
		t.Error("Different view IDs should produce different keys")
	}

	// LayoutKey should include options in hash
	lk1 := k.LayoutKey("hash123", LayoutKeyOpts{Iterations: 200, Gravity: 0.8})
	lk2 := k.LayoutKey("hash123", LayoutKeyOpts{Iterations: 500, Gravity: 0.8})
	if lk1 == lk2 {
		t.Error("Different LayoutKeyOpts should produce different keys")
	}

	// Boolean settings must contribute to the key too
	lk3 := k.LayoutKey("hash123", LayoutKeyOpts{Iterations: 200, Gravity: 0.8, LinLogMode: true})
	lk4 := k.LayoutKey("hash123", LayoutKeyOpts{Iterations: 200, Gravity: 0.8})
	if lk3 == lk4 {
		t.Error("LinLogMode should change the layout key")
	}

	// Different graph hashes produce different keys
	if k.LayoutKey("hash123", LayoutKeyOpts{}) == k.LayoutKey("hash456", LayoutKeyOpts{}) {
		t.Error("Different graph hashes should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "ws:123:")

	// All keys should be prefixed
	gk := scoped.GraphKey("team-roadmap")
	if !strings.HasPrefix(gk, "ws:123:graph:") {
		t.Errorf("ScopedKeyer GraphKey should be prefixed: %s", gk)
	}

	lk := scoped.LayoutKey("hash123", LayoutKeyOpts{Iterations: 200})
	if !strings.HasPrefix(lk, "ws:123:layout:") {
		t.Errorf("ScopedKeyer LayoutKey should be prefixed: %s", lk)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.GraphKey("view")
	if !strings.HasPrefix(key, "prefix:graph:") {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	// Miss on unknown key
	_, hit, err := c.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("Get on unknown key should miss")
	}

	// Round trip
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !hit {
		t.Fatal("Get after Set should hit")
	}
	if string(data) != "value" {
		t.Errorf("Get returned %q, want %q", data, "value")
	}

	// Delete
	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("Get after Delete should miss")
	}

	// Delete of missing key is not an error
	if err := c.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	// Expired entry reads as a miss
	if err := c.Set(ctx, "stale", []byte("old"), time.Nanosecond); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	_, hit, err := c.Get(ctx, "stale")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("Expired entry should miss")
	}

	// Zero TTL never expires
	if err := c.Set(ctx, "forever", []byte("v"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	_, hit, _ = c.Get(ctx, "forever")
	if !hit {
		t.Error("Zero-TTL entry should not expire")
	}
}
