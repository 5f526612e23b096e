package translation

import (
	"context"
	"testing"
	"time"
)

func TestCachedTranslatorServesRepeats(t *testing.T) {
	cache, err := OpenCache("", time.Hour)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })

	inner := newFakeTranslator("नमस्कार", nil)
	close(inner.release)
	tr := WithCache(inner, cache, "Marathi", newLogger())

	for i := 0; i < 3; i++ {
		got, err := tr.Translate(context.Background(), "HELLO")
		if err != nil {
			t.Fatalf("translate: %v", err)
		}
		if got != "नमस्कार" {
			t.Fatalf("unexpected translation %q", got)
		}
	}
	if inner.calls.Load() != 1 {
		t.Fatalf("expected one backend call, got %d", inner.calls.Load())
	}
}

func TestCacheKeyedByLanguage(t *testing.T) {
	cache, err := OpenCache("", 0)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })

	if err := cache.Put("Marathi", "YES", "होय"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, ok, _ := cache.Get("Hindi", "YES"); ok {
		t.Fatal("expected miss for other language")
	}
	got, ok, err := cache.Get("Marathi", "YES")
	if err != nil || !ok || got != "होय" {
		t.Fatalf("unexpected get %q %v %v", got, ok, err)
	}
}

func TestCachePersistsOnDisk(t *testing.T) {
	dir := t.TempDir()
	cache, err := OpenCache(dir, 0)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	if err := cache.Put("Marathi", "NO", "नाही"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenCache(dir, 0)
	if err != nil {
		t.Fatalf("reopen cache: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })
	if got, ok, _ := reopened.Get("Marathi", "NO"); !ok || got != "नाही" {
		t.Fatalf("expected persisted entry, got %q %v", got, ok)
	}
}
