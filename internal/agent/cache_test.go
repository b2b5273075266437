package agent

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestCacheKey(t *testing.T) {
	if CacheKey("  Hello ") != "hello" {
		t.Errorf("CacheKey() = %q", CacheKey("  Hello "))
	}
}

func TestMemoryCache_LookupIsIdempotent(t *testing.T) {
	c := NewMemoryCache(0, 0)

	_, ok1 := c.Get("hello")
	_, ok2 := c.Get("hello")
	if ok1 || ok2 {
		t.Fatal("empty cache reported a hit")
	}

	c.Set("hello", "Hi!")
	v1, ok1 := c.Get("hello")
	v2, ok2 := c.Get("hello")
	if !ok1 || !ok2 || v1 != v2 || v1 != "Hi!" {
		t.Errorf("Get() = (%q,%v), (%q,%v)", v1, ok1, v2, ok2)
	}
}

func TestMemoryCache_TTL(t *testing.T) {
	c := NewMemoryCache(time.Minute, 0)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	now = now.Add(59 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Error("entry expired early")
	}
	now = now.Add(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Error("entry should have expired")
	}

	c.Set("other", "x")
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after sweep", c.Len())
	}
}

func TestMemoryCache_MaxEntriesEvictsOldest(t *testing.T) {
	c := NewMemoryCache(0, 2)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}

	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("a", "1b") // overwrite does not evict
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Error("oldest entry b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("entry %s missing", k)
		}
	}
}

func TestMemoryCache_EmptyKeyIsEvictable(t *testing.T) {
	c := NewMemoryCache(0, 2)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}

	c.Set("", "blank")
	c.Set("b", "2")
	c.Set("c", "3")

	if _, ok := c.Get(""); ok {
		t.Error("oldest entry with empty key should have been evicted")
	}
	for _, k := range []string{"b", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("entry %s missing", k)
		}
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	c := NewMemoryCache(0, 0)
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%5)
			c.Set(key, "same")
			c.Get(key)
		}(i)
	}
	wg.Wait()
	if c.Len() != 5 {
		t.Errorf("Len() = %d, want 5", c.Len())
	}
}
