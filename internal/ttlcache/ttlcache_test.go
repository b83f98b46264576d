package ttlcache

import (
	"testing"
	"time"
)

func TestCacheExpiry(t *testing.T) {
	now := time.Unix(1700000000, 0)
	clock := func() time.Time { return now }

	c := New[string](5*time.Minute, clock)
	c.Set("k", "v")

	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Fatalf("expected fresh entry, got %q ok=%v", v, ok)
	}

	now = now.Add(5*time.Minute - time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry should survive until the TTL elapses")
	}

	now = now.Add(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry should expire after the TTL")
	}
}

func TestCacheClear(t *testing.T) {
	c := New[int](time.Minute, nil)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	if _, ok := c.Get("a"); ok {
		t.Fatal("clear should drop all entries")
	}

	c.Set("a", 3)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("delete should drop the entry")
	}
}
