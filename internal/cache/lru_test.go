package cache

import (
	"testing"
	"time"
)

func TestLRUEvictsOldest(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Errorf("b = (%d, %v)", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("size = %d, want 2", c.Size())
	}
}

func TestLRUGetRefreshesRecency(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)
	c.Set("a", "x")
	c.Set("b", "y")
	c.Get("a")
	c.Set("c", "z")

	// "b" was least recently used, not "a".
	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should survive after being read")
	}
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)
	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("expired entry returned")
	}

	c.Set("b", 2)
	c.Set("c", 3)
	time.Sleep(20 * time.Millisecond)
	if n := c.CleanExpired(); n != 2 {
		t.Errorf("cleaned %d, want 2", n)
	}
	if c.Size() != 0 {
		t.Errorf("size after cleanup = %d", c.Size())
	}
}

func TestLRUPurge(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Purge()

	if c.Size() != 0 {
		t.Errorf("size after purge = %d", c.Size())
	}
	c.Set("a", 5)
	if v, ok := c.Get("a"); !ok || v != 5 {
		t.Errorf("post-purge set/get = (%d, %v)", v, ok)
	}
}
