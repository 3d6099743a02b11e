package cache

import (
	"testing"
	"time"
)

func TestTTLGetSet(t *testing.T) {
	c := NewTTL[string, int](time.Minute)

	if _, ok := c.Get("a"); ok {
		t.Fatal("Get on empty cache returned ok")
	}

	c.Set("a", 1)
	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Fatalf("Get(a) = %d, %v; want 1, true", v, ok)
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("Get after Delete returned ok")
	}
}

func TestTTLExpiry(t *testing.T) {
	now := time.Now()
	c := NewTTL[string, int](time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("entry expired immediately")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatal("entry survived past its TTL")
	}
}

func TestTTLSetRefreshesExpiry(t *testing.T) {
	now := time.Now()
	c := NewTTL[string, int](time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	now = now.Add(45 * time.Second)
	c.Set("a", 2)
	now = now.Add(45 * time.Second)

	v, ok := c.Get("a")
	if !ok || v != 2 {
		t.Fatalf("Get(a) = %d, %v; want 2, true", v, ok)
	}
}
