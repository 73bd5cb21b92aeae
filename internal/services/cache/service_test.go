package cache

import (
	"testing"
	"time"

	"github.com/ternarybob/arbor"
)

func newTestCache() *Service {
	return NewService(0, arbor.NewLogger())
}

func TestCache_SetGet(t *testing.T) {
	c := newTestCache()
	defer c.Close()

	c.Set("key", "value", time.Minute)

	got, ok := c.Get("key")
	if !ok {
		t.Fatal("Get() miss for a fresh entry")
	}
	if got != "value" {
		t.Errorf("Get() = %v, want value", got)
	}
}

func TestCache_MissingKey(t *testing.T) {
	c := newTestCache()
	defer c.Close()

	if _, ok := c.Get("absent"); ok {
		t.Error("Get() hit for a key that was never set")
	}
}

func TestCache_Expiry(t *testing.T) {
	c := newTestCache()
	defer c.Close()

	c.Set("key", "value", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("key"); ok {
		t.Error("Get() hit for an expired entry")
	}
}

func TestCache_ZeroTTLNeverExpires(t *testing.T) {
	c := newTestCache()
	defer c.Close()

	c.Set("key", "value", 0)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("key"); !ok {
		t.Error("zero-ttl entry expired")
	}
}

func TestCache_Delete(t *testing.T) {
	c := newTestCache()
	defer c.Close()

	c.Set("key", "value", time.Minute)
	c.Delete("key")

	if _, ok := c.Get("key"); ok {
		t.Error("Get() hit after Delete()")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after delete, want 0", c.Len())
	}
}

func TestCache_JanitorSweepsExpired(t *testing.T) {
	c := NewService(10*time.Millisecond, arbor.NewLogger())
	defer c.Close()

	c.Set("short", "value", 5*time.Millisecond)
	c.Set("long", "value", time.Minute)

	time.Sleep(50 * time.Millisecond)

	if c.Len() != 1 {
		t.Errorf("Len() = %d after sweep, want 1 surviving entry", c.Len())
	}
}
