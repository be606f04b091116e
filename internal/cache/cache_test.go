package cache

import (
	"testing"
	"time"

	"github.com/carsongrett/nocharts/internal/testutil"
)

func TestRoundTrip(t *testing.T) {
	c := New(time.Minute)

	c.Set("quote:AAPL", 178.23, 0)

	v, ok := c.Get("quote:AAPL")
	if !ok {
		t.Fatal("Get() reported absent immediately after Set()")
	}
	if v.(float64) != 178.23 {
		t.Errorf("Get() = %v, want 178.23", v)
	}
}

func TestGet_Missing(t *testing.T) {
	c := New(time.Minute)

	if _, ok := c.Get("never-stored"); ok {
		t.Error("Get() reported present for a key that was never stored")
	}
}

func TestGet_ExpiredEntryIsAbsent(t *testing.T) {
	clock := testutil.NewClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	c := New(time.Minute, WithClock(clock.Now))

	c.Set("k", "v", 30*time.Second)

	clock.Advance(29 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry expired before its TTL")
	}

	clock.Advance(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Error("entry still present past its TTL")
	}

	// Read-time eviction removed the entry entirely.
	if c.Len() != 0 {
		t.Errorf("Len() = %d after expired read, want 0", c.Len())
	}
}

func TestSet_Overwrites(t *testing.T) {
	c := New(time.Minute)

	c.Set("k", "old", 0)
	c.Set("k", "new", 0)

	v, ok := c.Get("k")
	if !ok || v.(string) != "new" {
		t.Errorf("Get() = %v, %v; want \"new\", true", v, ok)
	}
}

func TestSet_DefaultTTL(t *testing.T) {
	clock := testutil.NewClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	c := New(time.Minute, WithClock(clock.Now))

	c.Set("k", "v", 0)

	clock.Advance(59 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry expired before the default TTL")
	}

	clock.Advance(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Error("entry survived past the default TTL")
	}
}

func TestDeleteAndClear(t *testing.T) {
	c := New(time.Minute)

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("deleted key still present")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("Delete() removed an unrelated key")
	}

	c.Clear()
	if _, ok := c.Get("b"); ok {
		t.Error("key still present after Clear()")
	}
}
