package inventory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/warp/zoneflow/inventory"
)

func TestCache_ServesFreshValueWithoutReloading(t *testing.T) {
	// GIVEN: A cache with a 5-minute TTL
	// WHEN: The same key is fetched twice within the TTL
	// THEN: The loader runs once

	clock := newFakeClock()
	cache := inventory.NewCache[int](5*time.Minute, clock)
	loads := 0
	loader := func() (int, error) {
		loads++
		return loads, nil
	}

	v, err := cache.Get("k", loader)
	if err != nil || v != 1 {
		t.Fatalf("first get: %d, %v", v, err)
	}
	clock.Advance(4 * time.Minute)
	v, err = cache.Get("k", loader)
	if err != nil || v != 1 {
		t.Fatalf("second get should be cached: %d, %v", v, err)
	}
	if loads != 1 {
		t.Errorf("expected one load, got %d", loads)
	}
}

func TestCache_ReloadsAfterTTL(t *testing.T) {
	clock := newFakeClock()
	cache := inventory.NewCache[int](5*time.Minute, clock)
	loads := 0
	loader := func() (int, error) {
		loads++
		return loads, nil
	}

	if _, err := cache.Get("k", loader); err != nil {
		t.Fatal(err)
	}
	clock.Advance(5 * time.Minute)
	v, err := cache.Get("k", loader)
	if err != nil {
		t.Fatal(err)
	}
	if v != 2 || loads != 2 {
		t.Errorf("expected reload after TTL, got value %d after %d loads", v, loads)
	}
}

func TestCache_NeverCachesLoaderErrors(t *testing.T) {
	// GIVEN: A loader that fails once then succeeds
	// WHEN: Fetched twice without advancing the clock
	// THEN: The second fetch retries and succeeds

	clock := newFakeClock()
	cache := inventory.NewCache[string](time.Minute, clock)
	calls := 0
	loader := func() (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("table offline")
		}
		return "ok", nil
	}

	if _, err := cache.Get("k", loader); err == nil {
		t.Fatal("expected loader error to surface")
	}
	v, err := cache.Get("k", loader)
	if err != nil || v != "ok" {
		t.Fatalf("expected retry to succeed, got %q, %v", v, err)
	}
}

func TestCache_InvalidateDropsSingleKey(t *testing.T) {
	clock := newFakeClock()
	cache := inventory.NewCache[int](time.Hour, clock)
	loads := map[string]int{}
	loader := func(key string) func() (int, error) {
		return func() (int, error) {
			loads[key]++
			return loads[key], nil
		}
	}

	cache.Get("a", loader("a"))
	cache.Get("b", loader("b"))
	cache.Invalidate("a")

	if v, _ := cache.Get("a", loader("a")); v != 2 {
		t.Errorf("invalidated key should reload, got %d", v)
	}
	if v, _ := cache.Get("b", loader("b")); v != 1 {
		t.Errorf("other key should stay cached, got %d", v)
	}
}
