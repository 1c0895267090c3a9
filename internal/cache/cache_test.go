package cache

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestTTLCache_SetGet(t *testing.T) {
	c := NewTTLCache[string, int]()
	ctx := context.Background()

	if err := c.Set(ctx, "a", 1, time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok, err := c.Get(ctx, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || v != 1 {
		t.Errorf("expected (1, true), got (%v, %v)", v, ok)
	}
}

func TestTTLCache_MissingKey(t *testing.T) {
	c := NewTTLCache[string, int]()
	_, ok, err := c.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected miss for absent key")
	}
}

func TestTTLCache_Expiry(t *testing.T) {
	c := NewTTLCache[string, int]()
	ctx := context.Background()
	c.Set(ctx, "a", 1, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, ok, err := c.Get(ctx, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected expired entry to be a miss")
	}
}

func TestTTLCache_Delete(t *testing.T) {
	c := NewTTLCache[string, int]()
	ctx := context.Background()
	c.Set(ctx, "a", 1, time.Minute)

	existed, err := c.Delete(ctx, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !existed {
		t.Error("expected Delete to report the key existed")
	}
	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Error("expected key to be gone after delete")
	}

	existed, err = c.Delete(ctx, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if existed {
		t.Error("expected Delete of an absent key to report false")
	}
}

func TestTTLCache_ConcurrentAccess(t *testing.T) {
	c := NewTTLCache[int, int]()
	ctx := context.Background()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set(ctx, i, i*2, time.Minute)
			c.Get(ctx, i)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 100; i++ {
		v, ok, err := c.Get(ctx, i)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok || v != i*2 {
			t.Errorf("key %d: expected (%d, true), got (%v, %v)", i, i*2, v, ok)
		}
	}
}
