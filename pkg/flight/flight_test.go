package flight

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetCoalescesConcurrentCallers(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	c := NewCache(time.Minute, func(_ context.Context, k string) (int, error) {
		calls.Add(1)
		<-release
		return len(k), nil
	})

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.Get(context.Background(), "voices")
		}(i)
	}
	// let the goroutines pile up on the pending job
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Fatalf("work ran %d times, want 1", n)
	}
	for _, r := range results {
		if r != 6 {
			t.Fatalf("results = %v", results)
		}
	}
}

func TestGetExpires(t *testing.T) {
	var calls int
	c := NewCache(time.Minute, func(context.Context, string) (int, error) {
		calls++
		return calls, nil
	})
	now := time.Now()
	c.now = func() time.Time { return now }

	if v, _ := c.Get(context.Background(), "k"); v != 1 {
		t.Fatalf("first Get = %d", v)
	}
	if v, _ := c.Get(context.Background(), "k"); v != 1 {
		t.Fatalf("cached Get = %d", v)
	}
	now = now.Add(2 * time.Minute)
	if v, _ := c.Get(context.Background(), "k"); v != 2 {
		t.Fatalf("expired Get = %d, want recomputed 2", v)
	}
	c.Forget("k")
	if v, _ := c.Get(context.Background(), "k"); v != 3 {
		t.Fatalf("forgotten Get = %d, want 3", v)
	}
}

func TestGetDoesNotCacheErrors(t *testing.T) {
	boom := errors.New("boom")
	fail := true
	c := NewCache(0, func(context.Context, string) (string, error) {
		if fail {
			return "", boom
		}
		return "ok", nil
	})
	if _, err := c.Get(context.Background(), "k"); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	fail = false
	if v, err := c.Get(context.Background(), "k"); err != nil || v != "ok" {
		t.Fatalf("Get = %q, %v", v, err)
	}
}
