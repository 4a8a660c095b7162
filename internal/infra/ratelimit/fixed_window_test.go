//go:build !integration

package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestFixedWindow_AllowsUpToMaxThenRejects(t *testing.T) {
	ctx := context.Background()
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l := NewFixedWindowWithClock(clk.Now)

	res, _ := l.Check(ctx, "chat:1.2.3.4", time.Minute, 3)
	if !res.Allowed || res.Remaining != 2 || res.RetryAfterSeconds != 60 {
		t.Fatalf("fresh bucket: %+v", res)
	}
	clk.Advance(10 * time.Second)
	res, _ = l.Check(ctx, "chat:1.2.3.4", time.Minute, 3)
	if !res.Allowed || res.Remaining != 1 || res.RetryAfterSeconds != 50 {
		t.Fatalf("second call: %+v", res)
	}
	res, _ = l.Check(ctx, "chat:1.2.3.4", time.Minute, 3)
	if !res.Allowed || res.Remaining != 0 {
		t.Fatalf("third call: %+v", res)
	}
	res, _ = l.Check(ctx, "chat:1.2.3.4", time.Minute, 3)
	if res.Allowed || res.Remaining != 0 || res.RetryAfterSeconds <= 0 {
		t.Fatalf("fourth call should be rejected: %+v", res)
	}

	// other keys are independent
	if res, _ := l.Check(ctx, "chat:5.6.7.8", time.Minute, 3); !res.Allowed {
		t.Fatalf("other key rejected: %+v", res)
	}
}

func TestFixedWindow_ResetsAfterWindow(t *testing.T) {
	ctx := context.Background()
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l := NewFixedWindowWithClock(clk.Now)

	for i := 0; i < 2; i++ {
		_, _ = l.Check(ctx, "k", time.Second*30, 1)
	}
	clk.Advance(30 * time.Second)
	res, _ := l.Check(ctx, "k", time.Second*30, 1)
	if !res.Allowed || res.Remaining != 0 {
		t.Fatalf("window should restart at count 1: %+v", res)
	}
}

func TestFixedWindow_RetryAfterNeverBelowOne(t *testing.T) {
	ctx := context.Background()
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l := NewFixedWindowWithClock(clk.Now)

	_, _ = l.Check(ctx, "k", time.Second, 1)
	clk.Advance(999 * time.Millisecond)
	res, _ := l.Check(ctx, "k", time.Second, 1)
	if res.Allowed || res.RetryAfterSeconds != 1 {
		t.Fatalf("expected reject with retry 1, got %+v", res)
	}
}

func TestFixedWindow_SweepDropsExpired(t *testing.T) {
	ctx := context.Background()
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l := NewFixedWindowWithClock(clk.Now)

	_, _ = l.Check(ctx, "old", time.Second, 5)
	clk.Advance(2 * time.Second)
	for i := 0; i < sweepEvery; i++ {
		_, _ = l.Check(ctx, "hot", time.Hour, 1<<20)
	}
	if l.Len() != 1 {
		t.Fatalf("expected only the hot bucket, got %d", l.Len())
	}
}

func TestFixedWindow_Concurrent(t *testing.T) {
	ctx := context.Background()
	l := NewFixedWindow()
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, _ := l.Check(ctx, "shared", time.Minute, 10)
			if res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if allowed != 10 {
		t.Fatalf("expected exactly 10 allowed, got %d", allowed)
	}
}

func TestCeilSeconds(t *testing.T) {
	cases := map[time.Duration]int{0: 0, time.Millisecond: 1, time.Second: 1, 1500 * time.Millisecond: 2}
	for d, want := range cases {
		if got := CeilSeconds(d); got != want {
			t.Fatalf("CeilSeconds(%v) = %d, want %d", d, got, want)
		}
	}
}
