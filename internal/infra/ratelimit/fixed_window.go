package ratelimit

import (
	"context"
	"sync"
	"time"
)

var _ Limiter = (*FixedWindow)(nil)

type bucket struct {
	count   int
	resetAt time.Time
}

// FixedWindow keeps buckets in process memory. Counts are lost on restart and
// are not shared between instances.
type FixedWindow struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
	checks  int
}

// sweepEvery bounds how often expired buckets are dropped from the map.
const sweepEvery = 1024

func NewFixedWindow() *FixedWindow {
	return NewFixedWindowWithClock(time.Now)
}

func NewFixedWindowWithClock(now func() time.Time) *FixedWindow {
	return &FixedWindow{buckets: make(map[string]*bucket), now: now}
}

func (l *FixedWindow) Check(_ context.Context, key string, window time.Duration, max int) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.checks++
	if l.checks%sweepEvery == 0 {
		l.sweep(now)
	}

	b, ok := l.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		l.buckets[key] = &bucket{count: 1, resetAt: now.Add(window)}
		return Result{
			Allowed:           true,
			Remaining:         max - 1,
			RetryAfterSeconds: CeilSeconds(window),
		}, nil
	}

	b.count++
	retry := RetryAfter(b.resetAt.Sub(now))
	if b.count > max {
		return Result{Allowed: false, Remaining: 0, RetryAfterSeconds: retry}, nil
	}
	return Result{Allowed: true, Remaining: max - b.count, RetryAfterSeconds: retry}, nil
}

func (l *FixedWindow) sweep(now time.Time) {
	for k, b := range l.buckets {
		if !now.Before(b.resetAt) {
			delete(l.buckets, k)
		}
	}
}

// Len reports the number of live buckets.
func (l *FixedWindow) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
