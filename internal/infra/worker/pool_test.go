//go:build !integration

package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunIndexed_EachIndexOnceWithBoundedConcurrency(t *testing.T) {
	const n, workers = 25, 3
	var (
		mu      sync.Mutex
		seen    = make(map[int]int)
		active  atomic.Int32
		peakMax atomic.Int32
	)
	err := RunIndexed(context.Background(), n, workers, func(ctx context.Context, i int) error {
		cur := active.Add(1)
		for {
			p := peakMax.Load()
			if cur <= p || peakMax.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		active.Add(-1)

		mu.Lock()
		seen[i]++
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("RunIndexed: %v", err)
	}
	if len(seen) != n {
		t.Fatalf("expected %d indices, got %d", n, len(seen))
	}
	for i, c := range seen {
		if c != 1 {
			t.Fatalf("index %d processed %d times", i, c)
		}
	}
	if peakMax.Load() > workers {
		t.Fatalf("concurrency %d exceeded %d workers", peakMax.Load(), workers)
	}
}

func TestRunIndexed_FirstErrorStopsWork(t *testing.T) {
	boom := errors.New("boom")
	var calls atomic.Int32
	err := RunIndexed(context.Background(), 100, 1, func(ctx context.Context, i int) error {
		calls.Add(1)
		if i == 2 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("single worker should stop after the failing index, calls=%d", calls.Load())
	}
}

func TestRunIndexed_ZeroItems(t *testing.T) {
	called := false
	if err := RunIndexed(context.Background(), 0, 4, func(context.Context, int) error { called = true; return nil }); err != nil || called {
		t.Fatalf("expected no-op, err=%v called=%v", err, called)
	}
}
