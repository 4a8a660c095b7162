// File: internal/infra/worker/pool.go
package worker

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Task processes the item at index i.
type Task func(ctx context.Context, i int) error

// RunIndexed processes items 0..n-1 with a fixed number of workers that pull
// the next index from a shared cursor. The first task error cancels the
// remaining work and is returned; tasks that want to keep going must record
// their own failures and return nil.
func RunIndexed(ctx context.Context, n, workers int, task Task) error {
	if n <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, n)

	var cursor atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				if err := gctx.Err(); err != nil {
					return err
				}
				i := int(cursor.Add(1) - 1)
				if i >= n {
					return nil
				}
				if err := task(gctx, i); err != nil {
					return err
				}
			}
		})
	}
	return g.Wait()
}
