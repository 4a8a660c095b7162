// Package ratelimit implements the fixed-window request limiter used by the
// public endpoints.
package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of one Check.
type Result struct {
	Allowed           bool
	Remaining         int
	RetryAfterSeconds int
}

// Limiter counts requests per key in fixed windows. Implementations must be
// safe for concurrent use.
type Limiter interface {
	Check(ctx context.Context, key string, window time.Duration, max int) (Result, error)
}

// CeilSeconds rounds d up to whole seconds.
func CeilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// RetryAfter is the wait reported while a window is still open, never below 1s.
func RetryAfter(untilReset time.Duration) int {
	return max(1, CeilSeconds(untilReset))
}
