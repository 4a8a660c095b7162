package redis

import (
	"context"
	"time"

	"lovelace-tutor/internal/infra/ratelimit"
)

var _ ratelimit.Limiter = (*RateLimiter)(nil)

// RateLimiter is the shared fixed-window limiter: INCR per key, the first hit
// of a window sets the expiry, PTTL gives the time left.
type RateLimiter struct {
	client RedisClient
	prefix string
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client, prefix: "rate_limit:"}
}

func (r *RateLimiter) Check(ctx context.Context, key string, window time.Duration, max int) (ratelimit.Result, error) {
	k := r.prefix + key
	count, err := r.client.Incr(ctx, k)
	if err != nil {
		return ratelimit.Result{}, err
	}

	if count == 1 {
		if err := r.client.PExpire(ctx, k, window); err != nil {
			return ratelimit.Result{}, err
		}
		return ratelimit.Result{
			Allowed:           true,
			Remaining:         max - 1,
			RetryAfterSeconds: ratelimit.CeilSeconds(window),
		}, nil
	}

	ttl, err := r.client.PTTL(ctx, k)
	if err != nil {
		return ratelimit.Result{}, err
	}
	if ttl < 0 {
		// key lost its expiry (crash between INCR and PEXPIRE); start a new window
		if err := r.client.PExpire(ctx, k, window); err != nil {
			return ratelimit.Result{}, err
		}
		ttl = window
	}

	retry := ratelimit.RetryAfter(ttl)
	if count > int64(max) {
		return ratelimit.Result{Allowed: false, Remaining: 0, RetryAfterSeconds: retry}, nil
	}
	return ratelimit.Result{Allowed: true, Remaining: max - int(count), RetryAfterSeconds: retry}, nil
}
