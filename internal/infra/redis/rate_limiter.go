package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter is a fixed-window counter shared by every replica.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, window); err != nil {
			return false, err
		}
	}

	return count <= int64(limit), nil
}

// WindowLimiter binds a RateLimiter to one route's limit and window.
type WindowLimiter struct {
	rl     *RateLimiter
	route  string
	limit  int
	window time.Duration
}

func NewWindowLimiter(rl *RateLimiter, route string, limit int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{rl: rl, route: route, limit: limit, window: window}
}

func (w *WindowLimiter) Allow(ctx context.Context, client string) (bool, error) {
	return w.rl.Allow(ctx, ClientRouteKey(client, w.route), w.limit, w.window)
}

func ClientRouteKey(client, route string) string {
	return fmt.Sprintf("rate_limit:%s:%s", route, client)
}
