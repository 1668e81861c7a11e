// Package ratelimit throttles clients with a sliding window per key.
package ratelimit

import (
	"context"
	"time"
)

// Limiter decides whether the next request for key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, err error)
}

// SlidingWindowLimiter admits at most limit requests per key within any window.
type SlidingWindowLimiter struct {
	store  Store
	limit  int64
	window time.Duration
}

// NewSlidingWindowLimiter creates a limiter backed by store.
func NewSlidingWindowLimiter(store Store, limit int64, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		store:  store,
		limit:  limit,
		window: window,
	}
}

func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.store.Record(ctx, key, l.window)
	if err != nil {
		return false, err
	}

	return count <= l.limit, nil
}

// PerMinute is the common case: limit requests in a one minute window.
// A non-positive limit disables throttling.
func PerMinute(store Store, limit int64) Limiter {
	if limit <= 0 {
		return Unlimited{}
	}

	return NewSlidingWindowLimiter(store, limit, time.Minute)
}

// Unlimited admits everything.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) (bool, error) {
	return true, nil
}
