package store

import (
	"context"
	"sync"
	"time"
)

// RateLimitMemoryStore keeps request timestamps in process. It implements ratelimit.Store.
type RateLimitMemoryStore struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	now      func() time.Time
}

// RateLimitOption configures a RateLimitMemoryStore.
type RateLimitOption func(*RateLimitMemoryStore)

// WithRateLimitClock replaces time.Now.
func WithRateLimitClock(now func() time.Time) RateLimitOption {
	return func(s *RateLimitMemoryStore) {
		s.now = now
	}
}

// NewRateLimitMemoryStore creates an empty store.
func NewRateLimitMemoryStore(opts ...RateLimitOption) *RateLimitMemoryStore {
	s := &RateLimitMemoryStore{
		requests: make(map[string][]time.Time),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *RateLimitMemoryStore) Record(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-window)

	// Timestamps are appended in order, so the live ones are a suffix.
	timestamps := s.requests[key]
	start := 0

	for start < len(timestamps) && !timestamps[start].After(cutoff) {
		start++
	}

	live := append(timestamps[start:], now)
	s.requests[key] = live

	return int64(len(live)), nil
}
