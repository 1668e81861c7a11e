package ratelimit

import (
	"context"
	"time"
)

// Store keeps request timestamps per key.
type Store interface {
	// Record adds a request for key and returns how many requests for key fall within
	// the trailing window, including this one. Older entries are pruned.
	Record(ctx context.Context, key string, window time.Duration) (count int64, err error)
}
