// Package kv describes the key-value store every registry in the service is built on.
//
// Each primitive is atomic on its own key. Nothing spans two keys atomically, so callers
// that write more than one key have to order the writes and tolerate partial failure.
package kv

import (
	"context"
	"errors"
)

// ErrNil is returned by Get when the key holds no string value.
var ErrNil = errors.New("kv: nil")

// Store is the set of primitives the registries rely on.
type Store interface {
	// Get returns the string value at key, or ErrNil.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error

	// Delete removes the key whatever its type and reports whether it existed.
	Delete(ctx context.Context, key string) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)

	// Keys enumerates keys matching a glob pattern (`*`, `?`, `[...]`).
	// The result carries no ordering guarantee.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// HGetAll returns every field of a hash. A missing key yields an empty map.
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSet(ctx context.Context, key string, fields map[string]string) error

	// SAdd and SRem return how many members were actually added or removed.
	SAdd(ctx context.Context, key string, members ...string) (int64, error)
	SRem(ctx context.Context, key string, members ...string) (int64, error)
	SMembers(ctx context.Context, key string) ([]string, error)
}
