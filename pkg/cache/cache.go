package cache

import (
	"context"
	"time"
)

// Cache duration constants.
const (
	Minute = time.Minute
	Hour   = time.Hour
	Day    = 24 * time.Hour
)

// Background population writes get their own deadline, detached from the
// request that produced the value.
const backgroundTimeout = 10 * time.Second

// Store is the cache-aside port shared by every engine. All operations
// fail open: an unavailable backend degrades to recomputation, never to a
// request failure. Get reports a miss on any underlying error; writes and
// deletes become silent no-ops.
type Store interface {
	// Get unmarshals the cached value into dest and reports whether the
	// key was found.
	Get(ctx context.Context, key string, dest interface{}) bool

	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)

	// SetBackground schedules the write on a detached goroutine and
	// returns immediately. Errors are only logged; a crash between the
	// caller's response and the write merely causes a future miss.
	SetBackground(key string, value interface{}, ttl time.Duration)

	Delete(ctx context.Context, key string)

	// ClearPattern removes every key with the given prefix and returns
	// the number of keys deleted.
	ClearPattern(ctx context.Context, prefix string) int

	// Increment bumps a counter key and returns the new value, or 0 on
	// backend error.
	Increment(ctx context.Context, key string) int64
}
