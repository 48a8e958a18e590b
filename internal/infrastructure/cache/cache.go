// Package cache stores upstream catalogue responses so that repeated
// navigation does not hit the statistical APIs again.
package cache

import (
	"context"
	"time"
)

// ResponseCache stores response bodies by key
type ResponseCache interface {
	// Get returns the stored body and true, or nil and false on a miss
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
