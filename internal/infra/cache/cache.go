// Package cache provides the response cache consulted by the gateway
// clients. A store is injected per run; entries written by previous
// runs survive an aborted run and are reused on retry.
package cache

import "context"

// Store is a string key/value response cache.
type Store interface {
	// Get returns the cached value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key, value string) error
}
