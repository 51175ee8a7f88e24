// Package cache provides a TTL cache for raw API responses so repeated report
// runs over the same period do not re-hit the host.
package cache

import "encoding/json"

// Cache stores raw JSON responses keyed by request signature.
type Cache interface {
	// Get returns the cached value and true when the key exists and has not
	// expired.
	Get(key string) (json.RawMessage, bool)
	// Set stores a value under the key with the cache's TTL.
	Set(key string, value json.RawMessage) error
	Close() error
}

// Noop is the cache used when caching is disabled.
type Noop struct{}

func (Noop) Get(string) (json.RawMessage, bool) { return nil, false }

func (Noop) Set(string, json.RawMessage) error { return nil }

func (Noop) Close() error { return nil }
