package storage

import (
	"context"
)

//go:generate moq -out kv_mock.go . KV

// KV defines the client-local key/value store that backs the session and the read cache.
// It plays the role browser localStorage played for the web front end: string keys,
// opaque byte values, no expiry of its own.
type KV interface {
	// Get returns the value stored under key.
	// Returns ErrNotFound if the key does not exist
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, overwriting any previous value
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing a missing key is not an error
	Remove(ctx context.Context, key string) error

	// Keys returns all keys starting with prefix (empty prefix lists everything)
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases the underlying resources
	Close() error
}
