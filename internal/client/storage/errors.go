package storage

import "errors"

// Common client storage errors
var (
	// ErrNotFound indicates that the key does not exist
	ErrNotFound = errors.New("key not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")

	// ErrUnknownBackend indicates an unsupported backend name in config
	ErrUnknownBackend = errors.New("unknown storage backend")
)
