// Package kv defines the key/value persistence port the session and request
// components are built on. Production runs on Redis; tests and embedders
// without Redis use the in-memory store.
package kv

import "context"

// ErrNotFound is returned by Get when the key has no value. Consumers treat
// missing or corrupt values as absent and fall back to defaults.
var ErrNotFound = NotFoundError{}

// NotFoundError reports a missing key.
type NotFoundError struct{ Key string }

func (e NotFoundError) Error() string {
	if e.Key == "" {
		return "kv: key not found"
	}
	return "kv: key not found: " + e.Key
}

func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	return ok
}

// Store is the storage port: opaque string values under fixed keys.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
