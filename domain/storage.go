package domain

import "context"

// KVRepository defines the physical key-value store backing the namespaced store.
// Keys are opaque strings (the namespacing happens above this layer) and values are
// serialized JSON documents.
type KVRepository interface {
	// GetValue returns the raw value stored under key.
	// It returns an error wrapping ErrKeyNotFound when the key is absent.
	GetValue(ctx context.Context, key string) ([]byte, error)

	// SetValue stores value under key, replacing any previous value.
	// It returns an error wrapping ErrQuotaExceeded when the write would exceed the store quota.
	SetValue(ctx context.Context, key string, value []byte) error

	// DeleteValue removes key. Removing an absent key is not an error.
	DeleteValue(ctx context.Context, key string) error

	// ListKeys returns every key starting with prefix, in ascending order.
	ListKeys(ctx context.Context, prefix string) ([]string, error)

	// UsedBytes returns the logical size of all stored keys and values.
	UsedBytes(ctx context.Context) (int64, error)

	// Close releases the underlying resources.
	Close() error
}
