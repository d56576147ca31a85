package domain

import "errors"

var (
	// ErrKeyNotFound is returned by a KVRepository when no value is stored under a key.
	ErrKeyNotFound = errors.New("key not found")
	// ErrQuotaExceeded is returned by a KVRepository when a write would grow the store past its quota.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)
