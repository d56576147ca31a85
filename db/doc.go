// Package db provides the database layer for the showcase library.
// It encapsulates all interactions with the underlying SQLite database, which plays
// the role of the browser's persistent key-value store: one database file is one
// browser profile, and several stores opened on the same file behave like several
// tabs of that profile.
//
// This package is responsible for:
// - Establishing and managing database connections (`db.go`).
// - Implementing the `domain.KVRepository` interface (`kv_repo.go`), including
//   quota enforcement on the logical size of keys and values.
// - Encoding values at rest, compressing large ones (`compress/`).
// - Managing database migrations (`migrations/`).
package db
