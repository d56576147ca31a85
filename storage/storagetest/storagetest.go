// Package storagetest provides stores backed by throwaway SQLite files for tests.
package storagetest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tfkr-ae/showcase/db"
	"github.com/tfkr-ae/showcase/domain"
	"github.com/tfkr-ae/showcase/storage"
)

// NewRepo opens a migrated repository in a temporary directory. It is closed on test cleanup.
func NewRepo(t testing.TB, options ...func(*db.Repository)) *db.Repository {
	t.Helper()

	dbConn, err := db.New(filepath.Join(t.TempDir(), "showcase.db"))
	if err != nil {
		t.Fatalf("db.New() failed: %v", err)
	}

	repo := db.NewStorageRepo(dbConn, options...)
	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

// NewStore returns an available store over a fresh repository.
func NewStore(t testing.TB, options ...func(*storage.Store)) *storage.Store {
	t.Helper()

	store := storage.New(context.Background(), NewRepo(t), options...)
	if !store.IsAvailable() {
		t.Fatalf("store over a fresh repository is unavailable")
	}
	return store
}

// ErrBroken is returned by every operation of BrokenRepo.
var ErrBroken = errors.New("storage disabled by policy")

// BrokenRepo is a repository that refuses every operation, like a browser with storage disabled.
type BrokenRepo struct{}

var _ domain.KVRepository = BrokenRepo{}

func (BrokenRepo) GetValue(context.Context, string) ([]byte, error)   { return nil, ErrBroken }
func (BrokenRepo) SetValue(context.Context, string, []byte) error     { return ErrBroken }
func (BrokenRepo) DeleteValue(context.Context, string) error          { return ErrBroken }
func (BrokenRepo) ListKeys(context.Context, string) ([]string, error) { return nil, ErrBroken }
func (BrokenRepo) UsedBytes(context.Context) (int64, error)           { return 0, ErrBroken }
func (BrokenRepo) Close() error                                       { return nil }

// NewUnavailableStore returns a store in degraded mode.
func NewUnavailableStore(t testing.TB, options ...func(*storage.Store)) *storage.Store {
	t.Helper()

	store := storage.New(context.Background(), BrokenRepo{}, options...)
	if store.IsAvailable() {
		t.Fatalf("store over a broken repository reports available")
	}
	return store
}
