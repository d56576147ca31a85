// Package storage implements the namespaced key-value store every other part of
// the library persists through.
//
// Logical keys have the form "namespace.key" and are stored under
// "<prefix>namespace.key" in a domain.KVRepository. Reads never fail: an absent or
// unreadable value yields the default registered for the key. A store whose
// back end fails the availability probe keeps working in a degraded mode where
// reads return defaults and writes report ErrStorageUnavailable.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/tfkr-ae/showcase/domain"
	"go.uber.org/zap"
)

var (
	// ErrStorageUnavailable is returned by writes on a store that failed its availability probe.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrSerialization is returned when a value cannot be encoded as JSON.
	ErrSerialization = errors.New("value is not serializable")
	// ErrQuotaExceeded is returned when the back end is full.
	ErrQuotaExceeded = domain.ErrQuotaExceeded
)

const probeKey = "__storage_probe__"

// Store is a namespaced JSON store over a domain.KVRepository.
type Store struct {
	repo      domain.KVRepository
	prefix    string
	defaults  *Defaults
	logger    *zap.Logger
	available bool
}

// WithPrefix sets the physical key prefix.
func WithPrefix(prefix string) func(*Store) {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithLogger sets the logger used to report swallowed failures.
func WithLogger(logger *zap.Logger) func(*Store) {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a store over repo and probes it once with a write and a delete.
// A nil repo or a failed probe yields a store in degraded mode.
func New(ctx context.Context, repo domain.KVRepository, options ...func(*Store)) *Store {
	s := &Store{
		repo:     repo,
		prefix:   DefaultPrefix,
		defaults: DefaultTable(),
		logger:   zap.NewNop(),
	}
	for _, option := range options {
		option(s)
	}
	s.available = s.probe(ctx)
	if !s.available {
		s.logger.Warn("storage unavailable, running in session-only mode", zap.String("prefix", s.prefix))
	}
	return s
}

func (s *Store) probe(ctx context.Context) bool {
	if s.repo == nil {
		return false
	}
	key := s.prefix + probeKey
	if err := s.repo.SetValue(ctx, key, []byte("1")); err != nil {
		// A full store is still a usable one.
		if errors.Is(err, domain.ErrQuotaExceeded) {
			return true
		}
		s.logger.Warn("storage probe write failed", zap.Error(err))
		return false
	}
	if err := s.repo.DeleteValue(ctx, key); err != nil {
		s.logger.Warn("storage probe delete failed", zap.Error(err))
		return false
	}
	return true
}

// IsAvailable reports the result of the availability probe.
func (s *Store) IsAvailable() bool {
	return s.available
}

// Get decodes the value stored under key into dst, which must be a non-nil pointer.
// When the key is absent, holds null, is unreadable or the store is unavailable, dst
// receives the key's default instead.
func (s *Store) Get(ctx context.Context, key string, dst any) {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		s.logger.Error("storage get needs a non-nil pointer", zap.String("key", key), zap.String("type", fmt.Sprintf("%T", dst)))
		return
	}
	elemType := rv.Elem().Type()

	if raw, ok := s.read(ctx, key); ok && !isNull(raw) {
		fresh := reflect.New(elemType)
		err := json.Unmarshal(raw, fresh.Interface())
		if err == nil {
			rv.Elem().Set(fresh.Elem())
			return
		}
		s.logger.Warn("stored value is unreadable, using default", zap.String("key", key), zap.Error(err))
	}

	fresh := reflect.New(elemType)
	if err := s.decodeDefault(key, fresh.Interface()); err != nil {
		s.logger.Error("default does not fit destination", zap.String("key", key), zap.Error(err))
	}
	rv.Elem().Set(fresh.Elem())
}

// isNull reports whether raw is the JSON null, which decodes a map or slice to nil.
func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Load is the generic form of Store.Get.
func Load[T any](ctx context.Context, s *Store, key string) T {
	var v T
	s.Get(ctx, key, &v)
	return v
}

// Has reports whether a value is physically stored under key.
func (s *Store) Has(ctx context.Context, key string) bool {
	_, ok := s.read(ctx, key)
	return ok
}

func (s *Store) read(ctx context.Context, key string) ([]byte, bool) {
	if !s.available {
		return nil, false
	}
	raw, err := s.repo.GetValue(ctx, s.prefix+key)
	if err != nil {
		if !errors.Is(err, domain.ErrKeyNotFound) {
			s.logger.Warn("reading stored value failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return raw, true
}

func (s *Store) decodeDefault(key string, dst any) error {
	raw, err := json.Marshal(s.defaults.For(key))
	if err != nil {
		return fmt.Errorf("encoding default for %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decoding default for %s: %w", key, err)
	}
	return nil
}

// Set serializes value and stores it under key. A nil error means the value was persisted;
// any error means it was not, and the caller decides whether to retry, warn or carry on
// with in-memory state.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	if _, _, err := ParseKey(key); err != nil {
		return fmt.Errorf("setting value: %w", err)
	}
	if !s.available {
		s.logger.Warn("dropping write on unavailable storage", zap.String("key", key))
		return fmt.Errorf("setting %s: %w", key, ErrStorageUnavailable)
	}

	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("value is not serializable", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("setting %s: %w: %v", key, ErrSerialization, err)
	}

	if err := s.repo.SetValue(ctx, s.prefix+key, raw); err != nil {
		s.logger.Warn("storing value failed", zap.String("key", key), zap.Int("bytes", len(raw)), zap.Error(err))
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

// Save is Set reporting only whether the value was persisted.
func (s *Store) Save(ctx context.Context, key string, value any) bool {
	return s.Set(ctx, key, value) == nil
}

// Remove deletes key.
func (s *Store) Remove(ctx context.Context, key string) error {
	if !s.available {
		return fmt.Errorf("removing %s: %w", key, ErrStorageUnavailable)
	}
	if err := s.repo.DeleteValue(ctx, s.prefix+key); err != nil {
		s.logger.Warn("removing value failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

// ListKeys returns the logical keys stored under the prefix, sorted.
func (s *Store) ListKeys(ctx context.Context) []string {
	if !s.available {
		return []string{}
	}
	physical, err := s.repo.ListKeys(ctx, s.prefix)
	if err != nil {
		s.logger.Warn("listing keys failed", zap.Error(err))
		return []string{}
	}

	keys := make([]string, 0, len(physical))
	for _, key := range physical {
		logical := strings.TrimPrefix(key, s.prefix)
		if logical == probeKey {
			continue
		}
		keys = append(keys, logical)
	}
	sort.Strings(keys)
	return keys
}

// Clear removes every key under the prefix, like clearing the browser's site data.
func (s *Store) Clear(ctx context.Context) error {
	if !s.available {
		return fmt.Errorf("clearing storage: %w", ErrStorageUnavailable)
	}
	var errs []error
	for _, key := range s.ListKeys(ctx) {
		if err := s.repo.DeleteValue(ctx, s.prefix+key); err != nil {
			errs = append(errs, fmt.Errorf("removing %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
