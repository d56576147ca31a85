// Package activity keeps the bounded, user-visible log of actions taken in a profile.
package activity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tfkr-ae/showcase/domain"
	"github.com/tfkr-ae/showcase/storage"
	"go.uber.org/zap"
)

// DefaultCapacity is the number of entries kept; older entries are evicted first.
const DefaultCapacity = 1000

// Log is an append-only, size-bounded list of activity entries.
type Log struct {
	store    *storage.Store
	capacity int
	now      func() time.Time
	logger   *zap.Logger
	mu       sync.Mutex
}

// WithCapacity sets the number of entries retained.
func WithCapacity(n int) func(*Log) {
	return func(l *Log) {
		l.capacity = n
	}
}

// WithClock replaces the clock used to timestamp entries.
func WithClock(now func() time.Time) func(*Log) {
	return func(l *Log) {
		l.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) func(*Log) {
	return func(l *Log) {
		l.logger = logger
	}
}

// New returns an activity log stored in store.
func New(store *storage.Store, options ...func(*Log)) *Log {
	l := &Log{
		store:    store,
		capacity: DefaultCapacity,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, option := range options {
		option(l)
	}
	if l.capacity <= 0 {
		l.capacity = DefaultCapacity
	}
	return l
}

// Append records action, applying options to the new entry, and evicts the oldest
// entries beyond capacity.
func (l *Log) Append(ctx context.Context, action string, options ...func(entry *domain.ActivityEntry) error) error {
	if action == "" {
		return errors.New("activity action is empty")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generating uuid : %w", err)
	}
	entry := domain.ActivityEntry{
		ID:          id,
		Timestamp:   l.now().UTC(),
		Action:      action,
		Data:        map[string]any{},
		SessionData: map[string]any{},
	}
	for _, option := range options {
		if err := option(&entry); err != nil {
			return fmt.Errorf("applying activity option : %w", err)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entries := storage.Load[[]domain.ActivityEntry](ctx, l.store, storage.KeyActivityLogs)
	entries = append(entries, entry)
	if overflow := len(entries) - l.capacity; overflow > 0 {
		entries = entries[overflow:]
	}

	if err := l.store.Set(ctx, storage.KeyActivityLogs, entries); err != nil {
		l.logger.Warn("activity not persisted", zap.String("action", action), zap.Error(err))
		return fmt.Errorf("appending activity %s: %w", action, err)
	}
	l.logger.Debug("activity recorded", zap.String("action", action), zap.Int("entries", len(entries)))
	return nil
}

// ReadRecent returns up to n entries, most recent first. n <= 0 returns every entry.
func (l *Log) ReadRecent(ctx context.Context, n int) []domain.ActivityEntry {
	entries := storage.Load[[]domain.ActivityEntry](ctx, l.store, storage.KeyActivityLogs)
	if n <= 0 || n > len(entries) {
		n = len(entries)
	}

	recent := make([]domain.ActivityEntry, 0, n)
	for i := len(entries) - 1; i >= len(entries)-n; i-- {
		recent = append(recent, entries[i])
	}
	return recent
}

// Len returns the number of stored entries.
func (l *Log) Len(ctx context.Context) int {
	return len(storage.Load[[]domain.ActivityEntry](ctx, l.store, storage.KeyActivityLogs))
}

// Clear removes every entry.
func (l *Log) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.Remove(ctx, storage.KeyActivityLogs); err != nil {
		return fmt.Errorf("clearing activity log: %w", err)
	}
	return nil
}
