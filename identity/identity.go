// Package identity manages the pseudonymous identity of a browser profile: its
// stamp, its optional nickname, free-form user details and session metadata.
package identity

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/tfkr-ae/showcase/domain"
	"github.com/tfkr-ae/showcase/storage"
	"go.uber.org/zap"
)

// ErrInvalidNickname is returned for empty or over-long nicknames.
var ErrInvalidNickname = errors.New("invalid nickname")

const (
	// DefaultMaxNicknameLength bounds nicknames, in characters.
	DefaultMaxNicknameLength = 30
	// SessionIdleTimeout is the inactivity after which the next page load starts a new session.
	SessionIdleTimeout = 30 * time.Minute
)

// Manager resolves and updates the identity of the current profile.
//
// Every value is also kept in memory so that a profile whose storage is unavailable
// still has a consistent identity for the lifetime of the Manager.
type Manager struct {
	store       *storage.Store
	fingerprint Fingerprint
	now         func() time.Time
	logger      *zap.Logger

	mu          sync.Mutex
	maxNickname int
	stamp       string
	nickname    string
	details     map[string]any
	session     domain.Session
	location    domain.Location
}

// WithClock replaces the clock used for timestamps.
func WithClock(now func() time.Time) func(*Manager) {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) func(*Manager) {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMaxNicknameLength sets the maximum nickname length in characters.
func WithMaxNicknameLength(n int) func(*Manager) {
	return func(m *Manager) {
		m.maxNickname = n
	}
}

// SetMaxNicknameLength changes the maximum nickname length for the next SetNickname.
func (m *Manager) SetMaxNicknameLength(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxNickname = n
}

// New returns a manager for the profile identified by fingerprint.
func New(store *storage.Store, fingerprint Fingerprint, options ...func(*Manager)) *Manager {
	m := &Manager{
		store:       store,
		fingerprint: fingerprint,
		now:         time.Now,
		logger:      zap.NewNop(),
		maxNickname: DefaultMaxNicknameLength,
		location:    domain.PendingLocation(),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// GetOrCreateStamp returns the stored stamp, deriving and storing it from the fingerprint
// on first use.
func (m *Manager) GetOrCreateStamp(ctx context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stampLocked(ctx)
}

func (m *Manager) stampLocked(ctx context.Context) string {
	if stored := storage.Load[string](ctx, m.store, storage.KeyUserStamp); stored != "" {
		m.stamp = stored
		return stored
	}
	if m.stamp == "" {
		m.stamp = Stamp(m.fingerprint)
	}
	if m.store.IsAvailable() {
		if err := m.store.Set(ctx, storage.KeyUserStamp, m.stamp); err != nil {
			m.logger.Warn("stamp not persisted", zap.String("stamp", m.stamp), zap.Error(err))
		}
	}
	return m.stamp
}

// Nickname returns the current nickname, or an empty string when none was set.
func (m *Manager) Nickname(ctx context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nicknameLocked(ctx)
}

func (m *Manager) nicknameLocked(ctx context.Context) string {
	if m.store.IsAvailable() {
		m.nickname = storage.Load[string](ctx, m.store, storage.KeyUserNickname)
	}
	return m.nickname
}

// SetNickname claims desired as the nickname of this profile. When another known user
// already holds the same nickname (case-insensitively) the claimed nickname becomes
// "<desired>#<stamp>". The nickname actually assigned is returned; a non-nil error
// alongside it means it was applied for this session but not persisted.
func (m *Manager) SetNickname(ctx context.Context, desired string) (string, error) {
	desired = strings.TrimSpace(desired)
	if desired == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidNickname)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if utf8.RuneCountInString(desired) > m.maxNickname {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidNickname, m.maxNickname)
	}

	stamp := m.stampLocked(ctx)
	users := storage.Load[[]domain.User](ctx, m.store, storage.KeyAllUsers)

	nickname := desired
	for _, user := range users {
		if user.Stamp != stamp && strings.EqualFold(user.Nickname, desired) {
			nickname = desired + "#" + stamp
			break
		}
	}

	m.nickname = nickname
	var errs []error
	if err := m.store.Set(ctx, storage.KeyUserNickname, nickname); err != nil {
		errs = append(errs, err)
	}
	if err := m.upsertUserLocked(ctx, users, stamp, func(user *domain.User) {
		user.Nickname = nickname
	}); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		m.logger.Warn("nickname not persisted", zap.String("nickname", nickname), zap.Error(err))
		return nickname, fmt.Errorf("saving nickname %s: %w", nickname, err)
	}
	m.logger.Debug("nickname set", zap.String("nickname", nickname), zap.String("stamp", stamp))
	return nickname, nil
}

// upsertUserLocked inserts or updates the directory entry of stamp and stamps it as active now.
func (m *Manager) upsertUserLocked(ctx context.Context, users []domain.User, stamp string, update func(*domain.User)) error {
	i := -1
	for j := range users {
		if users[j].Stamp == stamp {
			i = j
			break
		}
	}
	if i < 0 {
		users = append(users, domain.User{Stamp: stamp, Nickname: m.nickname, Details: m.details})
		i = len(users) - 1
	}
	update(&users[i])
	users[i].LastActive = m.now().UTC()

	if err := m.store.Set(ctx, storage.KeyAllUsers, users); err != nil {
		return fmt.Errorf("updating user directory: %w", err)
	}
	return nil
}

// UserDetails returns the stored user details, or nil when none were saved.
func (m *Manager) UserDetails(ctx context.Context) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detailsLocked(ctx)
}

func (m *Manager) detailsLocked(ctx context.Context) map[string]any {
	if m.store.IsAvailable() {
		m.details = storage.Load[map[string]any](ctx, m.store, storage.KeyUserDetails)
	}
	return maps.Clone(m.details)
}

// SaveUserDetails shallow-merges details into the stored details, new keys winning,
// and mirrors the result into the user directory.
func (m *Manager) SaveUserDetails(ctx context.Context, details map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	merged := m.detailsLocked(ctx)
	if merged == nil {
		merged = make(map[string]any, len(details))
	}
	maps.Copy(merged, details)
	m.details = merged

	stamp := m.stampLocked(ctx)
	m.nicknameLocked(ctx)

	var errs []error
	if err := m.store.Set(ctx, storage.KeyUserDetails, merged); err != nil {
		errs = append(errs, err)
	}
	users := storage.Load[[]domain.User](ctx, m.store, storage.KeyAllUsers)
	if err := m.upsertUserLocked(ctx, users, stamp, func(user *domain.User) {
		user.Details = maps.Clone(merged)
	}); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		m.logger.Warn("user details not persisted", zap.Error(err))
		return fmt.Errorf("saving user details: %w", err)
	}
	return nil
}

// Current returns the identity read model.
func (m *Manager) Current(ctx context.Context) domain.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.Identity{
		Stamp:       m.stampLocked(ctx),
		Nickname:    m.nicknameLocked(ctx),
		UserDetails: m.detailsLocked(ctx),
	}
}

// Users returns the directory of known users.
func (m *Manager) Users(ctx context.Context) []domain.User {
	return storage.Load[[]domain.User](ctx, m.store, storage.KeyAllUsers)
}

// StartSession records a page load. It continues the stored session unless it has been
// idle for longer than SessionIdleTimeout, in which case a new session is started.
func (m *Manager) StartSession(ctx context.Context) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	session := m.session
	if m.store.IsAvailable() {
		session = storage.Load[domain.Session](ctx, m.store, storage.KeySession)
	}

	if session.SessionID == "" || now.Sub(session.LastSeen) > SessionIdleTimeout {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.Session{}, fmt.Errorf("generating session id: %w", err)
		}
		session = domain.Session{SessionID: id.String(), StartedAt: now}
	}
	session.PageViews++
	session.LastSeen = now
	session.UserAgent = m.fingerprint.UserAgent
	session.Language = m.fingerprint.Language
	session.ScreenWidth = m.fingerprint.ScreenWidth
	session.ScreenHeight = m.fingerprint.ScreenHeight
	m.session = session

	var errs []error
	if err := m.store.Set(ctx, storage.KeySession, session); err != nil {
		errs = append(errs, err)
	}

	devices := storage.Load[map[string]any](ctx, m.store, storage.KeyDevices)
	if devices == nil {
		devices = map[string]any{}
	}
	devices[m.stampLocked(ctx)] = map[string]any{
		"userAgent": m.fingerprint.UserAgent,
		"language":  m.fingerprint.Language,
		"screen":    fmt.Sprintf("%dx%d", m.fingerprint.ScreenWidth, m.fingerprint.ScreenHeight),
		"lastSeen":  now.Format(time.RFC3339),
	}
	if err := m.store.Set(ctx, storage.KeyDevices, devices); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		m.logger.Warn("session not persisted", zap.String("session", session.SessionID), zap.Error(err))
		return session, fmt.Errorf("saving session: %w", err)
	}
	return session, nil
}

// SessionSnapshot returns the session metadata attached to activity entries.
func (m *Manager) SessionSnapshot(ctx context.Context) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	session := m.session
	location := m.location
	if m.store.IsAvailable() {
		session = storage.Load[domain.Session](ctx, m.store, storage.KeySession)
		location = storage.Load[domain.Location](ctx, m.store, storage.KeyLocation)
	}
	snapshot := session.Snapshot()
	snapshot["location"] = location.Status
	return snapshot
}

// Location returns the stored geolocation, the pending placeholder until resolved.
func (m *Manager) Location(ctx context.Context) domain.Location {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store.IsAvailable() {
		m.location = storage.Load[domain.Location](ctx, m.store, storage.KeyLocation)
	}
	return m.location
}

// SetLocation replaces the geolocation record.
func (m *Manager) SetLocation(ctx context.Context, location domain.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.location = location
	if err := m.store.Set(ctx, storage.KeyLocation, location); err != nil {
		m.logger.Warn("location not persisted", zap.Error(err))
		return fmt.Errorf("saving location: %w", err)
	}
	return nil
}
