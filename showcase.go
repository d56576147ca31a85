// Package showcase is the core of a project showcase that keeps all of its state in
// the visitor's own browser storage: shared projects, comments and ratings, a
// pseudonymous identity, and an audit trail of what the visitor did.
//
// The core functionality includes:
//   - A namespaced key-value store with per-key defaults and a degraded session-only mode
//   - A per-profile stamp derived from the browser fingerprint, with unique nicknames
//   - A size-bounded activity log written by every mutation
//   - Per-action cooldowns on comments, ratings and project submissions
//   - Project, comment and rating collections with one-time seeding of examples
//   - Grouping of comments by day and author for display
//
// A Showcase is the equivalent of one open tab. Two Showcase values over the same
// database file behave like two tabs of one browser profile: they share every
// persisted value and the last write wins.
package showcase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tfkr-ae/showcase/activity"
	"github.com/tfkr-ae/showcase/db"
	"github.com/tfkr-ae/showcase/domain"
	"github.com/tfkr-ae/showcase/entity"
	"github.com/tfkr-ae/showcase/grouping"
	"github.com/tfkr-ae/showcase/identity"
	"github.com/tfkr-ae/showcase/ratelimit"
	"github.com/tfkr-ae/showcase/storage"
	"go.uber.org/zap"
)

// Showcase orchestrates the stores behind every user-facing operation.
type Showcase struct {
	Logger *zap.Logger // Diagnostic logger, a no-op unless set with WithLogger

	mu       sync.RWMutex
	config   *Config
	location *time.Location

	repo        domain.KVRepository
	ownsRepo    bool
	fingerprint identity.Fingerprint
	now         func() time.Time

	store    *storage.Store
	identity *identity.Manager
	activity *activity.Log
	limiter  *ratelimit.Limiter
	entities *entity.Store

	// examples holds the built-in projects for a session whose storage is unavailable.
	examples []domain.Project
}

// New creates a showcase and applies the options. Without WithRepo, a database file
// in the config directory is used; without either, the showcase runs in session-only
// mode where nothing is persisted.
func New(options ...func(*Showcase) error) (*Showcase, error) {
	s := &Showcase{
		Logger: zap.NewNop(),
		config: DefaultConfig(),
		now:    time.Now,
	}
	if err := s.WithOptions(options...); err != nil {
		return nil, err
	}

	cfg := s.config
	if s.repo == nil && cfg.DatabasePath() != "" {
		dbConn, err := db.New(cfg.DatabasePath())
		if err != nil {
			s.Logger.Warn("opening database failed, running in session-only mode",
				zap.String("path", cfg.DatabasePath()), zap.Error(err))
		} else {
			s.repo = db.NewStorageRepo(dbConn,
				db.WithQuota(cfg.QuotaBytes),
				db.WithCompressThreshold(cfg.CompressThreshold),
			)
			s.ownsRepo = true
		}
	}

	if s.location == nil {
		loc, err := cfg.Location()
		if err != nil {
			s.Logger.Warn("unknown timezone, grouping comments in local time", zap.Error(err))
			loc = time.Local
		}
		s.location = loc
	}

	s.store = storage.New(context.Background(), s.repo,
		storage.WithPrefix(cfg.StoragePrefix),
		storage.WithLogger(s.Logger.Named("storage")),
	)
	s.identity = identity.New(s.store, s.fingerprint,
		identity.WithClock(s.now),
		identity.WithLogger(s.Logger.Named("identity")),
		identity.WithMaxNicknameLength(cfg.MaxNicknameLength),
	)
	s.activity = activity.New(s.store,
		activity.WithCapacity(cfg.LogCapacity),
		activity.WithClock(s.now),
		activity.WithLogger(s.Logger.Named("activity")),
	)
	s.limiter = ratelimit.New(ratelimit.WithClock(s.now))
	s.entities = entity.New(s.store)
	return s, nil
}

// Config returns the current configuration.
func (s *Showcase) Config() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// WatchConfig applies edits of config.yaml while the showcase runs. Cooldowns and
// input limits take effect on the next operation; storage settings need a restart.
func (s *Showcase) WatchConfig() error {
	return s.Config().Watch(s.applyConfig, func(err error) {
		s.Logger.Warn("configuration not reloaded", zap.Error(err))
	})
}

func (s *Showcase) applyConfig(cfg *Config) {
	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
	s.identity.SetMaxNicknameLength(cfg.MaxNicknameLength)
	s.Logger.Info("configuration reloaded",
		zap.Duration("comment_cooldown", cfg.Cooldowns.Comment),
		zap.Duration("rating_cooldown", cfg.Cooldowns.Rating),
		zap.Duration("project_cooldown", cfg.Cooldowns.Project),
		zap.Int("max_nickname_length", cfg.MaxNicknameLength),
	)
}

// Available reports whether state is persisted, as opposed to kept for the session only.
func (s *Showcase) Available() bool {
	return s.store.IsAvailable()
}

// Start handles a page load: it resolves the stamp, starts or continues the session,
// seeds the example projects the first time, and records the page view.
// A non-nil error wraps ErrNotSaved; the showcase is usable either way.
func (s *Showcase) Start(ctx context.Context) error {
	s.identity.GetOrCreateStamp(ctx)

	var errs []error
	if _, err := s.identity.StartSession(ctx); err != nil {
		errs = append(errs, err)
	}
	if s.Config().SeedExamples {
		if err := s.seed(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.record(ctx, domain.ActionPageView, nil)

	if err := errors.Join(errs...); err != nil {
		return notSaved(err)
	}
	return nil
}

func (s *Showcase) seed(ctx context.Context) error {
	projects, err := entity.BuiltinProjects()
	if err != nil {
		return fmt.Errorf("loading example projects: %w", err)
	}

	seeded, err := s.entities.SeedSystemProjects(ctx, projects, s.now())
	if err != nil {
		s.mu.Lock()
		s.examples = entity.AssignSystemIDs(projects, s.now())
		s.mu.Unlock()
		return err
	}
	if seeded {
		s.Logger.Info("seeded example projects", zap.Int("count", len(projects)))
		s.record(ctx, domain.ActionSystemPopulateExamples, map[string]any{"count": len(projects)})
	}
	return nil
}

// ClearSiteData removes everything the showcase persisted and forgets the cooldowns,
// like clearing the browser's site data. The next Start begins as a first visit.
func (s *Showcase) ClearSiteData(ctx context.Context) error {
	s.limiter.Reset()
	if err := s.store.Clear(ctx); err != nil {
		return notSaved(err)
	}
	s.Logger.Info("site data cleared")
	return nil
}

// Close releases the database when the showcase opened it.
func (s *Showcase) Close() error {
	if s.repo == nil || !s.ownsRepo {
		return nil
	}
	if err := s.repo.Close(); err != nil {
		return fmt.Errorf("closing showcase : %w", err)
	}
	return nil
}

// ListProjects returns the system projects in seed order followed by the user projects
// in submission order.
func (s *Showcase) ListProjects(ctx context.Context) []domain.Project {
	projects := s.entities.Projects(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.examples) > 0 && len(s.entities.SystemProjects(ctx)) == 0 {
		projects = append(append([]domain.Project{}, s.examples...), projects...)
	}
	return projects
}

// Project looks a project up by ID.
func (s *Showcase) Project(ctx context.Context, id domain.ProjectID) (domain.Project, bool) {
	if project, ok := s.entities.Project(ctx, id); ok {
		return project, true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, project := range s.examples {
		if project.ID == id {
			return project, true
		}
	}
	return domain.Project{}, false
}

// ListComments returns the comments of a project in submission order.
func (s *Showcase) ListComments(ctx context.Context, id domain.ProjectID) []domain.Comment {
	return s.entities.Comments(ctx, id)
}

// GroupedComments returns the comments of a project grouped by day, author and stamp
// in the viewer's timezone.
func (s *Showcase) GroupedComments(ctx context.Context, id domain.ProjectID) []grouping.CommentGroup {
	return grouping.Group(s.entities.Comments(ctx, id), s.location)
}

// CommentCount returns the number of comments on a project.
func (s *Showcase) CommentCount(ctx context.Context, id domain.ProjectID) int {
	return s.entities.CommentCount(ctx, id)
}

// AverageRating returns the average rating of a project.
func (s *Showcase) AverageRating(ctx context.Context, id domain.ProjectID) entity.Average {
	return s.entities.Average(ctx, id)
}

// RecentActivity returns up to n activity entries, most recent first.
func (s *Showcase) RecentActivity(ctx context.Context, n int) []domain.ActivityEntry {
	return s.activity.ReadRecent(ctx, n)
}

// Identity returns the stamp, nickname and details of the current profile.
func (s *Showcase) Identity(ctx context.Context) domain.Identity {
	return s.identity.Current(ctx)
}

// Users returns the directory of users known to this profile.
func (s *Showcase) Users(ctx context.Context) []domain.User {
	return s.identity.Users(ctx)
}
