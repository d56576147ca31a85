// Package entity provides typed access to the projects, comments and ratings
// collections of the namespaced store.
//
// Every write reads the whole collection, changes it in memory and writes it back.
// Writers in the same process are serialized; writers in other processes sharing
// the store (other tabs) are not, and the last write wins.
package entity

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tfkr-ae/showcase/domain"
	"github.com/tfkr-ae/showcase/storage"
)

// Store reads and writes the showcase collections.
type Store struct {
	store *storage.Store
	mu    sync.Mutex
}

// New returns an entity store over store.
func New(store *storage.Store) *Store {
	return &Store{store: store}
}

// SystemProjects returns the seeded projects in seed order.
func (s *Store) SystemProjects(ctx context.Context) []domain.Project {
	return storage.Load[[]domain.Project](ctx, s.store, storage.KeySystemProjects)
}

// UserProjects returns the shared projects in submission order.
func (s *Store) UserProjects(ctx context.Context) []domain.Project {
	return storage.Load[[]domain.Project](ctx, s.store, storage.KeyUserProjects)
}

// Projects returns the system projects followed by the user projects.
func (s *Store) Projects(ctx context.Context) []domain.Project {
	return append(s.SystemProjects(ctx), s.UserProjects(ctx)...)
}

// Project looks a project up by ID.
func (s *Store) Project(ctx context.Context, id domain.ProjectID) (domain.Project, bool) {
	var projects []domain.Project
	switch id.Type() {
	case domain.ProjectTypeSystem:
		projects = s.SystemProjects(ctx)
	case domain.ProjectTypeUser:
		projects = s.UserProjects(ctx)
	default:
		return domain.Project{}, false
	}
	for _, project := range projects {
		if project.ID == id {
			return project, true
		}
	}
	return domain.Project{}, false
}

// SeedSystemProjects stores projects as the system collection when that collection is
// empty. It reports whether seeding happened.
func (s *Store) SeedSystemProjects(ctx context.Context, projects []domain.Project, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.SystemProjects(ctx)) > 0 {
		return false, nil
	}

	seeded := AssignSystemIDs(projects, now)
	if err := s.store.Set(ctx, storage.KeySystemProjects, seeded); err != nil {
		return false, fmt.Errorf("seeding system projects: %w", err)
	}
	return true, nil
}

// AssignSystemIDs returns a copy of projects numbered as system projects in order.
// Projects without a timestamp are stamped with now.
func AssignSystemIDs(projects []domain.Project, now time.Time) []domain.Project {
	assigned := make([]domain.Project, len(projects))
	for i, project := range projects {
		project.ID = domain.SystemProjectID(i + 1)
		project.Type = domain.ProjectTypeSystem
		if project.Timestamp.IsZero() {
			project.Timestamp = now.UTC()
		}
		assigned[i] = project
	}
	return assigned
}

// AddUserProject assigns project a user ID derived from now, marks it as a user project
// and appends it to the user collection. IDs are kept strictly increasing, so two
// submissions within the same millisecond still get distinct IDs.
func (s *Store) AddUserProject(ctx context.Context, project domain.Project, now time.Time) (domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects := s.UserProjects(ctx)

	seq := now.UnixMilli()
	if last := lastUserSeq(projects); seq <= last {
		seq = last + 1
	}
	project.ID = domain.UserProjectID(seq)
	project.Type = domain.ProjectTypeUser
	project.Timestamp = now.UTC()

	projects = append(projects, project)
	if err := s.store.Set(ctx, storage.KeyUserProjects, projects); err != nil {
		return project, fmt.Errorf("adding project %s: %w", project.ID, err)
	}
	return project, nil
}

func lastUserSeq(projects []domain.Project) int64 {
	var last int64
	for _, project := range projects {
		seq, err := strconv.ParseInt(strings.TrimPrefix(project.ID.String(), "usr-"), 10, 64)
		if err == nil && seq > last {
			last = seq
		}
	}
	return last
}

// Comments returns the comments of a project in submission order.
func (s *Store) Comments(ctx context.Context, id domain.ProjectID) []domain.Comment {
	return storage.Load[[]domain.Comment](ctx, s.store, storage.CommentsKey(id))
}

// CommentCount returns the number of comments on a project.
func (s *Store) CommentCount(ctx context.Context, id domain.ProjectID) int {
	return len(s.Comments(ctx, id))
}

// AppendComment appends comment to the comments of a project and returns the new list.
func (s *Store) AppendComment(ctx context.Context, id domain.ProjectID, comment domain.Comment) ([]domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comments := append(s.Comments(ctx, id), comment)
	if err := s.store.Set(ctx, storage.CommentsKey(id), comments); err != nil {
		return comments, fmt.Errorf("adding comment to %s: %w", id, err)
	}
	return comments, nil
}

// Ratings returns the raw ratings of a project in submission order.
func (s *Store) Ratings(ctx context.Context, id domain.ProjectID) []int {
	return storage.Load[[]int](ctx, s.store, storage.RatingsKey(id))
}

// AppendRating appends value to the ratings of a project and returns the new list.
func (s *Store) AppendRating(ctx context.Context, id domain.ProjectID, value int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ratings := append(s.Ratings(ctx, id), value)
	if err := s.store.Set(ctx, storage.RatingsKey(id), ratings); err != nil {
		return ratings, fmt.Errorf("adding rating to %s: %w", id, err)
	}
	return ratings, nil
}

// Average returns the average rating of a project.
func (s *Store) Average(ctx context.Context, id domain.ProjectID) Average {
	return AverageOf(s.Ratings(ctx, id))
}

// Average is the mean of a project's ratings rounded to one decimal.
type Average struct {
	Value float64
	Count int
}

// NotAvailable is the rendering of the average of no ratings.
const NotAvailable = "N/A"

// AverageOf computes the average of ratings.
func AverageOf(ratings []int) Average {
	if len(ratings) == 0 {
		return Average{}
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	mean := float64(sum) / float64(len(ratings))
	return Average{Value: math.Round(mean*10) / 10, Count: len(ratings)}
}

// Valid reports whether there was at least one rating.
func (a Average) Valid() bool {
	return a.Count > 0
}

// String renders the average with one decimal, or "N/A".
func (a Average) String() string {
	if !a.Valid() {
		return NotAvailable
	}
	return strconv.FormatFloat(a.Value, 'f', 1, 64)
}
