package entity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/tfkr-ae/showcase/domain"
	"github.com/tfkr-ae/showcase/entity"
	"github.com/tfkr-ae/showcase/storage"
	"github.com/tfkr-ae/showcase/storage/storagetest"
)

var now = time.Date(2024, time.March, 9, 14, 30, 0, 0, time.UTC)

func TestAverageOf(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    string
	}{
		{name: "should render N/A without ratings", ratings: nil, want: "N/A"},
		{name: "should render a single rating", ratings: []int{5}, want: "5.0"},
		{name: "should render a whole average with one decimal", ratings: []int{5, 4, 3}, want: "4.0"},
		{name: "should round to one decimal", ratings: []int{5, 5, 4}, want: "4.7"},
		{name: "should round down below the half", ratings: []int{1, 2, 2}, want: "1.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := entity.AverageOf(tt.ratings)
			if got.String() != tt.want {
				t.Fatalf("\nwanted:\n%s\ngot:\n%s", tt.want, got.String())
			}
			if got.Count != len(tt.ratings) {
				t.Fatalf("\nwanted:\n%d\ngot:\n%d", len(tt.ratings), got.Count)
			}
		})
	}
}

func TestBuiltinProjects(t *testing.T) {
	t.Run("should parse the embedded seed", func(t *testing.T) {
		projects, err := entity.BuiltinProjects()
		if err != nil {
			t.Fatalf("BuiltinProjects() failed: %v", err)
		}
		if len(projects) == 0 {
			t.Fatalf("\nwanted:\nat least one project\ngot:\nnone")
		}
		for _, project := range projects {
			if project.ID != "" || project.Type != "" {
				t.Fatalf("\nwanted:\nunassigned id and type\ngot:\n%q %q", project.ID, project.Type)
			}
		}
	})

	t.Run("should reject a project without title", func(t *testing.T) {
		_, err := entity.ParseProjects([]byte("- description: nameless\n"))
		if err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})
}

func TestStore_SeedSystemProjects(t *testing.T) {
	ctx := context.Background()
	seed := []domain.Project{
		{Title: "First", Author: "System"},
		{Title: "Second", Author: "System"},
	}

	t.Run("should seed an empty store once", func(t *testing.T) {
		store := entity.New(storagetest.NewStore(t))

		seeded, err := store.SeedSystemProjects(ctx, seed, now)
		if err != nil {
			t.Fatalf("SeedSystemProjects() failed: %v", err)
		}
		if !seeded {
			t.Fatalf("\nwanted:\ntrue\ngot:\nfalse")
		}

		seeded, err = store.SeedSystemProjects(ctx, []domain.Project{{Title: "Other"}}, now)
		if err != nil {
			t.Fatalf("second SeedSystemProjects() failed: %v", err)
		}
		if seeded {
			t.Fatalf("\nwanted:\nfalse\ngot:\ntrue")
		}

		want := []domain.Project{
			{ID: "sys-1", Title: "First", Author: "System", Timestamp: now, Type: domain.ProjectTypeSystem},
			{ID: "sys-2", Title: "Second", Author: "System", Timestamp: now, Type: domain.ProjectTypeSystem},
		}
		if diff := cmp.Diff(want, store.SystemProjects(ctx)); diff != "" {
			t.Fatalf("system projects mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should not reseed while user projects are empty", func(t *testing.T) {
		store := entity.New(storagetest.NewStore(t))
		if _, err := store.SeedSystemProjects(ctx, seed, now); err != nil {
			t.Fatalf("SeedSystemProjects() failed: %v", err)
		}

		if got := len(store.UserProjects(ctx)); got != 0 {
			t.Fatalf("\nwanted:\n0\ngot:\n%d", got)
		}
		seeded, _ := store.SeedSystemProjects(ctx, seed, now)
		if seeded {
			t.Fatalf("\nwanted:\nfalse\ngot:\ntrue")
		}
	})

	t.Run("should report the failure on unavailable storage", func(t *testing.T) {
		store := entity.New(storagetest.NewUnavailableStore(t))

		seeded, err := store.SeedSystemProjects(ctx, seed, now)
		if !errors.Is(err, storage.ErrStorageUnavailable) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", storage.ErrStorageUnavailable, err)
		}
		if seeded {
			t.Fatalf("\nwanted:\nfalse\ngot:\ntrue")
		}
	})
}

func TestStore_AddUserProject(t *testing.T) {
	ctx := context.Background()

	t.Run("should assign a user id and type", func(t *testing.T) {
		store := entity.New(storagetest.NewStore(t))

		got, err := store.AddUserProject(ctx, domain.Project{Title: "Mine", Type: domain.ProjectTypeSystem}, now)
		if err != nil {
			t.Fatalf("AddUserProject() failed: %v", err)
		}
		if got.ID != domain.UserProjectID(now.UnixMilli()) {
			t.Fatalf("\nwanted:\n%s\ngot:\n%s", domain.UserProjectID(now.UnixMilli()), got.ID)
		}
		if got.Type != domain.ProjectTypeUser {
			t.Fatalf("\nwanted:\n%s\ngot:\n%s", domain.ProjectTypeUser, got.Type)
		}

		found, ok := store.Project(ctx, got.ID)
		if !ok {
			t.Fatalf("Project(%s) not found", got.ID)
		}
		if diff := cmp.Diff(got, found); diff != "" {
			t.Fatalf("project mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should keep ids distinct within the same millisecond", func(t *testing.T) {
		store := entity.New(storagetest.NewStore(t))

		first, _ := store.AddUserProject(ctx, domain.Project{Title: "One"}, now)
		second, _ := store.AddUserProject(ctx, domain.Project{Title: "Two"}, now)
		earlier, _ := store.AddUserProject(ctx, domain.Project{Title: "Three"}, now.Add(-time.Hour))

		want := []domain.ProjectID{
			domain.UserProjectID(now.UnixMilli()),
			domain.UserProjectID(now.UnixMilli() + 1),
			domain.UserProjectID(now.UnixMilli() + 2),
		}
		got := []domain.ProjectID{first.ID, second.ID, earlier.ID}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ids mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should list system projects before user projects", func(t *testing.T) {
		store := entity.New(storagetest.NewStore(t))
		store.SeedSystemProjects(ctx, []domain.Project{{Title: "Seeded"}}, now)
		store.AddUserProject(ctx, domain.Project{Title: "Shared"}, now)

		var titles []string
		for _, project := range store.Projects(ctx) {
			titles = append(titles, project.Title)
		}
		if diff := cmp.Diff([]string{"Seeded", "Shared"}, titles); diff != "" {
			t.Fatalf("titles mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should not find unknown ids", func(t *testing.T) {
		store := entity.New(storagetest.NewStore(t))
		store.SeedSystemProjects(ctx, []domain.Project{{Title: "Seeded"}}, now)

		for _, id := range []domain.ProjectID{"sys-2", "usr-1", "nope"} {
			if _, ok := store.Project(ctx, id); ok {
				t.Fatalf("Project(%s) found", id)
			}
		}
	})
}

func TestStore_CommentsAndRatings(t *testing.T) {
	ctx := context.Background()
	id := domain.SystemProjectID(1)

	t.Run("should append comments in order", func(t *testing.T) {
		store := entity.New(storagetest.NewStore(t))

		if got := store.CommentCount(ctx, id); got != 0 {
			t.Fatalf("\nwanted:\n0\ngot:\n%d", got)
		}

		first := domain.Comment{Author: "Ada", Stamp: "AAAAAA", Text: "first", Timestamp: now}
		second := domain.Comment{Author: "Bob", Stamp: "BBBBBB", Text: "second", Timestamp: now.Add(time.Minute)}
		store.AppendComment(ctx, id, first)
		comments, err := store.AppendComment(ctx, id, second)
		if err != nil {
			t.Fatalf("AppendComment() failed: %v", err)
		}

		want := []domain.Comment{first, second}
		if diff := cmp.Diff(want, comments); diff != "" {
			t.Fatalf("returned comments mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(want, store.Comments(ctx, id)); diff != "" {
			t.Fatalf("stored comments mismatch (-want +got):\n%s", diff)
		}
		if got := store.CommentCount(ctx, domain.SystemProjectID(2)); got != 0 {
			t.Fatalf("\nwanted:\n0\ngot:\n%d", got)
		}
	})

	t.Run("should average appended ratings", func(t *testing.T) {
		store := entity.New(storagetest.NewStore(t))

		if got := store.Average(ctx, id).String(); got != "N/A" {
			t.Fatalf("\nwanted:\nN/A\ngot:\n%s", got)
		}
		for _, v := range []int{5, 5, 4} {
			if _, err := store.AppendRating(ctx, id, v); err != nil {
				t.Fatalf("AppendRating(%d) failed: %v", v, err)
			}
		}

		if diff := cmp.Diff([]int{5, 5, 4}, store.Ratings(ctx, id)); diff != "" {
			t.Fatalf("ratings mismatch (-want +got):\n%s", diff)
		}
		if got := store.Average(ctx, id).String(); got != "4.7" {
			t.Fatalf("\nwanted:\n4.7\ngot:\n%s", got)
		}
	})

	t.Run("should return the unsaved list on unavailable storage", func(t *testing.T) {
		store := entity.New(storagetest.NewUnavailableStore(t))

		ratings, err := store.AppendRating(ctx, id, 3)
		if err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
		if diff := cmp.Diff([]int{3}, ratings); diff != "" {
			t.Fatalf("ratings mismatch (-want +got):\n%s", diff)
		}
	})
}
