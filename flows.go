package showcase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/tfkr-ae/showcase/core"
	"github.com/tfkr-ae/showcase/domain"
	"github.com/tfkr-ae/showcase/entity"
	"github.com/tfkr-ae/showcase/ratelimit"
	"github.com/tfkr-ae/showcase/validate"
	"go.uber.org/zap"
)

// uiEvents are the actions RecordEvent accepts.
var uiEvents = []string{
	domain.ActionPageView,
	domain.ActionSessionLogOpened,
	domain.ActionSessionLogClosed,
	domain.ActionCardExpanded,
	domain.ActionCardCollapsed,
}

// SubmitProject shares a project on behalf of the current profile.
//
// Errors are *ValidationError, *RateLimitError, or an error wrapping ErrNotSaved. In
// the last case the returned project is complete but exists only for this session.
func (s *Showcase) SubmitProject(ctx context.Context, input domain.ProjectInput) (domain.Project, error) {
	cfg := s.Config()
	if result := validate.Project(input, cfg.Limits()); !result.Valid {
		return domain.Project{}, &ValidationError{Result: result}
	}
	if err := s.consume(ratelimit.ActionProject, cfg); err != nil {
		return domain.Project{}, err
	}

	ident := s.identity.Current(ctx)
	project := domain.Project{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		URL:         strings.TrimSpace(input.URL),
		Host:        validate.Host(input.URL),
		Category:    strings.TrimSpace(input.Category),
		Tags:        cleanTags(input.Tags),
		Author:      ident.DisplayName(),
		AuthorStamp: ident.Stamp,
	}

	project, err := s.entities.AddUserProject(ctx, project, s.now())
	if err != nil {
		return project, notSaved(err)
	}
	s.Logger.Debug("project shared", zap.String("id", project.ID.String()), zap.String("stamp", ident.Stamp))
	s.record(ctx, domain.ActionProjectShared, map[string]any{
		"projectId": project.ID.String(),
		"title":     project.Title,
	})
	return project, nil
}

func cleanTags(tags []string) []string {
	var cleaned []string
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" && !slices.Contains(cleaned, tag) {
			cleaned = append(cleaned, tag)
		}
	}
	return cleaned
}

// AddComment appends a comment to a project. A nickname in the input that differs from
// the current one is claimed first, so the comment carries the nickname actually assigned.
//
// Errors are *ValidationError, ErrUnknownProject, *RateLimitError, or an error wrapping
// ErrNotSaved alongside the comment kept for this session.
func (s *Showcase) AddComment(ctx context.Context, id domain.ProjectID, input domain.CommentInput) (domain.Comment, error) {
	cfg := s.Config()
	if result := validate.Comment(input, cfg.Limits()); !result.Valid {
		return domain.Comment{}, &ValidationError{Result: result}
	}
	if _, ok := s.Project(ctx, id); !ok {
		return domain.Comment{}, fmt.Errorf("commenting on %s: %w", id, ErrUnknownProject)
	}
	if err := s.consume(ratelimit.ActionComment, cfg); err != nil {
		return domain.Comment{}, err
	}

	ident := s.identity.Current(ctx)
	if wanted := strings.TrimSpace(input.Nickname); wanted != "" && !holdsNickname(ident, wanted) {
		nickname, err := s.SetNickname(ctx, wanted)
		if err != nil && !errors.Is(err, ErrNotSaved) {
			return domain.Comment{}, err
		}
		ident.Nickname = nickname
	}

	comment := domain.Comment{
		Author:    ident.DisplayName(),
		Stamp:     ident.Stamp,
		Text:      strings.TrimSpace(input.Text),
		Timestamp: s.now().UTC(),
	}
	comments, err := s.entities.AppendComment(ctx, id, comment)
	if err != nil {
		return comment, notSaved(err)
	}
	s.record(ctx, domain.ActionCommentAdded, map[string]any{
		"projectId":    id.String(),
		"commentCount": len(comments),
	})
	return comment, nil
}

// holdsNickname reports whether the identity already carries wanted, possibly with the
// stamp suffix it got when the plain nickname was taken.
func holdsNickname(ident domain.Identity, wanted string) bool {
	return strings.EqualFold(ident.Nickname, wanted) ||
		strings.EqualFold(ident.Nickname, wanted+"#"+ident.Stamp)
}

// AddRating records a rating from 1 to 5 and returns the new average.
//
// Errors are *ValidationError, ErrUnknownProject, *RateLimitError, or an error wrapping
// ErrNotSaved alongside the average including the unsaved rating.
func (s *Showcase) AddRating(ctx context.Context, id domain.ProjectID, value int) (entity.Average, error) {
	cfg := s.Config()
	if result := validate.Rating(value); !result.Valid {
		return entity.Average{}, &ValidationError{Result: result}
	}
	if _, ok := s.Project(ctx, id); !ok {
		return entity.Average{}, fmt.Errorf("rating %s: %w", id, ErrUnknownProject)
	}
	if err := s.consume(ratelimit.ActionRating, cfg); err != nil {
		return entity.Average{}, err
	}

	ratings, err := s.entities.AppendRating(ctx, id, value)
	average := entity.AverageOf(ratings)
	if err != nil {
		return average, notSaved(err)
	}
	s.record(ctx, domain.ActionProjectRated, map[string]any{
		"projectId":    id.String(),
		"rating":       value,
		"totalRatings": len(ratings),
	})
	return average, nil
}

// Cooldown reports how long until action is allowed again, without consuming it.
func (s *Showcase) Cooldown(action ratelimit.Action) ratelimit.Decision {
	return s.limiter.Check(action, s.Config().Cooldown(action))
}

func (s *Showcase) consume(action ratelimit.Action, cfg *Config) error {
	decision := s.limiter.CheckAndConsume(action, cfg.Cooldown(action))
	if !decision.Allowed {
		s.Logger.Debug("rate limited", zap.String("action", string(action)), zap.Duration("remaining", decision.Remaining))
		return &RateLimitError{Action: action, Remaining: decision.Remaining}
	}
	return nil
}

// SetNickname claims a nickname for the current profile and returns the nickname
// assigned, which carries a "#<stamp>" suffix when another user holds the same one.
func (s *Showcase) SetNickname(ctx context.Context, nickname string) (string, error) {
	previous := s.identity.Nickname(ctx)
	assigned, err := s.identity.SetNickname(ctx, nickname)
	if assigned == "" {
		return "", err
	}
	if err != nil {
		err = notSaved(err)
	}
	s.record(ctx, domain.ActionNicknameChanged, map[string]any{
		"nickname": assigned,
		"previous": previous,
	})
	return assigned, err
}

// SaveUserDetails merges details into the stored user details.
func (s *Showcase) SaveUserDetails(ctx context.Context, details map[string]any) error {
	if err := s.identity.SaveUserDetails(ctx, details); err != nil {
		return notSaved(err)
	}
	fields := make([]string, 0, len(details))
	for field := range details {
		fields = append(fields, field)
	}
	slices.Sort(fields)
	s.record(ctx, domain.ActionUserDetailsSaved, map[string]any{"fields": fields})
	return nil
}

// SetLocation stores the outcome of the geolocation prompt.
func (s *Showcase) SetLocation(ctx context.Context, location domain.Location) error {
	if err := s.identity.SetLocation(ctx, location); err != nil {
		return notSaved(err)
	}
	return nil
}

// RecordEvent records a UI event such as opening the session log or expanding a card.
func (s *Showcase) RecordEvent(ctx context.Context, action string, data map[string]any) error {
	if !slices.Contains(uiEvents, action) {
		return fmt.Errorf("recording %q: %w", action, ErrUnknownAction)
	}
	if err := s.appendActivity(ctx, action, data); err != nil {
		return notSaved(err)
	}
	return nil
}

// ClearActivity empties the activity log.
func (s *Showcase) ClearActivity(ctx context.Context) error {
	if err := s.activity.Clear(ctx); err != nil {
		return notSaved(err)
	}
	return nil
}

// record appends to the activity log on a best-effort basis: a failure is logged and
// never changes the outcome of the operation being recorded.
func (s *Showcase) record(ctx context.Context, action string, data map[string]any) {
	if err := s.appendActivity(ctx, action, data); err != nil {
		s.Logger.Warn("activity not recorded", zap.String("action", action), zap.Error(err))
	}
}

func (s *Showcase) appendActivity(ctx context.Context, action string, data map[string]any) error {
	return s.activity.Append(ctx, action,
		core.EntryWithIdentity(s.identity.Current(ctx)),
		core.EntryWithSession(s.identity.SessionSnapshot(ctx)),
		core.EntryWithData(data),
	)
}
