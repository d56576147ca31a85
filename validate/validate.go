// Package validate checks user input before it reaches the store.
//
// Validators never fail: they return a Result listing every problem found, so callers
// can show all messages at once.
package validate

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/tfkr-ae/showcase/domain"
)

// Limits bounds the length of text fields, in characters.
type Limits struct {
	Title       int
	Description int
	Comment     int
	Nickname    int
	Tags        int
	Tag         int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		Title:       100,
		Description: 1000,
		Comment:     500,
		Nickname:    30,
		Tags:        10,
		Tag:         30,
	}
}

// MinRating and MaxRating bound a rating value.
const (
	MinRating = 1
	MaxRating = 5
)

// FieldError is a problem with one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return e.Field + ": " + e.Message
}

// Result is the outcome of a validation.
type Result struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors"`
}

func (r *Result) add(field, format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func newResult() Result {
	return Result{Valid: true, Errors: []FieldError{}}
}

// Error joins the messages of an invalid result.
func (r Result) Error() string {
	messages := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		messages[i] = e.String()
	}
	return strings.Join(messages, "; ")
}

func (r *Result) text(field, value string, max int) {
	switch n := utf8.RuneCountInString(strings.TrimSpace(value)); {
	case n == 0:
		r.add(field, "is required")
	case max > 0 && n > max:
		r.add(field, "must be at most %d characters", max)
	}
}

// Project validates a project submission.
func Project(input domain.ProjectInput, limits Limits) Result {
	result := newResult()
	result.text("title", input.Title, limits.Title)
	result.text("description", input.Description, limits.Description)

	if strings.TrimSpace(input.URL) != "" {
		if _, err := ParseURL(input.URL); err != nil {
			result.add("url", "%v", err)
		}
	}

	if limits.Tags > 0 && len(input.Tags) > limits.Tags {
		result.add("tags", "at most %d tags are allowed", limits.Tags)
	}
	for i, tag := range input.Tags {
		n := utf8.RuneCountInString(strings.TrimSpace(tag))
		if n == 0 {
			result.add(fmt.Sprintf("tags[%d]", i), "is empty")
		} else if limits.Tag > 0 && n > limits.Tag {
			result.add(fmt.Sprintf("tags[%d]", i), "must be at most %d characters", limits.Tag)
		}
	}
	return result
}

// Comment validates a comment and the optional nickname submitted with it.
func Comment(input domain.CommentInput, limits Limits) Result {
	result := newResult()
	result.text("text", input.Text, limits.Comment)
	if strings.TrimSpace(input.Nickname) != "" {
		result.text("nickname", input.Nickname, limits.Nickname)
	}
	return result
}

// Rating validates a rating value.
func Rating(value int) Result {
	result := newResult()
	if value < MinRating || value > MaxRating {
		result.add("rating", "must be between %d and %d", MinRating, MaxRating)
	}
	return result
}

// ParseURL parses an absolute http or https URL.
func ParseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, errors.New("is not a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.New("must start with http:// or https://")
	}
	if u.Host == "" {
		return nil, errors.New("must include a host")
	}
	return u, nil
}

// Host returns the host name of a project URL, or "" when the URL is not valid.
func Host(raw string) string {
	u, err := ParseURL(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
