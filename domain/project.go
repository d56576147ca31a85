package domain

import (
	"strconv"
	"strings"
	"time"
)

// ProjectType distinguishes built-in example projects from visitor submissions.
type ProjectType string

const (
	ProjectTypeSystem ProjectType = "system"
	ProjectTypeUser   ProjectType = "user"
)

const (
	systemIDPrefix = "sys-"
	userIDPrefix   = "usr-"
)

// ProjectID identifies a project. System and user projects live in separate ID spaces
// ("sys-<n>" and "usr-<epoch millis>") so the two can never collide.
type ProjectID string

// SystemProjectID returns the ID of the n-th built-in project.
func SystemProjectID(n int) ProjectID {
	return ProjectID(systemIDPrefix + strconv.Itoa(n))
}

// UserProjectID returns the ID for a user submission issued at the given sequence (epoch millis).
func UserProjectID(seq int64) ProjectID {
	return ProjectID(userIDPrefix + strconv.FormatInt(seq, 10))
}

// Type reports which ID space the ID belongs to. Unknown shapes report an empty type.
func (id ProjectID) Type() ProjectType {
	switch {
	case strings.HasPrefix(string(id), systemIDPrefix):
		return ProjectTypeSystem
	case strings.HasPrefix(string(id), userIDPrefix):
		return ProjectTypeUser
	default:
		return ""
	}
}

// Valid reports whether the ID has one of the two known shapes followed by a number.
func (id ProjectID) Valid() bool {
	var digits string
	switch id.Type() {
	case ProjectTypeSystem:
		digits = strings.TrimPrefix(string(id), systemIDPrefix)
	case ProjectTypeUser:
		digits = strings.TrimPrefix(string(id), userIDPrefix)
	default:
		return false
	}
	_, err := strconv.ParseInt(digits, 10, 64)
	return err == nil
}

func (id ProjectID) String() string {
	return string(id)
}

// Project is a showcased project, either seeded from the built-in list or shared by a visitor.
type Project struct {
	ID          ProjectID   `json:"id" yaml:"-"`
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description" yaml:"description"`
	URL         string      `json:"url,omitempty" yaml:"url"`
	Host        string      `json:"host,omitempty" yaml:"host"`
	Category    string      `json:"category,omitempty" yaml:"category"`
	Tags        []string    `json:"tags,omitempty" yaml:"tags"`
	Author      string      `json:"author" yaml:"author"`
	AuthorStamp string      `json:"authorStamp" yaml:"-"`
	Timestamp   time.Time   `json:"timestamp" yaml:"-"`
	Type        ProjectType `json:"type" yaml:"-"`
}
