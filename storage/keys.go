package storage

import (
	"fmt"
	"strings"

	"github.com/tfkr-ae/showcase/domain"
)

// Namespaces of the logical key space.
const (
	NamespaceProjects = "projects"
	NamespaceComments = "comments"
	NamespaceRatings  = "ratings"
	NamespaceLogs     = "logs"
	NamespaceUsers    = "users"
	NamespaceSession  = "session"
)

// Fixed logical keys.
const (
	KeySystemProjects = "projects.allProjects"
	KeyUserProjects   = "projects.userProjects"
	KeyActivityLogs   = "logs._activity_logs"
	KeyAllUsers       = "users.allUsers"
	KeyUserStamp      = "users.userStamp"
	KeyUserNickname   = "users.userNickname"
	KeyUserDetails    = "users.userDetails"
	KeySession        = "session.current"
	KeyDevices        = "session.devices"
	KeyLocation       = "session.location"
)

// DefaultPrefix is prepended to every logical key to form the physical key.
const DefaultPrefix = "showcase_"

// Key joins a namespace and a name into a logical key.
func Key(namespace, name string) string {
	return namespace + "." + name
}

// CommentsKey returns the key holding the comments of a project.
func CommentsKey(id domain.ProjectID) string {
	return Key(NamespaceComments, id.String())
}

// RatingsKey returns the key holding the ratings of a project.
func RatingsKey(id domain.ProjectID) string {
	return Key(NamespaceRatings, id.String())
}

// ParseKey splits a logical key into its namespace and name.
func ParseKey(key string) (namespace string, name string, err error) {
	namespace, name, ok := strings.Cut(key, ".")
	if !ok || namespace == "" || name == "" {
		return "", "", fmt.Errorf("key %q is not of the form namespace.key", key)
	}
	return namespace, name, nil
}
