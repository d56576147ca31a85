package storage

import "github.com/tfkr-ae/showcase/domain"

// DefaultFunc produces the value returned for a key that holds nothing readable.
// It must return a fresh value on every call.
type DefaultFunc func() any

func emptyList() any   { return []any{} }
func emptyObject() any { return map[string]any{} }
func null() any        { return nil }
func pendingLocation() any {
	return domain.PendingLocation()
}

// Defaults maps logical keys and namespaces to their default values.
// Exact keys take precedence over namespaces; anything else defaults to null.
type Defaults struct {
	keys       map[string]DefaultFunc
	namespaces map[string]DefaultFunc
}

// DefaultTable returns the defaults of the showcase key space.
func DefaultTable() *Defaults {
	return &Defaults{
		keys: map[string]DefaultFunc{
			KeySystemProjects: emptyList,
			KeyUserProjects:   emptyList,
			KeyActivityLogs:   emptyList,
			KeyAllUsers:       emptyList,
			KeyUserStamp:      null,
			KeyUserNickname:   null,
			KeyUserDetails:    null,
			KeySession:        emptyObject,
			KeyDevices:        emptyObject,
			KeyLocation:       pendingLocation,
		},
		namespaces: map[string]DefaultFunc{
			NamespaceProjects: emptyList,
			NamespaceComments: emptyList,
			NamespaceRatings:  emptyList,
			NamespaceLogs:     emptyList,
			NamespaceUsers:    null,
			NamespaceSession:  emptyObject,
		},
	}
}

// For returns the default value of key.
func (d *Defaults) For(key string) any {
	if fn, ok := d.keys[key]; ok {
		return fn()
	}
	namespace, _, err := ParseKey(key)
	if err != nil {
		return nil
	}
	if fn, ok := d.namespaces[namespace]; ok {
		return fn()
	}
	return nil
}
