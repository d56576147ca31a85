package domain

import "time"

// Identity is the pseudonymous identity of the current browser profile.
type Identity struct {
	Stamp       string         `json:"stamp"`
	Nickname    string         `json:"nickname,omitempty"`
	UserDetails map[string]any `json:"userDetails,omitempty"`
}

// DisplayName returns the nickname, or "Anonymous" when none was set.
func (id Identity) DisplayName() string {
	if id.Nickname == "" {
		return "Anonymous"
	}
	return id.Nickname
}

// User is an entry of the all-users directory used for nickname uniqueness.
type User struct {
	Stamp      string         `json:"stamp"`
	Nickname   string         `json:"nickname"`
	Details    map[string]any `json:"details"`
	LastActive time.Time      `json:"lastActive"`
}

// Session holds the lightweight session and device metadata persisted per profile.
type Session struct {
	SessionID    string    `json:"sessionId"`
	StartedAt    time.Time `json:"startedAt"`
	LastSeen     time.Time `json:"lastSeen"`
	PageViews    int       `json:"pageViews"`
	UserAgent    string    `json:"userAgent"`
	Language     string    `json:"language"`
	ScreenWidth  int       `json:"screenWidth"`
	ScreenHeight int       `json:"screenHeight"`
}

// Snapshot flattens the session into the map attached to activity entries.
func (s Session) Snapshot() map[string]any {
	if s.SessionID == "" {
		return map[string]any{}
	}
	return map[string]any{
		"sessionId": s.SessionID,
		"startedAt": s.StartedAt.Format(time.RFC3339),
		"pageViews": s.PageViews,
		"language":  s.Language,
		"screen":    map[string]any{"width": s.ScreenWidth, "height": s.ScreenHeight},
	}
}

// Location statuses.
const (
	LocationPending  = "pending"
	LocationResolved = "resolved"
	LocationDenied   = "denied"
)

// Location is the geolocation record of the profile. Until resolved it holds the
// pending placeholder with nil coordinates.
type Location struct {
	Status    string   `json:"status"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  *float64 `json:"accuracy"`
}

// PendingLocation returns the placeholder stored before geolocation is resolved.
func PendingLocation() Location {
	return Location{Status: LocationPending}
}
