package domain

import "time"

// Comment is a single visitor comment on a project. Comments are stored append-only,
// in submission order, under "comments.<projectId>".
type Comment struct {
	Author    string    `json:"author"`    // Display nickname at the time of posting.
	Stamp     string    `json:"stamp"`     // Pseudonymous stamp of the posting browser.
	Text      string    `json:"text"`      // Comment body.
	Timestamp time.Time `json:"timestamp"` // Submission time.
}
