package domain

import (
	"time"

	"github.com/google/uuid"
)

// Actions recorded in the activity log.
const (
	ActionSystemPopulateExamples = "system_populate_examples"
	ActionProjectShared          = "project_shared"
	ActionCommentAdded           = "comment_added"
	ActionProjectRated           = "project_rated"
	ActionNicknameChanged        = "nickname_changed"
	ActionUserDetailsSaved       = "user_details_saved"
	ActionPageView               = "page_view"
	ActionSessionLogOpened       = "session_log_opened"
	ActionSessionLogClosed       = "session_log_closed"
	ActionCardExpanded           = "card_expanded"
	ActionCardCollapsed          = "card_collapsed"
)

// ActivityEntry is a single record of the user-visible audit trail.
type ActivityEntry struct {
	ID          uuid.UUID      `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	UserStamp   string         `json:"userStamp"`
	Nickname    string         `json:"nickname"`
	Action      string         `json:"action"`
	Data        map[string]any `json:"data"`
	SessionData map[string]any `json:"sessionData"`
}
