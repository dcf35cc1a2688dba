package model

import "time"

// ActivityAction names an operator action worth recording.
type ActivityAction string

const (
	ActionLogin          ActivityAction = "login"
	ActionLogout         ActivityAction = "logout"
	ActionProductCreated ActivityAction = "product.created"
	ActionProductDeleted ActivityAction = "product.deleted"
)

// ActivityEvent is one entry in the operator activity log.
type ActivityEvent struct {
	ID        string         `json:"id"`
	BrowserID string         `json:"browser_id"`
	Action    ActivityAction `json:"action"`
	SubjectID string         `json:"subject_id,omitempty"`
	Tags      []string       `json:"tags,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
