package domain

import "time"

// ActionItemStatus tracks completion of an action item.
type ActionItemStatus string

const (
	ActionItemOpen      ActionItemStatus = "open"
	ActionItemCompleted ActionItemStatus = "completed"
)

// Valid reports whether s is a known action item status.
func (s ActionItemStatus) Valid() bool {
	return s == ActionItemOpen || s == ActionItemCompleted
}

// ActionItem is a task extracted from a meeting transcript.
// AssigneeID is nil when the extracted name matched no user.
type ActionItem struct {
	ID           string
	MeetingID    string
	AssigneeID   *string
	AssigneeName *string
	Task         string
	DueDate      *time.Time
	Status       ActionItemStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AssignedActionItem is an action item joined with its meeting summary.
type AssignedActionItem struct {
	ActionItem
	MeetingTitle       string
	MeetingScheduledAt time.Time
}
