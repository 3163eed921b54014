package events

import (
	"time"

	"github.com/spec-kit/meeting-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventMeetingCreated       EventType = "meeting_created"
	EventMeetingStatusChanged EventType = "meeting_status_changed"
	EventMeetingUpdated       EventType = "meeting_updated"
	EventParticipantResponded EventType = "participant_responded"
	EventActionItemsExtracted EventType = "action_items_extracted"
	EventActionItemStatusSet  EventType = "action_item_status_set"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	MeetingID string      `json:"meeting_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// MeetingCreatedPayload payload.
type MeetingCreatedPayload struct {
	Title        string    `json:"title"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	Participants int       `json:"participants"`
}

// MeetingStatusChangedPayload payload.
type MeetingStatusChangedPayload struct {
	OldStatus           domain.MeetingStatus `json:"old_status"`
	NewStatus           domain.MeetingStatus `json:"new_status"`
	Reason              string               `json:"reason,omitempty"`
	TranscriptAvailable bool                 `json:"transcript_available,omitempty"`
}

// MeetingUpdatedPayload payload.
type MeetingUpdatedPayload struct {
	Fields []string `json:"fields"`
}

// ParticipantRespondedPayload payload.
type ParticipantRespondedPayload struct {
	Status domain.ParticipantStatus `json:"status"`
}

// ActionItemsExtractedPayload payload.
type ActionItemsExtractedPayload struct {
	Count      int `json:"count"`
	Unassigned int `json:"unassigned"`
}

// ActionItemStatusSetPayload payload.
type ActionItemStatusSetPayload struct {
	ActionItemID string                  `json:"action_item_id"`
	Status       domain.ActionItemStatus `json:"status"`
}
