package domain

import (
	"strings"
	"time"
)

// MeetingStatus enumerates lifecycle states for meetings.
type MeetingStatus string

const (
	MeetingStatusScheduled MeetingStatus = "scheduled"
	MeetingStatusOngoing   MeetingStatus = "ongoing"
	MeetingStatusCompleted MeetingStatus = "completed"
	MeetingStatusCancelled MeetingStatus = "cancelled"
)

// Valid reports whether s is a known meeting status.
func (s MeetingStatus) Valid() bool {
	switch s {
	case MeetingStatusScheduled, MeetingStatusOngoing, MeetingStatusCompleted, MeetingStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s MeetingStatus) Terminal() bool {
	return s == MeetingStatusCompleted || s == MeetingStatusCancelled
}

// Ongoing meetings may still be cancelled.
var allowedTransitions = map[MeetingStatus][]MeetingStatus{
	MeetingStatusScheduled: {MeetingStatusOngoing, MeetingStatusCancelled},
	MeetingStatusOngoing:   {MeetingStatusCompleted, MeetingStatusCancelled},
	MeetingStatusCompleted: {},
	MeetingStatusCancelled: {},
}

// CanTransition reports whether the state machine permits current -> next.
func CanTransition(current, next MeetingStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParticipantStatus tracks a participant's response and attendance.
type ParticipantStatus string

const (
	ParticipantInvited  ParticipantStatus = "invited"
	ParticipantAccepted ParticipantStatus = "accepted"
	ParticipantDeclined ParticipantStatus = "declined"
	ParticipantAttended ParticipantStatus = "attended"
	ParticipantAbsent   ParticipantStatus = "absent"
)

// IsResponse reports whether s is a status a participant may set themselves.
func (s ParticipantStatus) IsResponse() bool {
	return s == ParticipantAccepted || s == ParticipantDeclined
}

// Meeting duration bounds in minutes.
const (
	MinDurationMinutes = 15
	MaxDurationMinutes = 480
)

// Field length limits.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
	MaxNotesLength       = 2000
)

// Participant is a staff member invited to a meeting, keyed by UserID.
type Participant struct {
	UserID   string
	Status   ParticipantStatus
	JoinedAt *time.Time
	LeftAt   *time.Time
}

// RecurrenceFrequency enumerates recurrence units.
type RecurrenceFrequency string

const (
	RecurrenceDaily   RecurrenceFrequency = "daily"
	RecurrenceWeekly  RecurrenceFrequency = "weekly"
	RecurrenceMonthly RecurrenceFrequency = "monthly"
)

// RecurringPattern is stored with the meeting; nothing expands it.
type RecurringPattern struct {
	Frequency RecurrenceFrequency `json:"frequency"`
	Interval  int                 `json:"interval"`
	EndDate   *time.Time          `json:"end_date,omitempty"`
}

// TranscriptSegment is one canonical speaker turn.
type TranscriptSegment struct {
	SpeakerName string `json:"speaker_name"`
	Text        string `json:"text"`
}

// Meeting is the aggregate for scheduled meetings.
type Meeting struct {
	ID                      string
	ExternalID              *string
	Title                   string
	Description             string
	HostID                  string
	Participants            []Participant
	MeetingLink             string
	ScheduledAt             time.Time
	DurationMinutes         int
	Timezone                string
	Status                  MeetingStatus
	ActualStartTime         *time.Time
	ActualEndTime           *time.Time
	Notes                   string
	IsRecurring             bool
	RecurringPattern        *RecurringPattern
	EmailSent               bool
	Transcript              []TranscriptSegment
	TranscriptionBotID      *string
	TranscriptionBotStarted bool
	ActionItems             []ActionItem
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// ScheduledEnd is the scheduled start plus duration.
func (m *Meeting) ScheduledEnd() time.Time {
	return m.ScheduledAt.Add(time.Duration(m.DurationMinutes) * time.Minute)
}

// IsHost reports whether userID hosts the meeting.
func (m *Meeting) IsHost(userID string) bool {
	return m.HostID == userID
}

// Participant returns the participant entry for userID, or nil.
func (m *Meeting) Participant(userID string) *Participant {
	for i := range m.Participants {
		if m.Participants[i].UserID == userID {
			return &m.Participants[i]
		}
	}
	return nil
}

// CanView reports whether userID is the host or a participant.
func (m *Meeting) CanView(userID string) bool {
	return m.IsHost(userID) || m.Participant(userID) != nil
}

// ParticipantIDs returns participant user ids in roster order.
func (m *Meeting) ParticipantIDs() []string {
	ids := make([]string, 0, len(m.Participants))
	for _, p := range m.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}

// SetParticipantStatus updates one participant and stamps attendance times.
func (m *Meeting) SetParticipantStatus(userID string, status ParticipantStatus, at time.Time) bool {
	p := m.Participant(userID)
	if p == nil {
		return false
	}
	p.Status = status
	switch status {
	case ParticipantAttended:
		p.JoinedAt = &at
	case ParticipantAbsent:
		p.LeftAt = &at
	}
	return true
}

// ActionItem returns the action item with id, or nil.
func (m *Meeting) ActionItem(id string) *ActionItem {
	for i := range m.ActionItems {
		if m.ActionItems[i].ID == id {
			return &m.ActionItems[i]
		}
	}
	return nil
}

// HasTranscript reports whether a non-empty transcript is stored.
func (m *Meeting) HasTranscript() bool {
	return len(m.Transcript) > 0
}

// TranscriptText renders the stored transcript as "Speaker: text" lines.
func (m *Meeting) TranscriptText() string {
	return RenderTranscript(m.Transcript)
}

// RenderTranscript renders segments as "Speaker: text" lines.
func RenderTranscript(segments []TranscriptSegment) string {
	var b strings.Builder
	for _, seg := range segments {
		if seg.SpeakerName != "" {
			b.WriteString(seg.SpeakerName)
			b.WriteString(": ")
		}
		b.WriteString(seg.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// NewParticipants builds an invited roster from user ids.
func NewParticipants(userIDs []string) []Participant {
	participants := make([]Participant, 0, len(userIDs))
	for _, id := range userIDs {
		participants = append(participants, Participant{UserID: id, Status: ParticipantInvited})
	}
	return participants
}
