package dto

import (
	"time"

	"github.com/spec-kit/meeting-service/internal/domain"
)

// RecurringPatternPayload is the wire form of a recurrence rule.
type RecurringPatternPayload struct {
	Frequency string     `json:"frequency"`
	Interval  int        `json:"interval"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

// CreateMeetingRequest payload for POST /meetings.
type CreateMeetingRequest struct {
	Title            string                   `json:"title"`
	Description      string                   `json:"description"`
	MeetingLink      string                   `json:"meetingLink"`
	ScheduledAt      *time.Time               `json:"scheduledAt"`
	Duration         int                      `json:"duration"`
	Timezone         string                   `json:"timezone"`
	Participants     []string                 `json:"participants"`
	Notes            string                   `json:"notes"`
	IsRecurring      bool                     `json:"isRecurring"`
	RecurringPattern *RecurringPatternPayload `json:"recurringPattern"`
}

// UpdateMeetingRequest payload for PATCH /meetings/:meetingId. Omitted
// fields are left unchanged.
type UpdateMeetingRequest struct {
	Title            *string                  `json:"title"`
	Description      *string                  `json:"description"`
	MeetingLink      *string                  `json:"meetingLink"`
	ScheduledAt      *time.Time               `json:"scheduledAt"`
	Duration         *int                     `json:"duration"`
	Timezone         *string                  `json:"timezone"`
	Participants     *[]string                `json:"participants"`
	Notes            *string                  `json:"notes"`
	IsRecurring      *bool                    `json:"isRecurring"`
	RecurringPattern *RecurringPatternPayload `json:"recurringPattern"`
}

type EndMeetingRequest struct {
	Notes *string `json:"notes"`
}

type CancelMeetingRequest struct {
	Reason string `json:"reason"`
}

type RespondRequest struct {
	Status string `json:"status"`
}

type ProcessTranscriptionRequest struct {
	Transcript string `json:"transcript"`
}

type ActionItemStatusRequest struct {
	Status string `json:"status"`
}

// UserSummary is the public projection of a user embedded in meetings.
type UserSummary struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Avatar     string `json:"avatar,omitempty"`
	Department string `json:"department,omitempty"`
	JobTitle   string `json:"jobTitle,omitempty"`
}

type ParticipantResponse struct {
	User     UserSummary `json:"user"`
	Status   string      `json:"status"`
	JoinedAt *time.Time  `json:"joinedAt,omitempty"`
	LeftAt   *time.Time  `json:"leftAt,omitempty"`
}

type ActionItemResponse struct {
	ID           string     `json:"id"`
	AssigneeID   *string    `json:"assigneeId"`
	AssigneeName *string    `json:"assigneeName"`
	Task         string     `json:"task"`
	DueDate      *time.Time `json:"dueDate"`
	Status       string     `json:"status"`
}

type TranscriptSegmentResponse struct {
	SpeakerName string `json:"speakerName"`
	Text        string `json:"text"`
}

// MeetingResponse is the full meeting representation.
type MeetingResponse struct {
	ID                      string                      `json:"id"`
	ExternalMeetingID       *string                     `json:"externalMeetingId"`
	Title                   string                      `json:"title"`
	Description             string                      `json:"description"`
	Host                    UserSummary                 `json:"host"`
	Participants            []ParticipantResponse       `json:"participants"`
	MeetingLink             string                      `json:"meetingLink"`
	ScheduledAt             time.Time                   `json:"scheduledAt"`
	Duration                int                         `json:"duration"`
	Timezone                string                      `json:"timezone"`
	Status                  string                      `json:"status"`
	ActualStartTime         *time.Time                  `json:"actualStartTime"`
	ActualEndTime           *time.Time                  `json:"actualEndTime"`
	Notes                   string                      `json:"notes"`
	IsRecurring             bool                        `json:"isRecurring"`
	RecurringPattern        *RecurringPatternPayload    `json:"recurringPattern,omitempty"`
	EmailSent               bool                        `json:"emailSent"`
	TranscriptionBotStarted bool                        `json:"transcriptionBotStarted"`
	Transcription           []TranscriptSegmentResponse `json:"transcription"`
	ActionItems             []ActionItemResponse        `json:"actionItems"`
	CreatedAt               time.Time                   `json:"createdAt"`
	UpdatedAt               time.Time                   `json:"updatedAt"`
}

// AssignedActionItemResponse is an open item with its meeting summary.
type AssignedActionItemResponse struct {
	ActionItemResponse
	Meeting struct {
		ID          string    `json:"id"`
		Title       string    `json:"title"`
		ScheduledAt time.Time `json:"scheduledAt"`
	} `json:"meeting"`
}

// ToRecurringPattern converts the payload to its domain form.
func (p *RecurringPatternPayload) ToRecurringPattern() *domain.RecurringPattern {
	if p == nil {
		return nil
	}
	return &domain.RecurringPattern{
		Frequency: domain.RecurrenceFrequency(p.Frequency),
		Interval:  p.Interval,
		EndDate:   p.EndDate,
	}
}

// NewUserSummary projects a user; unknown ids keep only the id.
func NewUserSummary(id string, users map[string]domain.User) UserSummary {
	u, ok := users[id]
	if !ok {
		return UserSummary{ID: id}
	}
	return UserSummary{
		ID:         u.ID,
		Username:   u.Username,
		FullName:   u.FullName,
		Email:      u.Email,
		Avatar:     u.AvatarURL,
		Department: u.Department,
		JobTitle:   u.JobTitle,
	}
}

// NewMeetingResponse renders a meeting with users resolved from users.
func NewMeetingResponse(m *domain.Meeting, users map[string]domain.User) MeetingResponse {
	resp := MeetingResponse{
		ID:                      m.ID,
		ExternalMeetingID:       m.ExternalID,
		Title:                   m.Title,
		Description:             m.Description,
		Host:                    NewUserSummary(m.HostID, users),
		Participants:            make([]ParticipantResponse, 0, len(m.Participants)),
		MeetingLink:             m.MeetingLink,
		ScheduledAt:             m.ScheduledAt,
		Duration:                m.DurationMinutes,
		Timezone:                m.Timezone,
		Status:                  string(m.Status),
		ActualStartTime:         m.ActualStartTime,
		ActualEndTime:           m.ActualEndTime,
		Notes:                   m.Notes,
		IsRecurring:             m.IsRecurring,
		EmailSent:               m.EmailSent,
		TranscriptionBotStarted: m.TranscriptionBotStarted,
		Transcription:           NewTranscriptResponse(m.Transcript),
		ActionItems:             make([]ActionItemResponse, 0, len(m.ActionItems)),
		CreatedAt:               m.CreatedAt,
		UpdatedAt:               m.UpdatedAt,
	}
	if m.RecurringPattern != nil {
		resp.RecurringPattern = &RecurringPatternPayload{
			Frequency: string(m.RecurringPattern.Frequency),
			Interval:  m.RecurringPattern.Interval,
			EndDate:   m.RecurringPattern.EndDate,
		}
	}
	for _, p := range m.Participants {
		resp.Participants = append(resp.Participants, ParticipantResponse{
			User:     NewUserSummary(p.UserID, users),
			Status:   string(p.Status),
			JoinedAt: p.JoinedAt,
			LeftAt:   p.LeftAt,
		})
	}
	for _, item := range m.ActionItems {
		resp.ActionItems = append(resp.ActionItems, NewActionItemResponse(item))
	}
	return resp
}

func NewActionItemResponse(item domain.ActionItem) ActionItemResponse {
	return ActionItemResponse{
		ID:           item.ID,
		AssigneeID:   item.AssigneeID,
		AssigneeName: item.AssigneeName,
		Task:         item.Task,
		DueDate:      item.DueDate,
		Status:       string(item.Status),
	}
}

func NewAssignedActionItemResponse(item domain.AssignedActionItem) AssignedActionItemResponse {
	resp := AssignedActionItemResponse{ActionItemResponse: NewActionItemResponse(item.ActionItem)}
	resp.Meeting.ID = item.MeetingID
	resp.Meeting.Title = item.MeetingTitle
	resp.Meeting.ScheduledAt = item.MeetingScheduledAt
	return resp
}

func NewTranscriptResponse(segments []domain.TranscriptSegment) []TranscriptSegmentResponse {
	out := make([]TranscriptSegmentResponse, 0, len(segments))
	for _, s := range segments {
		out = append(out, TranscriptSegmentResponse{SpeakerName: s.SpeakerName, Text: s.Text})
	}
	return out
}
