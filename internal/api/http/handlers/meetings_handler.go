package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/meeting-service/internal/api/dto"
	"github.com/spec-kit/meeting-service/internal/domain"
	"github.com/spec-kit/meeting-service/internal/service"
	apperrors "github.com/spec-kit/meeting-service/pkg/util/errorutil"
)

// MeetingsHandler manages meeting endpoints.
type MeetingsHandler struct {
	meetings *service.MeetingService
	actions  *service.ActionItemService
}

// NewMeetingsHandler constructs handler.
func NewMeetingsHandler(meetings *service.MeetingService, actions *service.ActionItemService) *MeetingsHandler {
	return &MeetingsHandler{meetings: meetings, actions: actions}
}

// Create POST /meetings.
func (h *MeetingsHandler) Create(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateMeetingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	view, err := h.meetings.Create(c.UserContext(), user, service.MeetingCreateInput{
		Title:            req.Title,
		Description:      req.Description,
		MeetingLink:      req.MeetingLink,
		ScheduledAt:      req.ScheduledAt,
		DurationMinutes:  req.Duration,
		Timezone:         req.Timezone,
		ParticipantIDs:   req.Participants,
		Notes:            req.Notes,
		IsRecurring:      req.IsRecurring,
		RecurringPattern: req.RecurringPattern.ToRecurringPattern(),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": meetingResponse(view)})
}

// List GET /meetings?status=&upcoming=true.
func (h *MeetingsHandler) List(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	filter := service.MeetingListFilter{Upcoming: c.QueryBool("upcoming", false)}
	if raw := c.Query("status"); raw != "" {
		status := domain.MeetingStatus(raw)
		if !status.Valid() {
			return apperrors.NewValidationError("invalid status filter", map[string]any{"status": raw})
		}
		filter.Status = &status
	}

	views, err := h.meetings.List(c.UserContext(), user, filter)
	if err != nil {
		return err
	}
	out := make([]dto.MeetingResponse, 0, len(views))
	for i := range views {
		out = append(out, meetingResponse(&views[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// Get GET /meetings/:meetingId.
func (h *MeetingsHandler) Get(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	view, err := h.meetings.Get(c.UserContext(), c.Params("meetingId"), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": meetingResponse(view)})
}

// Update PATCH /meetings/:meetingId.
func (h *MeetingsHandler) Update(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateMeetingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	view, err := h.meetings.Update(c.UserContext(), c.Params("meetingId"), user, service.MeetingPatch{
		Title:            req.Title,
		Description:      req.Description,
		MeetingLink:      req.MeetingLink,
		ScheduledAt:      req.ScheduledAt,
		DurationMinutes:  req.Duration,
		Timezone:         req.Timezone,
		ParticipantIDs:   req.Participants,
		Notes:            req.Notes,
		IsRecurring:      req.IsRecurring,
		RecurringPattern: req.RecurringPattern.ToRecurringPattern(),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": meetingResponse(view)})
}

// Start POST /meetings/:meetingId/start.
func (h *MeetingsHandler) Start(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	view, err := h.meetings.Start(c.UserContext(), c.Params("meetingId"), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": meetingResponse(view)})
}

// End POST /meetings/:meetingId/end.
func (h *MeetingsHandler) End(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.EndMeetingRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	result, err := h.meetings.End(c.UserContext(), c.Params("meetingId"), user, req.Notes)
	if err != nil {
		return err
	}
	transcription := "no transcription available"
	if result.TranscriptAvailable {
		transcription = "transcription available"
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"meeting":       meetingResponse(result.View),
		"transcription": transcription,
	}})
}

// Cancel POST /meetings/:meetingId/cancel.
func (h *MeetingsHandler) Cancel(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CancelMeetingRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	view, err := h.meetings.Cancel(c.UserContext(), c.Params("meetingId"), user, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": meetingResponse(view)})
}

// Respond PATCH /meetings/:meetingId/respond.
func (h *MeetingsHandler) Respond(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.RespondRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	view, err := h.meetings.Respond(c.UserContext(), c.Params("meetingId"), user, domain.ParticipantStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": meetingResponse(view)})
}

// Transcription GET /meetings/:meetingId/transcription, keyed by the
// external meeting id.
func (h *MeetingsHandler) Transcription(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	segments, err := h.meetings.FetchTranscription(c.UserContext(), c.Params("meetingId"), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTranscriptResponse(segments)})
}

// AvailableStaff GET /meetings/staff/available.
func (h *MeetingsHandler) AvailableStaff(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	staff, err := h.meetings.AvailableStaff(c.UserContext(), user)
	if err != nil {
		return err
	}
	users := make(map[string]domain.User, len(staff))
	out := make([]dto.UserSummary, 0, len(staff))
	for _, s := range staff {
		users[s.ID] = s
		out = append(out, dto.NewUserSummary(s.ID, users))
	}
	return c.JSON(fiber.Map{"data": out})
}

// ProcessTranscription POST /meetings/:meetingId/process-transcription.
func (h *MeetingsHandler) ProcessTranscription(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ProcessTranscriptionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	items, err := h.actions.ProcessTranscription(c.UserContext(), c.Params("meetingId"), user, req.Transcript)
	if err != nil {
		return err
	}
	out := make([]dto.ActionItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, dto.NewActionItemResponse(item))
	}
	return c.JSON(fiber.Map{"data": out})
}

// UpdateActionItem PATCH /meetings/:meetingId/action-items/:actionItemId.
func (h *MeetingsHandler) UpdateActionItem(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ActionItemStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	item, err := h.actions.UpdateStatus(c.UserContext(), user, c.Params("meetingId"), c.Params("actionItemId"),
		domain.ActionItemStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewActionItemResponse(*item)})
}

func meetingResponse(view *service.MeetingView) dto.MeetingResponse {
	return dto.NewMeetingResponse(view.Meeting, view.Users)
}
