package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/meeting-service/internal/domain"
	"github.com/spec-kit/meeting-service/internal/events"
	"github.com/spec-kit/meeting-service/internal/extraction"
	"github.com/spec-kit/meeting-service/internal/persistence"
	"github.com/spec-kit/meeting-service/internal/repository"
	"github.com/spec-kit/meeting-service/pkg/util/errorutil"
)

// ActionExtractor abstracts the LLM extraction step.
type ActionExtractor interface {
	Extract(ctx context.Context, transcript string, candidates []string) ([]extraction.Item, error)
}

// ActionItemService turns transcripts into assigned action items.
type ActionItemService struct {
	meetings   repository.MeetingRepository
	users      repository.UserRepository
	extractor  ActionExtractor
	locker     persistence.Locker
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewActionItemService wires the service.
func NewActionItemService(
	meetings repository.MeetingRepository,
	users repository.UserRepository,
	extractor ActionExtractor,
	locker persistence.Locker,
	dispatcher events.Dispatcher,
	logger *zap.Logger,
) *ActionItemService {
	if locker == nil {
		locker = persistence.NewLocalLocker()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActionItemService{
		meetings:   meetings,
		users:      users,
		extractor:  extractor,
		locker:     locker,
		dispatcher: dispatcher,
		logger:     logger.With(zap.String("component", "action_items")),
	}
}

// ProcessTranscription extracts action items from transcript, or from the
// stored transcript when transcript is blank, and replaces the meeting's items.
func (s *ActionItemService) ProcessTranscription(ctx context.Context, meetingID string, caller *domain.User, transcript string) ([]domain.ActionItem, error) {
	unlock, err := s.locker.Lock(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	meeting, err := s.loadMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if !meeting.IsHost(caller.ID) {
		return nil, errorutil.NewForbidden("only the meeting host can process the transcription")
	}

	text := strings.TrimSpace(transcript)
	if text == "" {
		text = strings.TrimSpace(meeting.TranscriptText())
	}
	if text == "" {
		return nil, errorutil.NewValidationError("no transcript available to process",
			map[string]any{"transcript": "is required when the meeting has no stored transcript"})
	}

	participants, err := s.users.ListByIDs(ctx, meeting.ParticipantIDs())
	if err != nil {
		return nil, err
	}
	candidates := candidateNames(participants)

	extracted, err := s.extractor.Extract(ctx, text, candidates)
	if err != nil {
		return nil, err
	}

	items := make([]domain.ActionItem, 0, len(extracted))
	unassigned := 0
	for _, e := range extracted {
		item := domain.ActionItem{
			ID:        uuid.NewString(),
			MeetingID: meeting.ID,
			Task:      e.Task,
			DueDate:   e.DueDate,
			Status:    domain.ActionItemOpen,
		}
		if e.Assignee != nil {
			name := *e.Assignee
			item.AssigneeName = &name
			item.AssigneeID, err = s.assigneeFor(ctx, name, participants)
			if err != nil {
				return nil, err
			}
		}
		if item.AssigneeID == nil {
			unassigned++
		}
		items = append(items, item)
	}

	if err := s.meetings.ReplaceActionItems(ctx, meeting.ID, items); err != nil {
		return nil, err
	}

	s.logger.Info("action items stored",
		zap.String("meeting_id", meeting.ID),
		zap.Int("count", len(items)),
		zap.Int("unassigned", unassigned))
	s.publish(ctx, events.Event{
		Type:      events.EventActionItemsExtracted,
		MeetingID: meeting.ID,
		ActorID:   caller.ID,
		Payload:   events.ActionItemsExtractedPayload{Count: len(items), Unassigned: unassigned},
	})
	return items, nil
}

// ListForUser returns open items assigned to userID. The caller must be that
// user or their manager.
func (s *ActionItemService) ListForUser(ctx context.Context, caller *domain.User, userID string) ([]domain.AssignedActionItem, error) {
	if caller.ID != userID {
		target, err := s.users.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, errorutil.NewNotFound("user", map[string]any{"userId": userID})
			}
			return nil, err
		}
		if target.ManagerID == nil || *target.ManagerID != caller.ID {
			return nil, errorutil.NewForbidden("you can only view your own or your staff's action items")
		}
	}

	items, err := s.meetings.ListOpenActionItemsByAssignee(ctx, userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.AssignedActionItem{}
	}
	return items, nil
}

// UpdateStatus sets an item's status. Only the meeting host or the assignee may.
func (s *ActionItemService) UpdateStatus(ctx context.Context, caller *domain.User, meetingID, itemID string, status domain.ActionItemStatus) (*domain.ActionItem, error) {
	if !status.Valid() {
		return nil, errorutil.NewValidationError("invalid action item status",
			map[string]any{"status": "must be open or completed"})
	}

	unlock, err := s.locker.Lock(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	meeting, err := s.loadMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	item := meeting.ActionItem(itemID)
	if item == nil {
		return nil, errorutil.NewNotFound("action item", map[string]any{"actionItemId": itemID})
	}
	assignee := item.AssigneeID != nil && *item.AssigneeID == caller.ID
	if !meeting.IsHost(caller.ID) && !assignee {
		return nil, errorutil.NewForbidden("only the meeting host or the assignee can update this action item")
	}

	if err := s.meetings.UpdateActionItemStatus(ctx, meeting.ID, item.ID, status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewNotFound("action item", map[string]any{"actionItemId": itemID})
		}
		return nil, err
	}
	item.Status = status

	s.publish(ctx, events.Event{
		Type:      events.EventActionItemStatusSet,
		MeetingID: meeting.ID,
		ActorID:   caller.ID,
		Payload:   events.ActionItemStatusSetPayload{ActionItemID: item.ID, Status: status},
	})
	out := *item
	return &out, nil
}

func (s *ActionItemService) loadMeeting(ctx context.Context, meetingID string) (*domain.Meeting, error) {
	if _, err := uuid.Parse(meetingID); err != nil {
		return nil, errorutil.NewNotFound("meeting", map[string]any{"meetingId": meetingID})
	}
	meeting, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewNotFound("meeting", map[string]any{"meetingId": meetingID})
		}
		return nil, err
	}
	return meeting, nil
}

func (s *ActionItemService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

func candidateNames(users []domain.User) []string {
	names := make([]string, 0, len(users))
	for i := range users {
		names = append(names, users[i].DisplayName())
	}
	return names
}

// assigneeFor resolves name among the participants first, then across all
// active users. Unknown names stay unassigned.
func (s *ActionItemService) assigneeFor(ctx context.Context, name string, participants []domain.User) (*string, error) {
	if id := resolveAssignee(name, participants); id != nil {
		return id, nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	user, err := s.users.FindActiveByName(ctx, name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errorutil.NewInternalError(fmt.Errorf("resolve assignee: %w", err))
	}
	id := user.ID
	return &id, nil
}

// resolveAssignee matches name exactly against full names, then usernames.
func resolveAssignee(name string, users []domain.User) *string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	for _, u := range users {
		if u.FullName == name {
			id := u.ID
			return &id
		}
	}
	for _, u := range users {
		if u.Username == name {
			id := u.ID
			return &id
		}
	}
	return nil
}
