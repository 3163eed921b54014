package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/meeting-service/internal/domain"
	"github.com/spec-kit/meeting-service/internal/events"
	"github.com/spec-kit/meeting-service/internal/persistence"
	"github.com/spec-kit/meeting-service/internal/repository"
	"github.com/spec-kit/meeting-service/internal/transcription"
	"github.com/spec-kit/meeting-service/pkg/util/errorutil"
)

// BackgroundRunner schedules a task that must outlive the request.
type BackgroundRunner func(ctx context.Context, task func(context.Context))

// GoRunner runs task on a new goroutine with a context detached from
// request cancellation.
func GoRunner(ctx context.Context, task func(context.Context)) {
	detached := context.WithoutCancel(ctx)
	go task(detached)
}

// MeetingService is the meeting lifecycle engine. It is the only writer of
// meeting status and lifecycle timestamps.
type MeetingService struct {
	meetings   repository.MeetingRepository
	users      repository.UserRepository
	gateway    transcription.Gateway
	notifier   Notifier
	locker     persistence.Locker
	dispatcher events.Dispatcher
	logger     *zap.Logger
	botName    string
	now        func() time.Time
	runner     BackgroundRunner
}

// MeetingDependencies bundles collaborators for the meeting service.
type MeetingDependencies struct {
	MeetingRepo repository.MeetingRepository
	UserRepo    repository.UserRepository
	Gateway     transcription.Gateway
	Notifier    Notifier
	Locker      persistence.Locker
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	BotName     string
	Clock       func() time.Time
	Runner      BackgroundRunner
}

// NewMeetingService constructs the service.
func NewMeetingService(deps MeetingDependencies) *MeetingService {
	s := &MeetingService{
		meetings:   deps.MeetingRepo,
		users:      deps.UserRepo,
		gateway:    deps.Gateway,
		notifier:   deps.Notifier,
		locker:     deps.Locker,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		botName:    deps.BotName,
		now:        deps.Clock,
		runner:     deps.Runner,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.With(zap.String("component", "meetings"))
	if s.locker == nil {
		s.locker = persistence.NewLocalLocker()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.runner == nil {
		s.runner = GoRunner
	}
	if s.botName == "" {
		s.botName = "MeetingActionTracker"
	}
	return s
}

// MeetingCreateInput describes meeting creation payload.
type MeetingCreateInput struct {
	Title            string
	Description      string
	MeetingLink      string
	ScheduledAt      *time.Time
	DurationMinutes  int
	Timezone         string
	ParticipantIDs   []string
	Notes            string
	IsRecurring      bool
	RecurringPattern *domain.RecurringPattern
}

// MeetingPatch carries optional updates; nil fields are left unchanged.
type MeetingPatch struct {
	Title            *string
	Description      *string
	MeetingLink      *string
	ScheduledAt      *time.Time
	DurationMinutes  *int
	Timezone         *string
	ParticipantIDs   *[]string
	Notes            *string
	IsRecurring      *bool
	RecurringPattern *domain.RecurringPattern
}

// MeetingListFilter narrows List.
type MeetingListFilter struct {
	Status   *domain.MeetingStatus
	Upcoming bool
}

// MeetingView is a meeting with its host and participants resolved.
type MeetingView struct {
	Meeting *domain.Meeting
	Users   map[string]domain.User
}

// EndResult reports whether a transcript was captured when the meeting ended.
type EndResult struct {
	View                *MeetingView
	TranscriptAvailable bool
}

// Create schedules a meeting. Bot start and invitations run in the background
// and never fail the call.
func (s *MeetingService) Create(ctx context.Context, host *domain.User, input MeetingCreateInput) (*MeetingView, error) {
	if !host.IsManager() {
		return nil, errorutil.NewForbidden("only managers can create meetings")
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.MeetingLink = strings.TrimSpace(input.MeetingLink)

	now := s.now()
	fields := fieldErrors{}
	if input.Title == "" {
		fields.add("title", "is required")
	}
	if input.Description == "" {
		fields.add("description", "is required")
	}
	if input.MeetingLink == "" {
		fields.add("meetingLink", "is required")
	} else if !validLink(input.MeetingLink) {
		fields.add("meetingLink", "must be an http or https URL")
	}
	if input.ScheduledAt == nil {
		fields.add("scheduledAt", "is required")
	} else {
		validateSchedule(fields, *input.ScheduledAt, now)
	}
	if input.DurationMinutes == 0 {
		fields.add("duration", "is required")
	} else {
		validateDuration(fields, input.DurationMinutes)
	}
	fields.maxLen("title", input.Title, domain.MaxTitleLength)
	fields.maxLen("description", input.Description, domain.MaxDescriptionLength)
	fields.maxLen("notes", input.Notes, domain.MaxNotesLength)
	if input.Timezone != "" && !validTimezone(input.Timezone) {
		fields.add("timezone", "is not a known timezone")
	}
	validateRecurrence(fields, input.IsRecurring, input.RecurringPattern)
	if err := fields.err(); err != nil {
		return nil, err
	}

	participants, err := s.validateRoster(ctx, host.ID, input.ParticipantIDs)
	if err != nil {
		return nil, err
	}

	timezone := input.Timezone
	if timezone == "" {
		timezone = host.Timezone
	}
	if timezone == "" {
		timezone = "UTC"
	}

	meeting := &domain.Meeting{
		ExternalID:      s.gateway.ExternalID(input.MeetingLink),
		Title:           input.Title,
		Description:     input.Description,
		HostID:          host.ID,
		Participants:    domain.NewParticipants(userIDs(participants)),
		MeetingLink:     input.MeetingLink,
		ScheduledAt:     input.ScheduledAt.UTC(),
		DurationMinutes: input.DurationMinutes,
		Timezone:        timezone,
		Status:          domain.MeetingStatusScheduled,
		Notes:           input.Notes,
		IsRecurring:     input.IsRecurring,
		Transcript:      []domain.TranscriptSegment{},
	}
	if input.IsRecurring {
		meeting.RecurringPattern = input.RecurringPattern
	}

	if err := s.meetings.Create(ctx, meeting); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventMeetingCreated,
		MeetingID: meeting.ID,
		ActorID:   host.ID,
		Payload: events.MeetingCreatedPayload{
			Title:        meeting.Title,
			ScheduledAt:  meeting.ScheduledAt,
			Participants: len(participants),
		},
	})

	snapshot := *meeting
	hostCopy := *host
	s.runner(ctx, func(bg context.Context) {
		s.afterCreate(bg, &snapshot, &hostCopy, participants)
	})

	return s.view(meeting, host, participants), nil
}

// afterCreate starts the transcription bot and sends invitations.
func (s *MeetingService) afterCreate(ctx context.Context, meeting *domain.Meeting, host *domain.User, participants []domain.User) {
	log := s.logger.With(zap.String("meeting_id", meeting.ID))

	bot := s.gateway.StartBot(ctx, meeting.MeetingLink, s.botName)
	switch {
	case bot.Err != nil:
		log.Warn("transcription bot not started", zap.Error(bot.Err))
	case bot.Started:
		botID := bot.BotID
		if err := s.meetings.SetTranscriptionBot(ctx, meeting.ID, &botID, true); err != nil {
			log.Error("persist transcription bot", zap.Error(err))
		}
	}

	if len(participants) == 0 {
		return
	}
	result := s.notifier.SendInvitations(ctx, meeting, host, participants)
	if !result.OK() {
		log.Warn("invitations not fully delivered",
			zap.Int("sent", result.Sent),
			zap.Int("failed", result.Failed),
			zap.Error(result.Err))
		return
	}
	if err := s.meetings.SetEmailSent(ctx, meeting.ID); err != nil {
		log.Error("persist email sent flag", zap.Error(err))
	}
}

// List returns meetings hosted by a manager or joined by a staff member,
// ordered by scheduled time.
func (s *MeetingService) List(ctx context.Context, caller *domain.User, filter MeetingListFilter) ([]MeetingView, error) {
	repoFilter := repository.MeetingFilter{Status: filter.Status}
	if caller.IsManager() {
		repoFilter.HostID = &caller.ID
	} else {
		repoFilter.ParticipantID = &caller.ID
	}
	if filter.Upcoming {
		now := s.now()
		repoFilter.From = &now
		repoFilter.ExcludeStatus = []domain.MeetingStatus{domain.MeetingStatusCancelled}
	}

	meetings, err := s.meetings.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, m := range meetings {
		ids = append(ids, m.HostID)
		ids = append(ids, m.ParticipantIDs()...)
	}
	users, err := s.userMap(ctx, dedupe(ids))
	if err != nil {
		return nil, err
	}

	views := make([]MeetingView, 0, len(meetings))
	for i := range meetings {
		views = append(views, MeetingView{Meeting: &meetings[i], Users: users})
	}
	return views, nil
}

// Get returns a meeting visible to the caller.
func (s *MeetingService) Get(ctx context.Context, meetingID string, caller *domain.User) (*MeetingView, error) {
	meeting, err := s.load(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if !meeting.CanView(caller.ID) {
		return nil, errorutil.NewForbidden("you do not have access to this meeting")
	}
	return s.resolve(ctx, meeting)
}

// Update applies a patch to a scheduled or ongoing meeting.
func (s *MeetingService) Update(ctx context.Context, meetingID string, caller *domain.User, patch MeetingPatch) (*MeetingView, error) {
	unlock, err := s.locker.Lock(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	meeting, err := s.load(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if !meeting.IsHost(caller.ID) {
		return nil, errorutil.NewForbidden("only the meeting host can update the meeting")
	}
	if meeting.Status.Terminal() {
		return nil, errorutil.NewInvalidState("cannot update a completed or cancelled meeting",
			map[string]any{"status": meeting.Status})
	}

	fields := fieldErrors{}
	var changed []string

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			fields.add("title", "cannot be empty")
		}
		fields.maxLen("title", title, domain.MaxTitleLength)
		meeting.Title = title
		changed = append(changed, "title")
	}
	if patch.Description != nil {
		desc := strings.TrimSpace(*patch.Description)
		if desc == "" {
			fields.add("description", "cannot be empty")
		}
		fields.maxLen("description", desc, domain.MaxDescriptionLength)
		meeting.Description = desc
		changed = append(changed, "description")
	}
	if patch.MeetingLink != nil {
		link := strings.TrimSpace(*patch.MeetingLink)
		if meeting.TranscriptionBotStarted && link != meeting.MeetingLink {
			return nil, errorutil.NewInvalidState("cannot change the meeting link while a transcription bot is attached",
				map[string]any{"meetingLink": meeting.MeetingLink})
		}
		if !validLink(link) {
			fields.add("meetingLink", "must be an http or https URL")
		}
		meeting.MeetingLink = link
		meeting.ExternalID = s.gateway.ExternalID(link)
		changed = append(changed, "meetingLink")
	}
	if patch.ScheduledAt != nil {
		validateSchedule(fields, *patch.ScheduledAt, s.now())
		meeting.ScheduledAt = patch.ScheduledAt.UTC()
		changed = append(changed, "scheduledAt")
	}
	if patch.DurationMinutes != nil {
		validateDuration(fields, *patch.DurationMinutes)
		meeting.DurationMinutes = *patch.DurationMinutes
		changed = append(changed, "duration")
	}
	if patch.Timezone != nil {
		if !validTimezone(*patch.Timezone) {
			fields.add("timezone", "is not a known timezone")
		}
		meeting.Timezone = *patch.Timezone
		changed = append(changed, "timezone")
	}
	if patch.Notes != nil {
		fields.maxLen("notes", *patch.Notes, domain.MaxNotesLength)
		meeting.Notes = *patch.Notes
		changed = append(changed, "notes")
	}
	if patch.IsRecurring != nil {
		meeting.IsRecurring = *patch.IsRecurring
		changed = append(changed, "isRecurring")
	}
	if patch.RecurringPattern != nil {
		meeting.RecurringPattern = patch.RecurringPattern
		changed = append(changed, "recurringPattern")
	}
	if !meeting.IsRecurring {
		meeting.RecurringPattern = nil
	}
	validateRecurrence(fields, meeting.IsRecurring, meeting.RecurringPattern)
	if err := fields.err(); err != nil {
		return nil, err
	}

	if patch.ParticipantIDs != nil {
		participants, err := s.validateRoster(ctx, caller.ID, *patch.ParticipantIDs)
		if err != nil {
			return nil, err
		}
		meeting.Participants = mergeRoster(meeting.Participants, userIDs(participants))
		changed = append(changed, "participants")
	}

	if err := s.meetings.Update(ctx, meeting); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventMeetingUpdated,
		MeetingID: meeting.ID,
		ActorID:   caller.ID,
		Payload:   events.MeetingUpdatedPayload{Fields: changed},
	})
	return s.resolve(ctx, meeting)
}

// Cancel cancels a scheduled or ongoing meeting and notifies participants.
func (s *MeetingService) Cancel(ctx context.Context, meetingID string, caller *domain.User, reason string) (*MeetingView, error) {
	unlock, err := s.locker.Lock(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	meeting, err := s.load(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	// Terminal meetings report InvalidState to every caller, hosts or not.
	if meeting.Status.Terminal() {
		return nil, errorutil.NewInvalidState("cannot cancel completed or already cancelled meetings",
			map[string]any{"status": meeting.Status})
	}
	if !meeting.IsHost(caller.ID) {
		return nil, errorutil.NewForbidden("only the meeting host can cancel the meeting")
	}

	if err := s.transition(ctx, meeting, caller, domain.MeetingStatusCancelled, reason, false); err != nil {
		return nil, err
	}

	view, err := s.resolve(ctx, meeting)
	if err != nil {
		return nil, err
	}

	if len(meeting.Participants) > 0 {
		participants := viewParticipants(view)
		snapshot := *meeting
		hostCopy := *caller
		s.runner(ctx, func(bg context.Context) {
			result := s.notifier.SendCancellation(bg, &snapshot, &hostCopy, participants, reason)
			if !result.OK() {
				s.logger.Warn("cancellation emails not fully delivered",
					zap.String("meeting_id", snapshot.ID),
					zap.Int("sent", result.Sent),
					zap.Int("failed", result.Failed),
					zap.Error(result.Err))
			}
		})
	}
	return view, nil
}

// Start moves a scheduled meeting to ongoing.
func (s *MeetingService) Start(ctx context.Context, meetingID string, caller *domain.User) (*MeetingView, error) {
	unlock, err := s.locker.Lock(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	meeting, err := s.load(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if !meeting.IsHost(caller.ID) {
		return nil, errorutil.NewForbidden("only the meeting host can start the meeting")
	}
	if meeting.Status != domain.MeetingStatusScheduled {
		return nil, errorutil.NewInvalidState("only scheduled meetings can be started",
			map[string]any{"status": meeting.Status})
	}

	now := s.now()
	meeting.ActualStartTime = &now
	if err := s.transition(ctx, meeting, caller, domain.MeetingStatusOngoing, "", false); err != nil {
		return nil, err
	}
	return s.resolve(ctx, meeting)
}

// End completes an ongoing meeting. When a bot was started the transcript is
// fetched, stored and the bot torn down; gateway failures are logged only.
func (s *MeetingService) End(ctx context.Context, meetingID string, caller *domain.User, notes *string) (*EndResult, error) {
	unlock, err := s.locker.Lock(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	meeting, err := s.load(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if !meeting.IsHost(caller.ID) {
		return nil, errorutil.NewForbidden("only the meeting host can end the meeting")
	}
	if meeting.Status != domain.MeetingStatusOngoing {
		return nil, errorutil.NewInvalidState("only ongoing meetings can be ended",
			map[string]any{"status": meeting.Status})
	}
	if notes != nil {
		fields := fieldErrors{}
		fields.maxLen("notes", *notes, domain.MaxNotesLength)
		if err := fields.err(); err != nil {
			return nil, err
		}
	}

	// The sequence below runs to completion even if the client goes away.
	ctx = context.WithoutCancel(ctx)
	log := s.logger.With(zap.String("meeting_id", meeting.ID))

	segments := []domain.TranscriptSegment{}
	botStarted := meeting.TranscriptionBotStarted
	if botStarted {
		result := s.gateway.FetchTranscript(ctx, meeting.MeetingLink)
		if result.Err != nil {
			log.Warn("transcript unavailable at end", zap.Error(result.Err))
		} else {
			segments = result.Segments
		}
	}

	now := s.now()
	meeting.ActualEndTime = &now
	if notes != nil {
		meeting.Notes = *notes
	}
	if err := s.transition(ctx, meeting, caller, domain.MeetingStatusCompleted, "", len(segments) > 0); err != nil {
		return nil, err
	}

	if len(segments) > 0 {
		if err := s.meetings.SaveTranscript(ctx, meeting.ID, segments); err != nil {
			log.Error("persist transcript", zap.Error(err))
		} else {
			meeting.Transcript = segments
		}
	}

	if botStarted {
		teardown := s.gateway.DeleteBot(ctx, meeting.MeetingLink)
		if teardown.Err != nil {
			log.Warn("transcription bot teardown failed", zap.Error(teardown.Err))
		}
		if err := s.meetings.SetTranscriptionBot(ctx, meeting.ID, nil, false); err != nil {
			log.Error("clear transcription bot flag", zap.Error(err))
		} else {
			meeting.TranscriptionBotStarted = false
		}
	}

	view, err := s.resolve(ctx, meeting)
	if err != nil {
		return nil, err
	}
	return &EndResult{View: view, TranscriptAvailable: meeting.HasTranscript()}, nil
}

// Respond records a participant's accept or decline.
func (s *MeetingService) Respond(ctx context.Context, meetingID string, caller *domain.User, status domain.ParticipantStatus) (*MeetingView, error) {
	if !status.IsResponse() {
		return nil, errorutil.NewValidationError("invalid response status",
			map[string]any{"status": "must be accepted or declined"})
	}

	unlock, err := s.locker.Lock(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	meeting, err := s.load(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if !meeting.SetParticipantStatus(caller.ID, status, s.now()) {
		return nil, errorutil.NewForbidden("you are not a participant in this meeting")
	}
	if err := s.meetings.Update(ctx, meeting); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventParticipantResponded,
		MeetingID: meeting.ID,
		ActorID:   caller.ID,
		Payload:   events.ParticipantRespondedPayload{Status: status},
	})
	return s.resolve(ctx, meeting)
}

// FetchTranscription returns the stored transcript for the meeting with the
// given external id, fetching it on demand when none is stored.
func (s *MeetingService) FetchTranscription(ctx context.Context, externalID string, caller *domain.User) ([]domain.TranscriptSegment, error) {
	meeting, err := s.meetings.GetByExternalID(ctx, externalID, caller.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewNotFound("meeting", map[string]any{"externalId": externalID})
		}
		return nil, err
	}
	if !meeting.CanView(caller.ID) {
		return nil, errorutil.NewForbidden("you do not have access to this meeting")
	}
	if meeting.HasTranscript() {
		return meeting.Transcript, nil
	}

	result := s.gateway.FetchTranscript(ctx, meeting.MeetingLink)
	if result.Err != nil {
		s.logger.Warn("on-demand transcript fetch failed",
			zap.String("meeting_id", meeting.ID), zap.Error(result.Err))
	}
	if len(result.Segments) == 0 {
		return nil, errorutil.NewNotFoundMessage("no transcription available")
	}
	if err := s.meetings.SaveTranscript(ctx, meeting.ID, result.Segments); err != nil {
		return nil, err
	}
	return result.Segments, nil
}

// AvailableStaff lists the active staff a manager may invite.
func (s *MeetingService) AvailableStaff(ctx context.Context, caller *domain.User) ([]domain.User, error) {
	if !caller.IsManager() {
		return nil, errorutil.NewForbidden("only managers can view available staff")
	}
	staff, err := s.users.ListStaffByManager(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if staff == nil {
		staff = []domain.User{}
	}
	return staff, nil
}

// transition applies a state change, persists it and emits the event.
func (s *MeetingService) transition(ctx context.Context, meeting *domain.Meeting, actor *domain.User, next domain.MeetingStatus, reason string, transcript bool) error {
	prev := meeting.Status
	if !domain.CanTransition(prev, next) {
		return errorutil.NewInvalidState("illegal meeting transition",
			map[string]any{"from": prev, "to": next})
	}
	meeting.Status = next
	if err := s.meetings.Update(ctx, meeting); err != nil {
		meeting.Status = prev
		return err
	}

	s.logger.Info("meeting status changed",
		zap.String("meeting_id", meeting.ID),
		zap.String("from", string(prev)),
		zap.String("to", string(next)))
	s.publish(ctx, events.Event{
		Type:      events.EventMeetingStatusChanged,
		MeetingID: meeting.ID,
		ActorID:   actor.ID,
		Payload: events.MeetingStatusChangedPayload{
			OldStatus:           prev,
			NewStatus:           next,
			Reason:              reason,
			TranscriptAvailable: transcript,
		},
	})
	return nil
}

// validateRoster resolves participant ids to active staff managed by hostID.
func (s *MeetingService) validateRoster(ctx context.Context, hostID string, ids []string) ([]domain.User, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	found, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.User, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}

	participants := make([]domain.User, 0, len(ids))
	var invalid []string
	for _, id := range ids {
		u, ok := byID[id]
		if !ok || !u.ManagedBy(hostID) {
			invalid = append(invalid, id)
			continue
		}
		participants = append(participants, u)
	}
	if len(invalid) > 0 {
		return nil, errorutil.NewValidationError(
			"some selected participants are not valid staff members under your management",
			map[string]any{"participantIds": invalid})
	}
	return participants, nil
}

func (s *MeetingService) load(ctx context.Context, meetingID string) (*domain.Meeting, error) {
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

func (s *MeetingService) resolve(ctx context.Context, meeting *domain.Meeting) (*MeetingView, error) {
	ids := append([]string{meeting.HostID}, meeting.ParticipantIDs()...)
	users, err := s.userMap(ctx, ids)
	if err != nil {
		return nil, err
	}
	return &MeetingView{Meeting: meeting, Users: users}, nil
}

func (s *MeetingService) view(meeting *domain.Meeting, host *domain.User, participants []domain.User) *MeetingView {
	users := make(map[string]domain.User, len(participants)+1)
	users[host.ID] = *host
	for _, p := range participants {
		users[p.ID] = p
	}
	return &MeetingView{Meeting: meeting, Users: users}
}

func (s *MeetingService) userMap(ctx context.Context, ids []string) (map[string]domain.User, error) {
	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (s *MeetingService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

// mergeRoster keeps existing participant state for ids still invited.
func mergeRoster(current []domain.Participant, ids []string) []domain.Participant {
	existing := make(map[string]domain.Participant, len(current))
	for _, p := range current {
		existing[p.UserID] = p
	}
	out := make([]domain.Participant, 0, len(ids))
	for _, id := range ids {
		if p, ok := existing[id]; ok {
			out = append(out, p)
			continue
		}
		out = append(out, domain.Participant{UserID: id, Status: domain.ParticipantInvited})
	}
	return out
}

func viewParticipants(view *MeetingView) []domain.User {
	out := make([]domain.User, 0, len(view.Meeting.Participants))
	for _, p := range view.Meeting.Participants {
		if u, ok := view.Users[p.UserID]; ok {
			out = append(out, u)
		}
	}
	return out
}

func userIDs(users []domain.User) []string {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}
