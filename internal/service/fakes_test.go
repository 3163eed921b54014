package service

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/spec-kit/meeting-service/internal/domain"
	"github.com/spec-kit/meeting-service/internal/extraction"
	"github.com/spec-kit/meeting-service/internal/repository"
	"github.com/spec-kit/meeting-service/internal/transcription"
)

// memUsers is an in-memory UserRepository.
type memUsers struct {
	mu    sync.Mutex
	byID  map[string]domain.User
	order []string
}

func newMemUsers(users ...domain.User) *memUsers {
	m := &memUsers{byID: map[string]domain.User{}}
	for _, u := range users {
		m.put(u)
	}
	return m
}

func (m *memUsers) put(u domain.User) {
	if _, ok := m.byID[u.ID]; !ok {
		m.order = append(m.order, u.ID)
	}
	m.byID[u.ID] = u
}

func (m *memUsers) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	m.put(*user)
	return nil
}

func (m *memUsers) Update(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.byID[user.ID] = *user
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (m *memUsers) GetByLogin(_ context.Context, identifier string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		u := m.byID[id]
		if u.Email == identifier || u.Username == identifier {
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memUsers) FindActiveByName(_ context.Context, name string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, match := range []func(domain.User) bool{
		func(u domain.User) bool { return u.FullName == name },
		func(u domain.User) bool { return u.Username == name },
	} {
		for _, id := range m.order {
			if u := m.byID[id]; u.IsActive && match(u) {
				return &u, nil
			}
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memUsers) FindConflicts(_ context.Context, email, username, employeeID, excludeID string) (repository.UserConflict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var c repository.UserConflict
	for _, u := range m.byID {
		if u.ID == excludeID {
			continue
		}
		c.Email = c.Email || (email != "" && u.Email == email)
		c.Username = c.Username || (username != "" && u.Username == username)
		c.EmployeeID = c.EmployeeID || (employeeID != "" && u.EmployeeID == employeeID)
	}
	return c, nil
}

func (m *memUsers) ListByIDs(_ context.Context, ids []string) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.User
	for _, id := range ids {
		if u, ok := m.byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUsers) ListStaffByManager(_ context.Context, managerID string) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.User
	for _, id := range m.order {
		u := m.byID[id]
		if u.ManagedBy(managerID) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

// memMeetings is an in-memory MeetingRepository that stores deep copies.
type memMeetings struct {
	mu      sync.Mutex
	byID    map[string]*domain.Meeting
	creates int
}

func newMemMeetings() *memMeetings {
	return &memMeetings{byID: map[string]*domain.Meeting{}}
}

func cloneMeeting(m *domain.Meeting) *domain.Meeting {
	c := *m
	c.Participants = slices.Clone(m.Participants)
	c.Transcript = slices.Clone(m.Transcript)
	c.ActionItems = slices.Clone(m.ActionItems)
	if c.Transcript == nil {
		c.Transcript = []domain.TranscriptSegment{}
	}
	return &c
}

func (r *memMeetings) Create(_ context.Context, meeting *domain.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	meeting.ID = uuid.NewString()
	meeting.CreatedAt = time.Now()
	meeting.UpdatedAt = meeting.CreatedAt
	r.byID[meeting.ID] = cloneMeeting(meeting)
	r.creates++
	return nil
}

func (r *memMeetings) Update(_ context.Context, meeting *domain.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[meeting.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	next := cloneMeeting(meeting)
	// Targeted columns are owned by their own writers.
	next.Transcript = stored.Transcript
	next.ActionItems = stored.ActionItems
	next.EmailSent = stored.EmailSent
	next.TranscriptionBotID = stored.TranscriptionBotID
	next.TranscriptionBotStarted = stored.TranscriptionBotStarted
	r.byID[meeting.ID] = next
	return nil
}

func (r *memMeetings) GetByID(_ context.Context, id string) (*domain.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneMeeting(m), nil
}

func (r *memMeetings) GetByExternalID(_ context.Context, externalID, viewerID string) (*domain.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.Meeting
	for _, m := range r.byID {
		if m.ExternalID == nil || *m.ExternalID != externalID {
			continue
		}
		if latest == nil {
			latest = m
			continue
		}
		visible, latestVisible := m.CanView(viewerID), latest.CanView(viewerID)
		if visible != latestVisible {
			if visible {
				latest = m
			}
			continue
		}
		if m.CreatedAt.After(latest.CreatedAt) {
			latest = m
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	return cloneMeeting(latest), nil
}

func (r *memMeetings) List(_ context.Context, filter repository.MeetingFilter) ([]domain.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Meeting
	for _, m := range r.byID {
		if filter.HostID != nil && m.HostID != *filter.HostID {
			continue
		}
		if filter.ParticipantID != nil && m.Participant(*filter.ParticipantID) == nil {
			continue
		}
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		if filter.From != nil && m.ScheduledAt.Before(*filter.From) {
			continue
		}
		if slices.Contains(filter.ExcludeStatus, m.Status) {
			continue
		}
		out = append(out, *cloneMeeting(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (r *memMeetings) with(id string, fn func(m *domain.Meeting)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	fn(m)
	return nil
}

func (r *memMeetings) SetEmailSent(_ context.Context, id string) error {
	return r.with(id, func(m *domain.Meeting) { m.EmailSent = true })
}

func (r *memMeetings) SetTranscriptionBot(_ context.Context, id string, botID *string, started bool) error {
	return r.with(id, func(m *domain.Meeting) {
		if botID != nil {
			m.TranscriptionBotID = botID
		}
		m.TranscriptionBotStarted = started
	})
}

func (r *memMeetings) SaveTranscript(_ context.Context, id string, segments []domain.TranscriptSegment) error {
	return r.with(id, func(m *domain.Meeting) { m.Transcript = slices.Clone(segments) })
}

func (r *memMeetings) ReplaceActionItems(_ context.Context, meetingID string, items []domain.ActionItem) error {
	return r.with(meetingID, func(m *domain.Meeting) { m.ActionItems = slices.Clone(items) })
}

func (r *memMeetings) UpdateActionItemStatus(_ context.Context, meetingID, itemID string, status domain.ActionItemStatus) error {
	var found bool
	err := r.with(meetingID, func(m *domain.Meeting) {
		if item := m.ActionItem(itemID); item != nil {
			item.Status = status
			found = true
		}
	})
	if err == nil && !found {
		return pgx.ErrNoRows
	}
	return err
}

func (r *memMeetings) ListOpenActionItemsByAssignee(_ context.Context, userID string) ([]domain.AssignedActionItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.AssignedActionItem
	for _, m := range r.byID {
		for _, item := range m.ActionItems {
			if item.AssigneeID != nil && *item.AssigneeID == userID && item.Status == domain.ActionItemOpen {
				out = append(out, domain.AssignedActionItem{
					ActionItem:         item,
					MeetingTitle:       m.Title,
					MeetingScheduledAt: m.ScheduledAt,
				})
			}
		}
	}
	return out, nil
}

func (r *memMeetings) stored(id string) *domain.Meeting {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneMeeting(r.byID[id])
}

// mockGateway is a testify mock of transcription.Gateway.
type mockGateway struct {
	mock.Mock
}

func (g *mockGateway) ExternalID(joinLink string) *string {
	args := g.Called(joinLink)
	if v, ok := args.Get(0).(*string); ok {
		return v
	}
	return nil
}

func (g *mockGateway) StartBot(ctx context.Context, joinLink, botLabel string) transcription.BotResult {
	return g.Called(ctx, joinLink, botLabel).Get(0).(transcription.BotResult)
}

func (g *mockGateway) FetchTranscript(ctx context.Context, joinLink string) transcription.TranscriptResult {
	return g.Called(ctx, joinLink).Get(0).(transcription.TranscriptResult)
}

func (g *mockGateway) DeleteBot(ctx context.Context, joinLink string) transcription.TeardownResult {
	return g.Called(ctx, joinLink).Get(0).(transcription.TeardownResult)
}

// recordingNotifier captures dispatched emails.
type recordingNotifier struct {
	mu            sync.Mutex
	invitations   [][]string
	cancellations [][]string
	result        DispatchResult
}

func (n *recordingNotifier) SendInvitations(_ context.Context, _ *domain.Meeting, _ *domain.User, participants []domain.User) DispatchResult {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.invitations = append(n.invitations, userIDs(participants))
	return n.outcome(len(participants))
}

func (n *recordingNotifier) SendCancellation(_ context.Context, _ *domain.Meeting, _ *domain.User, participants []domain.User, _ string) DispatchResult {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancellations = append(n.cancellations, userIDs(participants))
	return n.outcome(len(participants))
}

func (n *recordingNotifier) outcome(count int) DispatchResult {
	if n.result.Err != nil {
		return DispatchResult{Failed: count, Err: n.result.Err}
	}
	return DispatchResult{Sent: count}
}

// stubExtractor returns canned items and records its inputs.
type stubExtractor struct {
	items      []extraction.Item
	err        error
	transcript string
	candidates []string
}

func (e *stubExtractor) Extract(_ context.Context, transcript string, candidates []string) ([]extraction.Item, error) {
	e.transcript = transcript
	e.candidates = candidates
	return e.items, e.err
}

// syncRunner runs background tasks inline.
func syncRunner(ctx context.Context, task func(context.Context)) {
	task(context.WithoutCancel(ctx))
}

func strPtr(s string) *string { return &s }
