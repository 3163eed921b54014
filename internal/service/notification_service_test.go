package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/meeting-service/internal/domain"
	"github.com/spec-kit/meeting-service/internal/mail"
	"github.com/spec-kit/meeting-service/internal/observability"
)

type captureSender struct {
	mu      sync.Mutex
	enabled bool
	fail    map[string]bool
	sent    []mail.Message
}

func (s *captureSender) Enabled() bool { return s.enabled }

func (s *captureSender) Send(_ context.Context, msg mail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[msg.To] {
		return errors.New("mailbox unavailable")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func notificationFixture() (*domain.Meeting, *domain.User, []domain.User) {
	meeting := &domain.Meeting{
		Title:           "Quarterly review",
		Description:     "Numbers & plans",
		MeetingLink:     testLink,
		ScheduledAt:     time.Date(2030, 3, 1, 14, 30, 0, 0, time.UTC),
		DurationMinutes: 45,
		Timezone:        "Europe/Berlin",
	}
	host := &domain.User{FullName: "Maria Manager", Email: "maria@example.com", Department: "Sales"}
	participants := []domain.User{
		{ID: "s1", FullName: "Alice", Email: "alice@example.com"},
		{ID: "s2", Username: "bob", Email: "bob@example.com"},
	}
	return meeting, host, participants
}

func TestNotificationService_SendInvitations(t *testing.T) {
	sender := &captureSender{enabled: true}
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	svc := NewNotificationService(sender, zap.NewNop(), metrics)
	meeting, host, participants := notificationFixture()

	result := svc.SendInvitations(context.Background(), meeting, host, participants)
	assert.True(t, result.OK())
	assert.Equal(t, 2, result.Sent)
	require.Len(t, sender.sent, 2)

	byRecipient := map[string]mail.Message{}
	for _, msg := range sender.sent {
		byRecipient[msg.To] = msg
	}
	alice := byRecipient["alice@example.com"]
	assert.Equal(t, "Meeting Invitation: Quarterly review", alice.Subject)
	assert.Contains(t, alice.HTML, "Hello Alice")
	assert.Contains(t, alice.HTML, "Numbers &amp; plans")
	assert.Contains(t, alice.HTML, "03:30 PM CET")
	assert.Contains(t, alice.HTML, "Department:</strong> Sales")
	assert.Contains(t, byRecipient["bob@example.com"].HTML, "Hello bob")
}

func TestNotificationService_PartialFailure(t *testing.T) {
	sender := &captureSender{enabled: true, fail: map[string]bool{"bob@example.com": true}}
	svc := NewNotificationService(sender, zap.NewNop(), nil)
	meeting, host, participants := notificationFixture()

	result := svc.SendCancellation(context.Background(), meeting, host, participants, "budget freeze")
	assert.False(t, result.OK())
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Meeting Cancelled: Quarterly review", sender.sent[0].Subject)
	assert.Contains(t, sender.sent[0].HTML, "budget freeze")
}

func TestNotificationService_Disabled(t *testing.T) {
	svc := NewNotificationService(&captureSender{}, zap.NewNop(), nil)
	meeting, host, participants := notificationFixture()

	result := svc.SendInvitations(context.Background(), meeting, host, participants)
	assert.ErrorIs(t, result.Err, mail.ErrDisabled)
	assert.Equal(t, 2, result.Failed)

	empty := svc.SendInvitations(context.Background(), meeting, host, nil)
	assert.True(t, empty.OK())
	assert.Zero(t, empty.Sent)
}

func TestFormatMeetingTime(t *testing.T) {
	at := time.Date(2030, 7, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "Monday, July 1, 2030 at 09:00 AM UTC", formatMeetingTime(at, ""))
	assert.Equal(t, "Monday, July 1, 2030 at 09:00 AM UTC", formatMeetingTime(at, "Not/AZone"))
	assert.Equal(t, "Monday, July 1, 2030 at 11:00 AM CEST", formatMeetingTime(at, "Europe/Berlin"))
}
