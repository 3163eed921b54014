package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/meeting-service/internal/domain"
	"github.com/spec-kit/meeting-service/internal/mail"
	"github.com/spec-kit/meeting-service/internal/observability"
)

// DispatchResult reports a best-effort email fan-out. Err is the first
// delivery failure, or mail.ErrDisabled when delivery is not configured.
type DispatchResult struct {
	Sent   int
	Failed int
	Err    error
}

// OK reports whether every message was delivered.
func (r DispatchResult) OK() bool {
	return r.Err == nil && r.Failed == 0
}

// Notifier sends meeting emails to participants.
type Notifier interface {
	SendInvitations(ctx context.Context, meeting *domain.Meeting, host *domain.User, participants []domain.User) DispatchResult
	SendCancellation(ctx context.Context, meeting *domain.Meeting, host *domain.User, participants []domain.User, reason string) DispatchResult
}

// NotificationService renders and delivers meeting emails.
type NotificationService struct {
	sender      mail.Sender
	logger      *zap.Logger
	metrics     *observability.Metrics
	concurrency int
}

// NewNotificationService creates the service.
func NewNotificationService(sender mail.Sender, logger *zap.Logger, metrics *observability.Metrics) *NotificationService {
	return &NotificationService{
		sender:      sender,
		logger:      logger.With(zap.String("component", "notifications")),
		metrics:     metrics,
		concurrency: 4,
	}
}

type emailData struct {
	Recipient   string
	Title       string
	Description string
	When        string
	Duration    int
	HostName    string
	HostEmail   string
	Department  string
	Link        string
	Reason      string
}

var invitationTemplate = template.Must(template.New("invitation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1 style="background-color: #4CAF50; color: white; padding: 20px; text-align: center;">Meeting Invitation</h1>
    <p>Hello {{.Recipient}},</p>
    <p>You have been invited to join a meeting hosted by <strong>{{.HostName}}</strong>.</p>
    <div style="background-color: white; padding: 15px; margin: 15px 0;">
      <h3>{{.Title}}</h3>
      <p><strong>Description:</strong> {{.Description}}</p>
      <p><strong>Date &amp; Time:</strong> {{.When}}</p>
      <p><strong>Duration:</strong> {{.Duration}} minutes</p>
      <p><strong>Host:</strong> {{.HostName}} ({{.HostEmail}})</p>
      {{if .Department}}<p><strong>Department:</strong> {{.Department}}</p>{{end}}
    </div>
    <p><strong>Meeting Link:</strong> <a href="{{.Link}}">{{.Link}}</a></p>
    <p style="text-align: center; color: #666; font-size: 12px;">This is an automated message from Meeting Action Tracker</p>
  </div>
</body>
</html>`))

var cancellationTemplate = template.Must(template.New("cancellation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1 style="background-color: #f44336; color: white; padding: 20px; text-align: center;">Meeting Cancelled</h1>
    <p>Hello {{.Recipient}},</p>
    <p>The meeting "<strong>{{.Title}}</strong>" scheduled for {{.When}} has been cancelled by {{.HostName}}.</p>
    {{if .Reason}}<p><strong>Reason:</strong> {{.Reason}}</p>{{end}}
    <p style="text-align: center; color: #666; font-size: 12px;">This is an automated message from Meeting Action Tracker</p>
  </div>
</body>
</html>`))

// SendInvitations emails every participant an invitation.
func (n *NotificationService) SendInvitations(ctx context.Context, meeting *domain.Meeting, host *domain.User, participants []domain.User) DispatchResult {
	subject := "Meeting Invitation: " + meeting.Title
	return n.dispatch(ctx, "invitation", participants, func(p domain.User) (mail.Message, error) {
		return render(invitationTemplate, p, subject, newEmailData(meeting, host, p, ""))
	})
}

// SendCancellation emails every participant a cancellation notice.
func (n *NotificationService) SendCancellation(ctx context.Context, meeting *domain.Meeting, host *domain.User, participants []domain.User, reason string) DispatchResult {
	subject := "Meeting Cancelled: " + meeting.Title
	return n.dispatch(ctx, "cancellation", participants, func(p domain.User) (mail.Message, error) {
		return render(cancellationTemplate, p, subject, newEmailData(meeting, host, p, reason))
	})
}

func (n *NotificationService) dispatch(ctx context.Context, kind string, recipients []domain.User, build func(domain.User) (mail.Message, error)) DispatchResult {
	if len(recipients) == 0 {
		return DispatchResult{}
	}
	if n.sender == nil || !n.sender.Enabled() {
		return DispatchResult{Failed: len(recipients), Err: mail.ErrDisabled}
	}

	var sent, failed int32
	var g errgroup.Group
	g.SetLimit(n.concurrency)

	for _, recipient := range recipients {
		recipient := recipient
		g.Go(func() error {
			err := n.sendOne(ctx, recipient, build)
			n.metrics.RecordExternalCall("mail", kind, err == nil)
			if err != nil {
				atomic.AddInt32(&failed, 1)
				n.logger.Warn("email delivery failed",
					zap.String("kind", kind),
					zap.String("user_id", recipient.ID),
					zap.Error(err))
				return err
			}
			atomic.AddInt32(&sent, 1)
			return nil
		})
	}
	err := g.Wait()

	result := DispatchResult{Sent: int(sent), Failed: int(failed), Err: err}
	n.logger.Info("emails dispatched", zap.String("kind", kind), zap.Int("sent", result.Sent), zap.Int("failed", result.Failed))
	return result
}

func (n *NotificationService) sendOne(ctx context.Context, recipient domain.User, build func(domain.User) (mail.Message, error)) error {
	if strings.TrimSpace(recipient.Email) == "" {
		return errors.New("recipient has no email address")
	}
	msg, err := build(recipient)
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, msg)
}

func render(tmpl *template.Template, recipient domain.User, subject string, data emailData) (mail.Message, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return mail.Message{}, fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return mail.Message{To: recipient.Email, Subject: subject, HTML: buf.String()}, nil
}

func newEmailData(meeting *domain.Meeting, host *domain.User, recipient domain.User, reason string) emailData {
	data := emailData{
		Recipient:   recipient.DisplayName(),
		Title:       meeting.Title,
		Description: meeting.Description,
		When:        formatMeetingTime(meeting.ScheduledAt, meeting.Timezone),
		Duration:    meeting.DurationMinutes,
		Link:        meeting.MeetingLink,
		Reason:      reason,
	}
	if host != nil {
		data.HostName = host.DisplayName()
		data.HostEmail = host.Email
		data.Department = host.Department
	}
	return data
}

// formatMeetingTime renders t in the meeting's timezone, falling back to UTC.
func formatMeetingTime(t time.Time, timezone string) string {
	loc, err := time.LoadLocation(timezone)
	if err != nil || timezone == "" {
		loc = time.UTC
	}
	return t.In(loc).Format("Monday, January 2, 2006 at 03:04 PM MST")
}
