package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/meeting-service/internal/events"
	"github.com/spec-kit/meeting-service/internal/observability"
)

// AuditWorker records meeting events to the log and transition metrics.
type AuditWorker struct {
	logger  *zap.Logger
	metrics *observability.Metrics
}

// StartAuditWorker registers audit handlers on the dispatcher.
func StartAuditWorker(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *AuditWorker {
	w := &AuditWorker{
		logger:  logger.With(zap.String("component", "audit")),
		metrics: metrics,
	}
	if dispatcher == nil {
		return w
	}
	dispatcher.Subscribe(events.EventMeetingCreated, w.handleEvent)
	dispatcher.Subscribe(events.EventMeetingUpdated, w.handleEvent)
	dispatcher.Subscribe(events.EventParticipantResponded, w.handleEvent)
	dispatcher.Subscribe(events.EventActionItemsExtracted, w.handleEvent)
	dispatcher.Subscribe(events.EventActionItemStatusSet, w.handleEvent)
	dispatcher.Subscribe(events.EventMeetingStatusChanged, w.handleStatusChanged)
	return w
}

func (w *AuditWorker) handleEvent(_ context.Context, event events.Event) error {
	w.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("meeting_id", event.MeetingID),
		zap.String("actor_id", event.ActorID),
		zap.Any("payload", event.Payload))
	return nil
}

func (w *AuditWorker) handleStatusChanged(ctx context.Context, event events.Event) error {
	if payload, ok := event.Payload.(events.MeetingStatusChangedPayload); ok {
		w.metrics.RecordTransition(string(payload.OldStatus), string(payload.NewStatus))
	}
	return w.handleEvent(ctx, event)
}
