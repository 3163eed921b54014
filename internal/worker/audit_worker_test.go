package worker

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/meeting-service/internal/domain"
	"github.com/spec-kit/meeting-service/internal/events"
	"github.com/spec-kit/meeting-service/internal/observability"
)

func TestAuditWorker_RecordsTransitions(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	core, logs := observer.New(zap.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())

	StartAuditWorker(dispatcher, zap.New(core), metrics)

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:      events.EventMeetingStatusChanged,
		MeetingID: "m1",
		ActorID:   "host",
		Payload: events.MeetingStatusChangedPayload{
			OldStatus: domain.MeetingStatusScheduled,
			NewStatus: domain.MeetingStatusOngoing,
		},
	})
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "meeting_status_transitions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	entries := logs.FilterMessage(string(events.EventMeetingStatusChanged)).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "m1", entries[0].ContextMap()["meeting_id"])
}
