package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDispatcher_PublishRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())

	var seen []string
	d.Subscribe(EventMeetingCreated, func(_ context.Context, e Event) error {
		seen = append(seen, "first:"+e.MeetingID)
		return errors.New("boom")
	})
	d.Subscribe(EventMeetingCreated, func(_ context.Context, e Event) error {
		seen = append(seen, "second:"+e.MeetingID)
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.Timestamp.IsZero())
		return nil
	})
	d.Subscribe(EventMeetingStatusChanged, func(context.Context, Event) error {
		t.Fatal("unexpected handler")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventMeetingCreated, MeetingID: "m1"})
	require.Error(t, err)
	assert.Equal(t, []string{"first:m1", "second:m1"}, seen)
}

func TestDispatcher_NoHandlers(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventMeetingUpdated}))
}
