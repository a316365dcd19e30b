package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEventHandlerRecordsEvents(t *testing.T) {
	handler := NewMockEventHandler("test.event")

	assert.Equal(t, []string{"test.event"}, handler.EventTypes())
	assert.Equal(t, 0, handler.HandledCount())

	event := NewTestEvent("test.event")
	require.NoError(t, handler.Handle(context.Background(), event))

	require.Equal(t, 1, handler.HandledCount())
	assert.Equal(t, event.EventID(), handler.Handled()[0].EventID())
}

func TestMockEventHandlerReturnsConfiguredError(t *testing.T) {
	handler := NewMockEventHandler("test.event")
	handler.SetError(errors.New("boom"))

	err := handler.Handle(context.Background(), NewTestEvent("test.event"))
	assert.Error(t, err)

	// Events are still recorded even when the handler errors
	assert.Equal(t, 1, handler.HandledCount())
}

func TestMockEventHandlerReset(t *testing.T) {
	handler := NewMockEventHandler("test.event")
	require.NoError(t, handler.Handle(context.Background(), NewTestEvent("test.event")))
	require.Equal(t, 1, handler.HandledCount())

	handler.Reset()
	assert.Equal(t, 0, handler.HandledCount())
}

func TestNewTestEventWithID(t *testing.T) {
	id := uuid.New()
	event := NewTestEventWithID(id, "test.event")

	assert.Equal(t, id, event.EventID())
	assert.Equal(t, "test.event", event.EventType())
	assert.WithinDuration(t, time.Now(), event.OccurredAt(), time.Second)
}
