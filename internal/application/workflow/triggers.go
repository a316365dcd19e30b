package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rainbow/backend/internal/domain/content"
	"github.com/rainbow/backend/internal/domain/shared"
	"github.com/rainbow/backend/internal/domain/social"
	"github.com/rainbow/backend/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// TaskTriggers turns domain events into scheduled tasks: a new connection
// request spawns its reminder task and a posted story spawns its expiry
// task. Both are enqueued due immediately; the handlers suspend themselves
// until their wake-up instant.
type TaskTriggers struct {
	engine *scheduler.Engine
	clock  shared.Clock
	logger *zap.Logger
}

// NewTaskTriggers creates the event-to-task bridge
func NewTaskTriggers(engine *scheduler.Engine, clock shared.Clock, logger *zap.Logger) *TaskTriggers {
	return &TaskTriggers{engine: engine, clock: clock, logger: logger}
}

// EventTypes returns the events that spawn tasks
func (t *TaskTriggers) EventTypes() []string {
	return []string{
		social.EventTypeConnectionRequestCreated,
		content.EventTypeStoryPosted,
	}
}

// Handle enqueues the task for one event
func (t *TaskTriggers) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *social.ConnectionRequestCreatedEvent:
		return t.enqueue(ctx, TaskKindConnectionReminder, ReminderPayload{
			RequestID:  e.RequestID,
			FromUserID: e.FromUserID,
			ToUserID:   e.ToUserID,
			RemindAt:   e.OccurredAt().Add(social.RequestWindow),
		})
	case *content.StoryPostedEvent:
		return t.enqueue(ctx, TaskKindStoryExpiry, StoryExpiryPayload{
			StoryID:   e.StoryID,
			ExpiresAt: e.ExpiresAt,
		})
	default:
		t.logger.Warn("unexpected event type in task triggers",
			zap.String("event_type", event.EventType()),
		)
		return nil
	}
}

func (t *TaskTriggers) enqueue(ctx context.Context, kind string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", kind, err)
	}
	_, err = t.engine.Enqueue(ctx, kind, data, t.clock.Now())
	return err
}

var _ shared.EventHandler = (*TaskTriggers)(nil)
