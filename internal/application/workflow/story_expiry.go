package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rainbow/backend/internal/domain/content"
	"github.com/rainbow/backend/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// StoryExpiryWorkflow deletes a story once its 24 hours pass. The delete is
// recorded as a step, so a redelivered task does not delete twice, and an
// already-gone story counts as success.
type StoryExpiryWorkflow struct {
	stories content.StoryRepository
	logger  *zap.Logger
}

// NewStoryExpiryWorkflow creates the expiry handler
func NewStoryExpiryWorkflow(stories content.StoryRepository, logger *zap.Logger) *StoryExpiryWorkflow {
	return &StoryExpiryWorkflow{stories: stories, logger: logger}
}

// Kind returns the task kind this handler executes
func (w *StoryExpiryWorkflow) Kind() string {
	return TaskKindStoryExpiry
}

// Execute waits out the story's lifetime and removes it
func (w *StoryExpiryWorkflow) Execute(ctx context.Context, run *scheduler.TaskRun) error {
	var payload StoryExpiryPayload
	if err := json.Unmarshal(run.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid story expiry payload: %w", err)
	}

	if err := run.SleepUntil(ctx, payload.ExpiresAt); err != nil {
		return err
	}

	_, err := run.Run(ctx, "delete", func(ctx context.Context) (json.RawMessage, error) {
		if err := w.stories.Delete(ctx, payload.StoryID); err != nil {
			return nil, err
		}
		w.logger.Info("expired story removed",
			zap.String("story_id", payload.StoryID.String()),
		)
		return json.Marshal(map[string]bool{"deleted": true})
	})
	return err
}
