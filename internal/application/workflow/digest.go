package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rainbow/backend/internal/domain/messaging"
	"github.com/rainbow/backend/internal/infrastructure/notification"
	"github.com/rainbow/backend/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// DailyDigestWorkflow sends each user a morning summary of their unseen
// messages. The collect step snapshots the counts once; every send is its
// own recorded step, so a crash mid-fanout resumes with the same snapshot
// and never re-notifies users it already reached.
type DailyDigestWorkflow struct {
	messages messaging.MessageRepository
	sender   notification.Sender
	logger   *zap.Logger
}

// NewDailyDigestWorkflow creates the digest handler
func NewDailyDigestWorkflow(
	messages messaging.MessageRepository,
	sender notification.Sender,
	logger *zap.Logger,
) *DailyDigestWorkflow {
	return &DailyDigestWorkflow{
		messages: messages,
		sender:   sender,
		logger:   logger,
	}
}

// Kind returns the task kind this handler executes
func (w *DailyDigestWorkflow) Kind() string {
	return TaskKindDailyDigest
}

// Execute collects unseen counts and fans out one notification per recipient
func (w *DailyDigestWorkflow) Execute(ctx context.Context, run *scheduler.TaskRun) error {
	collected, err := run.Run(ctx, "collect", func(ctx context.Context) (json.RawMessage, error) {
		counts, err := w.messages.UnseenCountsByRecipient(ctx)
		if err != nil {
			return nil, err
		}
		snapshot := make(map[string]int64, len(counts))
		for userID, count := range counts {
			if count > 0 {
				snapshot[userID.String()] = count
			}
		}
		return json.Marshal(snapshot)
	})
	if err != nil {
		return err
	}

	var snapshot map[string]int64
	if err := json.Unmarshal(collected, &snapshot); err != nil {
		return fmt.Errorf("invalid digest snapshot: %w", err)
	}

	// Deterministic order keeps step keys stable across redeliveries
	recipients := make([]string, 0, len(snapshot))
	for id := range snapshot {
		recipients = append(recipients, id)
	}
	sort.Strings(recipients)

	for _, id := range recipients {
		userID, err := uuid.Parse(id)
		if err != nil {
			w.logger.Warn("skipping malformed recipient id in digest", zap.String("user_id", id))
			continue
		}
		count := snapshot[id]

		_, err = run.Run(ctx, "notify:"+id, func(ctx context.Context) (json.RawMessage, error) {
			if err := w.sender.Send(ctx, notification.Notification{
				UserID: userID,
				Kind:   "digest.daily",
				Title:  fmt.Sprintf("You have %d unread messages", count),
			}); err != nil {
				return nil, err
			}
			return json.Marshal(map[string]int64{"count": count})
		})
		if err != nil {
			return err
		}
	}

	return nil
}
