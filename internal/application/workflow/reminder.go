package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rainbow/backend/internal/domain/shared"
	"github.com/rainbow/backend/internal/domain/social"
	"github.com/rainbow/backend/internal/infrastructure/notification"
	"github.com/rainbow/backend/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// ReminderWorkflow notifies the target of a new connection request, waits
// 24 hours and sends a reminder if the request is still pending. There is no
// cancellation on accept; the resumed step re-reads the request and skips
// the reminder when it already resolved.
type ReminderWorkflow struct {
	requests social.ConnectionRequestRepository
	users    social.UserRepository
	sender   notification.Sender
	logger   *zap.Logger
}

// NewReminderWorkflow creates the reminder handler
func NewReminderWorkflow(
	requests social.ConnectionRequestRepository,
	users social.UserRepository,
	sender notification.Sender,
	logger *zap.Logger,
) *ReminderWorkflow {
	return &ReminderWorkflow{
		requests: requests,
		users:    users,
		sender:   sender,
		logger:   logger,
	}
}

// Kind returns the task kind this handler executes
func (w *ReminderWorkflow) Kind() string {
	return TaskKindConnectionReminder
}

type reminderStepResult struct {
	Sent   bool   `json:"sent"`
	Reason string `json:"reason,omitempty"`
}

// Execute runs the reminder workflow for one connection request
func (w *ReminderWorkflow) Execute(ctx context.Context, run *scheduler.TaskRun) error {
	var payload ReminderPayload
	if err := json.Unmarshal(run.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid reminder payload: %w", err)
	}

	_, err := run.Run(ctx, "notify-target", func(ctx context.Context) (json.RawMessage, error) {
		if err := w.sender.Send(ctx, notification.Notification{
			UserID: payload.ToUserID,
			Kind:   "connection.request",
			Title:  fmt.Sprintf("%s wants to connect", w.requesterName(ctx, payload)),
		}); err != nil {
			return nil, err
		}
		return json.Marshal(reminderStepResult{Sent: true})
	})
	if err != nil {
		return err
	}

	if err := run.SleepUntil(ctx, payload.RemindAt); err != nil {
		return err
	}

	_, err = run.Run(ctx, "reminder", func(ctx context.Context) (json.RawMessage, error) {
		req, err := w.requests.FindByID(ctx, payload.RequestID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return json.Marshal(reminderStepResult{Sent: false, Reason: "request gone"})
			}
			return nil, err
		}
		if !req.IsPending() {
			return json.Marshal(reminderStepResult{Sent: false, Reason: "already resolved"})
		}

		if err := w.sender.Send(ctx, notification.Notification{
			UserID: payload.ToUserID,
			Kind:   "connection.reminder",
			Title:  fmt.Sprintf("Reminder: %s wants to connect", w.requesterName(ctx, payload)),
		}); err != nil {
			return nil, err
		}
		return json.Marshal(reminderStepResult{Sent: true})
	})
	return err
}

// requesterName resolves the requester's display name, falling back to a
// generic label so a missing profile never blocks the notification
func (w *ReminderWorkflow) requesterName(ctx context.Context, payload ReminderPayload) string {
	user, err := w.users.FindByID(ctx, payload.FromUserID)
	if err != nil {
		w.logger.Debug("requester profile unavailable",
			zap.String("user_id", payload.FromUserID.String()),
			zap.Error(err),
		)
		return "Someone"
	}
	return user.FullName
}
