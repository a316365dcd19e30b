package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rainbow/backend/internal/domain/shared"
	"github.com/rainbow/backend/internal/domain/task"
)

// ErrSuspended signals that a handler parked its task until a later instant.
// It is a control-flow sentinel, not a failure: the engine persists the
// suspension instead of counting a retry.
var ErrSuspended = errors.New("task suspended until wake-up time")

// TaskRun is the handler's view of one dispatch of a task. It carries the
// step log so handlers stay idempotent under at-least-once dispatch.
type TaskRun struct {
	task  *task.Task
	repo  task.Repository
	clock shared.Clock
}

// NewTaskRun creates a TaskRun for one dispatch
func NewTaskRun(t *task.Task, repo task.Repository, clock shared.Clock) *TaskRun {
	return &TaskRun{task: t, repo: repo, clock: clock}
}

// Payload returns the task's payload
func (r *TaskRun) Payload() json.RawMessage {
	return r.task.Payload
}

// TaskID returns the task's identifier as a string
func (r *TaskRun) TaskID() string {
	return r.task.ID.String()
}

// Now returns the engine's current time
func (r *TaskRun) Now() time.Time {
	return r.clock.Now()
}

// Run executes a named step exactly once per task lifetime. If the step
// already completed in an earlier dispatch its recorded result is returned
// without executing fn. A fresh result is persisted before Run returns, so a
// crash after the step cannot rerun it.
func (r *TaskRun) Run(ctx context.Context, stepKey string, fn func(ctx context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	if result, ok := r.task.StepResult(stepKey); ok {
		return result, nil
	}

	result, err := fn(ctx)
	if err != nil {
		return nil, err
	}

	r.task.RecordStep(stepKey, result)
	if err := r.repo.Update(ctx, r.task); err != nil {
		return nil, err
	}
	return result, nil
}

// SleepUntil parks the task until the given instant and releases the worker.
// If the instant has already passed it returns nil and the handler continues.
// Handlers must propagate the returned ErrSuspended to the engine.
func (r *TaskRun) SleepUntil(ctx context.Context, until time.Time) error {
	if !r.clock.Now().Before(until) {
		return nil
	}

	r.task.Suspend(until)
	if err := r.repo.Update(ctx, r.task); err != nil {
		return err
	}
	return ErrSuspended
}
