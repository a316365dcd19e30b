package task

import (
	"encoding/json"
	"time"

	"github.com/rainbow/backend/internal/domain/shared"
)

// State is the lifecycle state of a scheduled task
type State string

const (
	StateScheduled State = "scheduled"
	StateRunning   State = "running"
	StateSuspended State = "suspended"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// Retry configuration defaults
const (
	DefaultMaxRetries = 5
	BaseRetryBackoff  = 30 * time.Second
)

// StepLog maps step keys to their recorded results. A key present in the log
// means the step completed; reruns return the recorded result instead of
// executing again.
type StepLog map[string]json.RawMessage

// Task is a durable unit of deferred work. Everything needed to resume after
// a crash lives on the row: the payload, the wake-up time and the step log.
type Task struct {
	shared.BaseAggregateRoot
	Kind        string
	Payload     json.RawMessage
	State       State
	DueAt       time.Time
	Recurring   bool
	Schedule    *CronSchedule
	DedupeKey   *string
	Steps       StepLog
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time
	LastError   string
}

// New creates a one-shot task due at the given instant
func New(kind string, payload json.RawMessage, dueAt time.Time) (*Task, error) {
	if kind == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Task kind cannot be empty")
	}
	return &Task{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Kind:              kind,
		Payload:           payload,
		State:             StateScheduled,
		DueAt:             dueAt,
		Steps:             make(StepLog),
		MaxRetries:        DefaultMaxRetries,
	}, nil
}

// NewRecurring creates a recurring task armed for the schedule's next
// occurrence after now. The dedupe key makes EnsureRecurring idempotent:
// the store refuses a second row with the same key.
func NewRecurring(kind string, schedule CronSchedule, dedupeKey string, now time.Time) (*Task, error) {
	if kind == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Task kind cannot be empty")
	}
	if dedupeKey == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Recurring tasks need a dedupe key")
	}
	next, err := schedule.Next(now)
	if err != nil {
		return nil, err
	}
	return &Task{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Kind:              kind,
		State:             StateScheduled,
		DueAt:             next,
		Recurring:         true,
		Schedule:          &schedule,
		DedupeKey:         &dedupeKey,
		Steps:             make(StepLog),
		MaxRetries:        DefaultMaxRetries,
	}, nil
}

// IsDue reports whether the task should be dispatched at the given instant
func (t *Task) IsDue(now time.Time) bool {
	if t.State != StateScheduled && t.State != StateSuspended {
		return false
	}
	return !t.DueAt.After(now)
}

// StaleSince reports whether a running claim has gone stale: the claiming
// process stopped renewing the row (every step persist touches updated_at)
// before the bound, so it is presumed dead and the task may be reclaimed.
func (t *Task) StaleSince(bound time.Time) bool {
	return t.State == StateRunning && t.UpdatedAt.Before(bound)
}

// MarkRunning transitions a due task to running
func (t *Task) MarkRunning() error {
	if t.State != StateScheduled && t.State != StateSuspended {
		return shared.ErrInvalidState
	}
	t.State = StateRunning
	return nil
}

// StepResult returns the recorded result for a step, if the step completed
func (t *Task) StepResult(key string) (json.RawMessage, bool) {
	result, ok := t.Steps[key]
	return result, ok
}

// RecordStep records a completed step's result
func (t *Task) RecordStep(key string, result json.RawMessage) {
	if t.Steps == nil {
		t.Steps = make(StepLog)
	}
	t.Steps[key] = result
}

// Suspend parks the task until the wake-up instant. The worker is released;
// a later claim re-dispatches the handler from the top and recorded steps
// replay from the log.
func (t *Task) Suspend(until time.Time) {
	t.State = StateSuspended
	t.DueAt = until
}

// Complete finishes the run. One-shot tasks go to done; recurring tasks
// re-arm for the next occurrence with a cleared step log so every cycle
// starts fresh.
func (t *Task) Complete(now time.Time) error {
	if t.Recurring && t.Schedule != nil {
		next, err := t.Schedule.Next(now)
		if err != nil {
			return err
		}
		t.State = StateScheduled
		t.DueAt = next
		t.Steps = make(StepLog)
		t.RetryCount = 0
		t.NextRetryAt = nil
		t.LastError = ""
		return nil
	}
	t.State = StateDone
	return nil
}

// Fail records a failed run. Below the retry cap the task is rescheduled
// with exponential backoff (30s, 60s, 120s, ...); at the cap it lands in
// failed with the last error kept for operators.
func (t *Task) Fail(errMsg string, now time.Time) {
	t.RetryCount++
	t.LastError = errMsg

	if t.RetryCount >= t.MaxRetries {
		t.State = StateFailed
		t.NextRetryAt = nil
		return
	}

	backoff := BaseRetryBackoff * time.Duration(1<<uint(t.RetryCount-1))
	retryAt := now.Add(backoff)
	t.State = StateScheduled
	t.DueAt = retryAt
	t.NextRetryAt = &retryAt
}
