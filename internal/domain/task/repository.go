package task

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists scheduled tasks
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Task, error)
	FindByDedupeKey(ctx context.Context, key string) (*Task, error)

	// Save inserts a new task. Tasks with a dedupe key insert conflict-free:
	// if a row with the same key exists the insert is a no-op and the call
	// returns shared.ErrAlreadyExists.
	Save(ctx context.Context, t *Task) error

	// Update persists the task's current state, step log and retry fields
	Update(ctx context.Context, t *Task) error

	// ClaimDue atomically claims up to limit tasks, marks them running and
	// returns them. Eligible are due rows (scheduled or suspended with
	// due_at <= now) and stale running rows whose updated_at predates
	// staleBefore: those were claimed by a process that died mid-run and
	// would otherwise be orphaned. Concurrent claimers never receive the
	// same task.
	ClaimDue(ctx context.Context, now, staleBefore time.Time, limit int) ([]*Task, error)

	// DeleteDoneBefore removes done tasks last updated before the cutoff
	DeleteDoneBefore(ctx context.Context, before time.Time) (int64, error)

	// CountByState returns how many tasks sit in each state
	CountByState(ctx context.Context) (map[State]int64, error)
}
