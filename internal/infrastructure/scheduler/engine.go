package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rainbow/backend/internal/domain/shared"
	"github.com/rainbow/backend/internal/domain/task"
	"go.uber.org/zap"
)

// Handler executes one kind of task. Execute runs from the top on every
// dispatch; completed steps replay from the step log via TaskRun.Run.
type Handler interface {
	Kind() string
	Execute(ctx context.Context, run *TaskRun) error
}

// Config holds engine configuration
type Config struct {
	PollInterval time.Duration
	BatchSize    int
	WorkerCount  int

	// ClaimLease bounds how long a running claim stays honored without the
	// row being touched. A process that dies mid-run stops renewing its
	// claims (every step persist refreshes updated_at); once the lease
	// expires any instance reclaims the task and resumes from the step log.
	ClaimLease time.Duration

	CleanupEnabled   bool
	CleanupRetention time.Duration
	CleanupInterval  time.Duration
}

// DefaultClaimLease is applied when Config.ClaimLease is unset. It must
// comfortably exceed the longest handler run between step persists: a reclaim
// while the original claimer is still alive means a duplicate dispatch,
// which the step log absorbs but should stay rare.
const DefaultClaimLease = 5 * time.Minute

// DefaultConfig returns default engine configuration
func DefaultConfig() Config {
	return Config{
		PollInterval:     5 * time.Second,
		BatchSize:        50,
		WorkerCount:      4,
		ClaimLease:       DefaultClaimLease,
		CleanupEnabled:   true,
		CleanupRetention: 7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
	}
}

// Engine is the durable task scheduler. Tasks live in the database; the
// engine polls for due rows, claims them atomically and dispatches each to
// its registered handler. Claims use SKIP LOCKED, so multiple instances can
// poll the same table without double-dispatch.
type Engine struct {
	repo     task.Repository
	clock    shared.Clock
	config   Config
	logger   *zap.Logger
	handlers map[string]Handler

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine creates a new task engine
func NewEngine(repo task.Repository, clock shared.Clock, config Config, logger *zap.Logger) *Engine {
	if config.ClaimLease <= 0 {
		config.ClaimLease = DefaultClaimLease
	}
	return &Engine{
		repo:     repo,
		clock:    clock,
		config:   config,
		logger:   logger,
		handlers: make(map[string]Handler),
	}
}

// Register registers a handler for its task kind. Registering two handlers
// for the same kind is a wiring bug, so it panics at startup.
func (e *Engine) Register(h Handler) {
	if _, exists := e.handlers[h.Kind()]; exists {
		panic(fmt.Sprintf("duplicate task handler for kind %q", h.Kind()))
	}
	e.handlers[h.Kind()] = h
}

// Enqueue persists a one-shot task due at the given instant
func (e *Engine) Enqueue(ctx context.Context, kind string, payload json.RawMessage, dueAt time.Time) (*task.Task, error) {
	t, err := task.New(kind, payload, dueAt)
	if err != nil {
		return nil, err
	}
	if err := e.repo.Save(ctx, t); err != nil {
		return nil, err
	}

	e.logger.Debug("task enqueued",
		zap.String("task_id", t.ID.String()),
		zap.String("kind", kind),
		zap.Time("due_at", dueAt),
	)
	return t, nil
}

// EnsureRecurring persists a recurring task armed for the schedule's next
// occurrence. The dedupe key makes the call idempotent: if a task with the
// same key already exists the existing one is returned.
func (e *Engine) EnsureRecurring(ctx context.Context, kind string, schedule task.CronSchedule, dedupeKey string) (*task.Task, error) {
	t, err := task.NewRecurring(kind, schedule, dedupeKey, e.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := e.repo.Save(ctx, t); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return e.repo.FindByDedupeKey(ctx, dedupeKey)
		}
		return nil, err
	}

	e.logger.Info("recurring task registered",
		zap.String("task_id", t.ID.String()),
		zap.String("kind", kind),
		zap.String("dedupe_key", dedupeKey),
		zap.Time("due_at", t.DueAt),
	)
	return t, nil
}

// Start starts the poll and cleanup loops
func (e *Engine) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	e.wg.Add(1)
	go e.pollLoop(ctx)

	if e.config.CleanupEnabled {
		e.wg.Add(1)
		go e.cleanupLoop(ctx)
	}

	e.logger.Info("task engine started",
		zap.Duration("poll_interval", e.config.PollInterval),
		zap.Int("batch_size", e.config.BatchSize),
		zap.Int("worker_count", e.config.WorkerCount),
	)
	return nil
}

// Stop gracefully stops the engine, waiting for in-flight tasks
func (e *Engine) Stop(ctx context.Context) error {
	if e.cancel != nil {
		e.cancel()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("task engine stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) pollLoop(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := e.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				e.logger.Error("poll tick failed", zap.Error(err))
			}
		}
	}
}

// RunOnce claims one batch of due tasks and dispatches them, returning how
// many tasks were claimed. Tests drive the engine deterministically through
// this method instead of the poll loop.
func (e *Engine) RunOnce(ctx context.Context) (int, error) {
	now := e.clock.Now()
	claimed, err := e.repo.ClaimDue(ctx, now, now.Add(-e.config.ClaimLease), e.config.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(claimed) == 0 {
		return 0, nil
	}

	workers := e.config.WorkerCount
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)

	var batch sync.WaitGroup
	for _, t := range claimed {
		batch.Add(1)
		sem <- struct{}{}
		go func(t *task.Task) {
			defer batch.Done()
			defer func() { <-sem }()
			e.dispatch(ctx, t)
		}(t)
	}
	batch.Wait()

	return len(claimed), nil
}

// dispatch runs one claimed task through its handler and persists the outcome
func (e *Engine) dispatch(ctx context.Context, t *task.Task) {
	log := e.logger.With(
		zap.String("task_id", t.ID.String()),
		zap.String("kind", t.Kind),
	)

	handler, ok := e.handlers[t.Kind]
	if !ok {
		// Retrying cannot help an unknown kind
		t.MaxRetries = t.RetryCount + 1
		t.Fail("no handler registered for kind "+t.Kind, e.clock.Now())
		if err := e.repo.Update(ctx, t); err != nil {
			log.Error("failed to persist task failure", zap.Error(err))
		}
		log.Error("no handler registered, task moved to failed")
		return
	}

	err := e.execute(ctx, handler, t)

	switch {
	case err == nil:
		if err := t.Complete(e.clock.Now()); err != nil {
			log.Error("failed to complete task", zap.Error(err))
			t.Fail(err.Error(), e.clock.Now())
		}
	case errors.Is(err, ErrSuspended):
		// SleepUntil already persisted the suspension
		log.Debug("task suspended", zap.Time("due_at", t.DueAt))
		return
	default:
		t.Fail(err.Error(), e.clock.Now())
		if t.State == task.StateFailed {
			log.Error("task failed permanently",
				zap.Int("retry_count", t.RetryCount),
				zap.Error(err),
			)
		} else {
			log.Warn("task failed, will retry",
				zap.Int("retry_count", t.RetryCount),
				zap.Time("next_retry_at", t.DueAt),
				zap.Error(err),
			)
		}
	}

	if err := e.repo.Update(ctx, t); err != nil {
		log.Error("failed to persist task state", zap.Error(err))
	}
}

// execute invokes the handler, containing panics so a broken handler only
// fails its own task
func (e *Engine) execute(ctx context.Context, handler Handler, t *task.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()

	return handler.Execute(ctx, NewTaskRun(t, e.repo, e.clock))
}

func (e *Engine) cleanupLoop(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := e.clock.Now().Add(-e.config.CleanupRetention)
			removed, err := e.repo.DeleteDoneBefore(ctx, cutoff)
			if err != nil {
				e.logger.Error("task cleanup failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				e.logger.Info("cleaned up done tasks", zap.Int64("removed", removed))
			}
		}
	}
}
