package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when metrics are constructed without a meter.
var ErrMeterNil = errors.New("meter is required")

// TaskBacklogProvider reports the scheduled task backlog for periodic
// collection. The telemetry layer stays decoupled from the task domain
// through this interface.
type TaskBacklogProvider interface {
	CountTasksByState(ctx context.Context) (map[string]int64, error)
}

// AppMetricsConfig holds configuration for application metrics.
type AppMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration
	BacklogProvider TaskBacklogProvider
}

// AppMetrics tracks social activity and scheduler health.
type AppMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	followsTotal            *Counter
	connectionRequestsTotal *Counter
	connectionsTotal        *Counter
	messagesTotal           *Counter
	storiesTotal            *Counter
	notificationsTotal      *Counter

	taskDispatchTotal *Counter
	taskDuration      *Histogram
	taskBacklog       *Gauge

	stopChan sync.Once
	stop     chan struct{}

	backlogProvider TaskBacklogProvider
}

// NewAppMetrics creates the application metric instruments.
func NewAppMetrics(cfg AppMetricsConfig) (*AppMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	am := &AppMetrics{
		meter:           cfg.Meter,
		logger:          logger,
		stop:            make(chan struct{}),
		backlogProvider: cfg.BacklogProvider,
	}

	var err error

	am.followsTotal, err = NewCounter(cfg.Meter,
		"social_follows_total", "Total follow edges created", "{follows}")
	if err != nil {
		return nil, err
	}

	am.connectionRequestsTotal, err = NewCounter(cfg.Meter,
		"social_connection_requests_total", "Total connection requests sent", "{requests}")
	if err != nil {
		return nil, err
	}

	am.connectionsTotal, err = NewCounter(cfg.Meter,
		"social_connections_total", "Total connections established", "{connections}")
	if err != nil {
		return nil, err
	}

	am.messagesTotal, err = NewCounter(cfg.Meter,
		"social_messages_total", "Total direct messages sent", "{messages}")
	if err != nil {
		return nil, err
	}

	am.storiesTotal, err = NewCounter(cfg.Meter,
		"social_stories_total", "Total stories posted", "{stories}")
	if err != nil {
		return nil, err
	}

	am.notificationsTotal, err = NewCounter(cfg.Meter,
		"social_notifications_total", "Total notifications delivered", "{notifications}")
	if err != nil {
		return nil, err
	}

	am.taskDispatchTotal, err = NewCounter(cfg.Meter,
		"scheduler_task_dispatch_total", "Total task dispatches by kind and outcome", "{dispatches}")
	if err != nil {
		return nil, err
	}

	am.taskDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "scheduler_task_duration_seconds",
		Description: "Task handler execution duration",
		Unit:        "s",
		Boundaries:  TaskDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	am.taskBacklog, err = NewGauge(cfg.Meter,
		"scheduler_task_backlog", "Tasks currently stored per state", "{tasks}")
	if err != nil {
		return nil, err
	}

	if cfg.BacklogProvider != nil {
		interval := cfg.CollectInterval
		if interval == 0 {
			interval = 5 * time.Minute
		}
		go am.collectLoop(interval)
	}

	return am, nil
}

// RecordFollow records a new follow edge.
func (am *AppMetrics) RecordFollow(ctx context.Context) {
	am.followsTotal.Inc(ctx)
}

// RecordConnectionRequest records a sent connection request.
func (am *AppMetrics) RecordConnectionRequest(ctx context.Context) {
	am.connectionRequestsTotal.Inc(ctx)
}

// RecordConnection records an established connection.
func (am *AppMetrics) RecordConnection(ctx context.Context) {
	am.connectionsTotal.Inc(ctx)
}

// RecordMessage records a sent direct message.
func (am *AppMetrics) RecordMessage(ctx context.Context) {
	am.messagesTotal.Inc(ctx)
}

// RecordStory records a posted story.
func (am *AppMetrics) RecordStory(ctx context.Context) {
	am.storiesTotal.Inc(ctx)
}

// RecordNotification records a delivered notification by kind.
func (am *AppMetrics) RecordNotification(ctx context.Context, kind string) {
	am.notificationsTotal.Inc(ctx, attribute.String("kind", kind))
}

// RecordTaskDispatch records one task dispatch with its outcome and duration.
func (am *AppMetrics) RecordTaskDispatch(ctx context.Context, kind, outcome string, duration time.Duration) {
	attrs := []attribute.KeyValue{
		AttrTaskKind.String(kind),
		AttrOutcome.String(outcome),
	}
	am.taskDispatchTotal.Inc(ctx, attrs...)
	am.taskDuration.RecordDuration(ctx, duration, attrs...)
}

// collectLoop samples the task backlog gauge on a fixed interval.
func (am *AppMetrics) collectLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-am.stop:
			return
		case <-ticker.C:
			am.collectBacklog()
		}
	}
}

func (am *AppMetrics) collectBacklog() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	counts, err := am.backlogProvider.CountTasksByState(ctx)
	if err != nil {
		am.logger.Warn("failed to collect task backlog", zap.Error(err))
		return
	}
	for state, count := range counts {
		am.taskBacklog.Record(ctx, count, AttrTaskState.String(state))
	}
}

// Close stops the periodic collector.
func (am *AppMetrics) Close() {
	am.stopChan.Do(func() { close(am.stop) })
}
