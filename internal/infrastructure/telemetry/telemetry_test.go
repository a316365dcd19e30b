package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap/zaptest"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), Config{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())

	// no-op wrapper must still hand out tracers and shut down cleanly
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.Shutdown(context.Background()))
	assert.NoError(t, tp.ForceFlush(context.Background()))
}

func TestTracerProvider_SpanProfilesDisabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), Config{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, tp.EnableSpanProfiles())
	assert.False(t, tp.IsSpanProfilesEnabled())
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := NewMeterProvider(context.Background(), MetricsConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestNewLoggerProvider_Disabled(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), LogsConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.Shutdown(context.Background()))
}

func TestNewZapOTELCore_Disabled(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), LogsConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)

	core := NewZapOTELCore(ZapBridgeConfig{ServiceName: "test", LoggerProvider: lp})
	require.NotNil(t, core)
}

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_MissingServerAddress(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "test"}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestNewAppMetrics_NilMeter(t *testing.T) {
	_, err := NewAppMetrics(AppMetricsConfig{})
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestAppMetrics_RecordCounters(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	am, err := NewAppMetrics(AppMetricsConfig{Meter: meter})
	require.NoError(t, err)
	defer am.Close()

	ctx := context.Background()
	am.RecordFollow(ctx)
	am.RecordConnectionRequest(ctx)
	am.RecordConnection(ctx)
	am.RecordMessage(ctx)
	am.RecordStory(ctx)
	am.RecordNotification(ctx, "connection.request")
	am.RecordTaskDispatch(ctx, "story.expiry", "completed", 12*time.Millisecond)
}

type fakeBacklogProvider struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeBacklogProvider) CountTasksByState(ctx context.Context) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return map[string]int64{"scheduled": 3, "failed": 1}, nil
}

func (f *fakeBacklogProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestAppMetrics_PeriodicBacklogCollection(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	provider := &fakeBacklogProvider{}

	am, err := NewAppMetrics(AppMetricsConfig{
		Meter:           meter,
		CollectInterval: 10 * time.Millisecond,
		BacklogProvider: provider,
	})
	require.NoError(t, err)
	defer am.Close()

	assert.Eventually(t, func() bool {
		return provider.callCount() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestAppMetrics_Close_Idempotent(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	am, err := NewAppMetrics(AppMetricsConfig{Meter: meter})
	require.NoError(t, err)

	am.Close()
	am.Close()
}
