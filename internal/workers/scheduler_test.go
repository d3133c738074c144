package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingWorker counts Run invocations
type countingWorker struct {
	*BaseWorker
	runs atomic.Int64
}

func newCountingWorker(name string, interval time.Duration, enabled bool) *countingWorker {
	return &countingWorker{
		BaseWorker: NewBaseWorker(name, interval, enabled),
	}
}

func (w *countingWorker) Run(ctx context.Context) error {
	w.runs.Add(1)
	w.RecordRun(nil)
	return nil
}

// panickyWorker panics on every run
type panickyWorker struct {
	*BaseWorker
}

func (w *panickyWorker) Run(ctx context.Context) error {
	panic("boom")
}

func TestScheduler_RunsImmediatelyThenOnTicks(t *testing.T) {
	scheduler := NewScheduler()
	worker := newCountingWorker("counting", 30*time.Millisecond, true)
	scheduler.RegisterWorker(worker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, scheduler.Start(ctx))
	defer func() { _ = scheduler.Stop() }()

	// The first run happens before the first tick
	assert.Eventually(t, func() bool {
		return worker.runs.Load() >= 1
	}, time.Second, 5*time.Millisecond)

	// Subsequent runs follow the interval
	assert.Eventually(t, func() bool {
		return worker.runs.Load() >= 3
	}, time.Second, 5*time.Millisecond)

	health := worker.Health()
	assert.GreaterOrEqual(t, health.RunCount, int64(1))
	assert.Zero(t, health.ErrorCount)
	assert.NoError(t, health.LastError)
}

func TestScheduler_SkipsDisabledWorkers(t *testing.T) {
	scheduler := NewScheduler()
	worker := newCountingWorker("disabled", 10*time.Millisecond, false)
	scheduler.RegisterWorker(worker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, scheduler.Start(ctx))
	defer func() { _ = scheduler.Stop() }()

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, worker.runs.Load())
}

func TestScheduler_StartTwiceFails(t *testing.T) {
	scheduler := NewScheduler()
	scheduler.RegisterWorker(newCountingWorker("counting", time.Minute, true))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, scheduler.Start(ctx))
	defer func() { _ = scheduler.Stop() }()

	assert.Error(t, scheduler.Start(ctx))
	assert.True(t, scheduler.IsRunning())
}

func TestScheduler_StopWithoutStartFails(t *testing.T) {
	scheduler := NewScheduler()
	assert.Error(t, scheduler.Stop())
}

func TestScheduler_StopHaltsWorkers(t *testing.T) {
	scheduler := NewScheduler()
	worker := newCountingWorker("counting", 10*time.Millisecond, true)
	scheduler.RegisterWorker(worker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, scheduler.Start(ctx))

	assert.Eventually(t, func() bool {
		return worker.runs.Load() >= 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, scheduler.Stop())
	assert.False(t, scheduler.IsRunning())

	countAfterStop := worker.runs.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, countAfterStop, worker.runs.Load(), "no runs after Stop")
}

func TestScheduler_SurvivesWorkerPanic(t *testing.T) {
	scheduler := NewScheduler()
	scheduler.RegisterWorker(&panickyWorker{
		BaseWorker: NewBaseWorker("panicky", 10*time.Millisecond, true),
	})
	healthy := newCountingWorker("healthy", 10*time.Millisecond, true)
	scheduler.RegisterWorker(healthy)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, scheduler.Start(ctx))
	defer func() { _ = scheduler.Stop() }()

	// The panicking worker must not take the scheduler down
	assert.Eventually(t, func() bool {
		return healthy.runs.Load() >= 2
	}, time.Second, 5*time.Millisecond)
	assert.True(t, scheduler.IsRunning())
}

func TestScheduler_RegisterAfterStartIsIgnored(t *testing.T) {
	scheduler := NewScheduler()
	scheduler.RegisterWorker(newCountingWorker("first", time.Minute, true))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, scheduler.Start(ctx))
	defer func() { _ = scheduler.Stop() }()

	late := newCountingWorker("late", 10*time.Millisecond, true)
	scheduler.RegisterWorker(late)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, late.runs.Load(), "late registration must not run")
}
