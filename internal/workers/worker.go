package workers

import (
	"context"
	"sync"
	"time"

	"clubhub/pkg/logger"
)

// Worker defines the interface for background workers
type Worker interface {
	// Name returns the unique identifier for this worker
	Name() string

	// Run executes one iteration of the worker's task.
	// The scheduler calls this immediately on start and then on every
	// Interval() tick.
	Run(ctx context.Context) error

	// Interval returns how often this worker should run
	Interval() time.Duration

	// Enabled returns whether this worker is active
	Enabled() bool
}

// Health contains health information for a worker
type Health struct {
	LastRun    time.Time
	LastError  error
	RunCount   int64
	ErrorCount int64
	Enabled    bool
}

// BaseWorker provides common functionality for workers
type BaseWorker struct {
	name     string
	interval time.Duration
	enabled  bool
	log      *logger.Logger

	healthMu   sync.RWMutex
	lastRun    time.Time
	lastError  error
	runCount   int64
	errorCount int64
}

// NewBaseWorker creates a new base worker
func NewBaseWorker(name string, interval time.Duration, enabled bool) *BaseWorker {
	return &BaseWorker{
		name:     name,
		interval: interval,
		enabled:  enabled,
		log:      logger.Get().With("worker", name),
	}
}

// Name returns the worker name
func (w *BaseWorker) Name() string {
	return w.name
}

// Interval returns the run interval
func (w *BaseWorker) Interval() time.Duration {
	return w.interval
}

// Enabled returns whether the worker is enabled
func (w *BaseWorker) Enabled() bool {
	w.healthMu.RLock()
	defer w.healthMu.RUnlock()
	return w.enabled
}

// Log returns the logger
func (w *BaseWorker) Log() *logger.Logger {
	return w.log
}

// Health returns health information for the worker
func (w *BaseWorker) Health() Health {
	w.healthMu.RLock()
	defer w.healthMu.RUnlock()

	return Health{
		LastRun:    w.lastRun,
		LastError:  w.lastError,
		RunCount:   w.runCount,
		ErrorCount: w.errorCount,
		Enabled:    w.enabled,
	}
}

// RecordRun records a completed run
func (w *BaseWorker) RecordRun(err error) {
	w.healthMu.Lock()
	defer w.healthMu.Unlock()

	w.lastRun = time.Now()
	w.runCount++
	w.lastError = err
	if err != nil {
		w.errorCount++
	}
}
