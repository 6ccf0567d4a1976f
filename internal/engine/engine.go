// Package engine implements the batch job engine: a priority queue, a
// dependency-aware scheduler and a bounded worker pool behind one mutex.
// Callers submit work and poll; handlers execute it and report outcomes.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ZoOtMcNoOt/gaitqueue/pkg/models"
)

var (
	// ErrQueueFull is returned by Submit when the tracked-job cap is reached.
	ErrQueueFull = errors.New("job queue is full")
	// ErrNotFound is returned when no tracked job carries the given id.
	ErrNotFound = errors.New("job not found")
	// ErrInvalidState is returned when a job cannot leave its current state,
	// for example cancelling a job that already completed.
	ErrInvalidState = errors.New("job cannot be cancelled in current state")
	// ErrNoHandler is returned by Submit when no handler is registered for
	// the payload's kind.
	ErrNoHandler = errors.New("no handler registered for job kind")
	// ErrClosed is returned once the engine has been stopped.
	ErrClosed = errors.New("engine is stopped")
)

// Config tunes the engine. Zero values fall back to the defaults below.
type Config struct {
	// MaxConcurrentJobs caps how many handlers run at once.
	MaxConcurrentJobs int
	// JobTimeout is the default per-attempt execution deadline, used when a
	// submission does not override it.
	JobTimeout time.Duration
	// RetryDelay is how long a job waits after a Retry outcome before it is
	// eligible for dispatch again.
	RetryDelay time.Duration
	// MaxQueueSize caps the total number of tracked jobs, terminal ones
	// included, admitted at once.
	MaxQueueSize int
	// CleanupAfter is the retention window for terminal jobs; the sweeper
	// evicts anything that finished longer ago than this.
	CleanupAfter time.Duration
	// TickInterval is the scheduler cadence: one dispatch attempt per tick.
	TickInterval time.Duration
	// SweepInterval is how often the retention sweeper runs.
	SweepInterval time.Duration
	// PriorityScheduling orders the queue by priority when true; when false
	// the queue is plain FIFO.
	PriorityScheduling bool
	// WorkerThreads is advisory only, kept for parity with deployments that
	// tune OS thread counts. The pool size is MaxConcurrentJobs.
	WorkerThreads int
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentJobs:  4,
		JobTimeout:         time.Hour,
		RetryDelay:         60 * time.Second,
		MaxQueueSize:       1000,
		CleanupAfter:       24 * time.Hour,
		TickInterval:       time.Second,
		SweepInterval:      time.Hour,
		PriorityScheduling: true,
		WorkerThreads:      2,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxConcurrentJobs <= 0 {
		c.MaxConcurrentJobs = def.MaxConcurrentJobs
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = def.JobTimeout
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = def.RetryDelay
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = def.MaxQueueSize
	}
	if c.CleanupAfter <= 0 {
		c.CleanupAfter = def.CleanupAfter
	}
	if c.TickInterval <= 0 {
		c.TickInterval = def.TickInterval
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = def.SweepInterval
	}
	if c.WorkerThreads <= 0 {
		c.WorkerThreads = def.WorkerThreads
	}
	return c
}

// execution tracks one in-flight attempt. startedAt anchors the timeout for
// this attempt, and cancel is the live signal delivered to the handler.
type execution struct {
	startedAt time.Time
	timeout   time.Duration
	cancel    context.CancelFunc
}

// Engine owns all job state. One mutex guards the job table, the queue and
// the running set; handlers execute outside the lock and re-enter through
// applyOutcome.
type Engine struct {
	cfg Config

	mu       sync.Mutex
	jobs     map[string]*models.Job
	queue    jobQueue
	running  map[string]*execution
	handlers map[models.JobKind]HandlerFunc

	// avgSeconds is the incremental mean duration of completed and failed
	// attempts; avgCount is how many outcomes it folds. finished counts every
	// terminal transition and feeds the throughput figure.
	avgSeconds float64
	avgCount   int64
	finished   int64

	started   bool
	closed    bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	sem       chan struct{}
	startedAt time.Time
}

// New builds a stopped engine. Register handlers, then call Start.
func New(cfg Config) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		cfg:       cfg,
		jobs:      make(map[string]*models.Job),
		running:   make(map[string]*execution),
		handlers:  make(map[models.JobKind]HandlerFunc),
		sem:       make(chan struct{}, cfg.MaxConcurrentJobs),
		startedAt: time.Now(),
	}
}

// Register binds a handler to a job kind. Submissions of a kind with no
// handler are rejected, so registration normally happens before Start.
func (e *Engine) Register(kind models.JobKind, fn HandlerFunc) error {
	if fn == nil {
		return fmt.Errorf("nil handler for kind %q", kind)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dup := e.handlers[kind]; dup {
		return fmt.Errorf("handler already registered for kind %q", kind)
	}
	e.handlers[kind] = fn
	return nil
}

// Start launches the scheduler and the retention sweeper. The engine stops
// when Stop is called or ctx is cancelled, whichever comes first.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.started {
		e.mu.Unlock()
		return errors.New("engine already started")
	}
	ctx, e.cancel = context.WithCancel(ctx)
	e.started = true
	e.startedAt = time.Now()
	e.mu.Unlock()

	e.wg.Add(2)
	go e.schedulerLoop(ctx)
	go e.sweeperLoop(ctx)

	slog.Info("engine started",
		"max_concurrent_jobs", e.cfg.MaxConcurrentJobs,
		"max_queue_size", e.cfg.MaxQueueSize,
		"tick_interval", e.cfg.TickInterval,
		"priority_scheduling", e.cfg.PriorityScheduling,
		"worker_threads", e.cfg.WorkerThreads,
	)
	return nil
}

// Stop rejects further submissions, signals every running handler and blocks
// until the scheduler, sweeper and workers have exited. Jobs still running
// are recorded as cancelled.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	cancel := e.cancel
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	e.wg.Wait()
	slog.Info("engine stopped")
}

func (e *Engine) sweeperLoop(ctx context.Context) {
	defer e.wg.Done()
	ticker := time.NewTicker(e.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := e.CleanupCompleted(); removed > 0 {
				slog.Info("retention sweep evicted jobs", "removed", removed)
			}
		}
	}
}

// foldProcessingTime updates the running mean with one more attempt duration.
// Callers hold e.mu.
func (e *Engine) foldProcessingTime(d time.Duration) {
	e.avgCount++
	n := float64(e.avgCount)
	e.avgSeconds = (e.avgSeconds*(n-1) + d.Seconds()) / n
}
