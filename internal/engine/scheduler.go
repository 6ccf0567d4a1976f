package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ZoOtMcNoOt/gaitqueue/pkg/models"
)

// schedulerLoop is the single dispatch goroutine. Each tick it first fails
// any running job past its deadline, then attempts to dispatch the head of
// the queue. One pop attempt per tick keeps dispatch ordering deterministic.
func (e *Engine) schedulerLoop(ctx context.Context) {
	defer e.wg.Done()
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.enforceTimeouts()
			e.dispatchNext(ctx)
		}
	}
}

// enforceTimeouts fails every running job whose current attempt has exceeded
// its deadline. The transition is applied here, not left to the handler: the
// handler's context is cancelled and whatever it returns later is discarded.
func (e *Engine) enforceTimeouts() {
	now := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	for id, exec := range e.running {
		if now.Sub(exec.startedAt) <= exec.timeout {
			continue
		}
		job, ok := e.jobs[id]
		if !ok {
			delete(e.running, id)
			exec.cancel()
			continue
		}
		delete(e.running, id)
		job.ErrorMessage = fmt.Sprintf("timed out after %ds", int(exec.timeout/time.Second))
		e.foldProcessingTime(now.Sub(exec.startedAt))
		e.finishTerminalLocked(job, models.StatusFailed, now)
		exec.cancel()
		slog.Warn("job timed out",
			"job_id", id,
			"kind", job.Payload.Kind,
			"timeout_seconds", int(exec.timeout/time.Second),
			"attempt", job.RetryCount+1,
		)
	}
}

// dispatchNext pops at most one ready job and hands it to a worker. The pop
// is skipped when every worker slot is busy. A popped job that is not ready
// yet, because a dependency is unfinished or a retry is still backing off,
// goes to the tail and is reconsidered on a later tick.
func (e *Engine) dispatchNext(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	default:
		return
	}
	dispatched := false
	defer func() {
		if !dispatched {
			<-e.sem
		}
	}()

	id, ok := e.queue.popFront()
	if !ok {
		return
	}
	job, ok := e.jobs[id]
	if !ok || job.Status != models.StatusQueued {
		// Stale queue entry; the job was cancelled or evicted after being
		// enqueued. Drop it.
		return
	}

	now := time.Now()
	if !e.readyLocked(job, now) {
		e.queue.push(id)
		return
	}

	handler := e.handlers[job.Payload.Kind]
	job.Status = models.StatusRunning
	if job.StartedAt == nil {
		ts := now
		job.StartedAt = &ts
	}
	job.NextAttemptAt = nil

	runCtx, cancelRun := context.WithCancel(ctx)
	e.running[id] = &execution{
		startedAt: now,
		timeout:   job.Timeout(),
		cancel:    cancelRun,
	}

	run := &Run{
		jobID:   id,
		payload: job.Payload,
		meta:    copyMeta(job.Metadata),
		attempt: job.RetryCount + 1,
		eng:     e,
	}

	dispatched = true
	e.wg.Add(1)
	go e.runJob(runCtx, id, handler, run)

	slog.Info("job dispatched",
		"job_id", id,
		"kind", job.Payload.Kind,
		"priority", job.Priority.String(),
		"attempt", run.attempt,
		"queue_length", e.queue.len(),
	)
}

// readyLocked reports whether a queued job may be dispatched now: its retry
// backoff has elapsed and every dependency has completed. Callers hold e.mu.
func (e *Engine) readyLocked(job *models.Job, now time.Time) bool {
	if job.NextAttemptAt != nil && now.Before(*job.NextAttemptAt) {
		return false
	}
	return e.dependenciesMetLocked(job)
}

// dependenciesMetLocked reports whether every dependency of the job has
// completed. Unknown ids and dependencies that failed or were cancelled count
// as unmet, which parks the job in the queue indefinitely.
func (e *Engine) dependenciesMetLocked(job *models.Job) bool {
	for _, depID := range job.Dependencies {
		dep, ok := e.jobs[depID]
		if !ok || dep.Status != models.StatusCompleted {
			return false
		}
	}
	return true
}

func copyMeta(meta map[string]string) map[string]string {
	if meta == nil {
		return nil
	}
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
