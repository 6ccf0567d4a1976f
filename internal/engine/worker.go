package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ZoOtMcNoOt/gaitqueue/pkg/models"
)

// runJob executes one attempt on a worker slot. The handler runs in its own
// goroutine so a forced cancellation or timeout frees the slot immediately
// instead of waiting for the handler to notice its context.
func (e *Engine) runJob(ctx context.Context, id string, handler HandlerFunc, run *Run) {
	defer e.wg.Done()
	defer func() { <-e.sem }()

	outcomeCh := make(chan Outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("job handler panicked", "job_id", id, "panic", r)
				outcomeCh <- Failure(fmt.Sprintf("handler panic: %v", r))
			}
		}()
		outcomeCh <- handler(ctx, run)
	}()

	select {
	case out := <-outcomeCh:
		e.applyOutcome(id, out)
	case <-ctx.Done():
		// Cancelled, timed out, or the engine is shutting down. If a forced
		// transition already claimed the job this is a no-op; on shutdown it
		// records the interrupted job as cancelled.
		e.applyOutcome(id, Cancelled())
	}
}

// applyOutcome turns a handler verdict into a state transition. The first
// transition wins: if the job already left the running state, because it was
// cancelled or timed out while the handler was finishing, the verdict is
// discarded.
func (e *Engine) applyOutcome(id string, out Outcome) {
	e.mu.Lock()
	defer e.mu.Unlock()

	job, ok := e.jobs[id]
	if !ok {
		return
	}
	if job.Status != models.StatusRunning {
		return
	}
	exec, ok := e.running[id]
	if !ok {
		return
	}
	delete(e.running, id)
	defer exec.cancel()

	now := time.Now()
	duration := now.Sub(exec.startedAt)

	switch out.Kind {
	case OutcomeSuccess:
		job.ResultData = out.ResultData
		job.Progress.Percentage = 100
		e.foldProcessingTime(duration)
		e.finishTerminalLocked(job, models.StatusCompleted, now)
		slog.Info("job completed",
			"job_id", id,
			"kind", job.Payload.Kind,
			"duration", duration,
			"attempt", job.RetryCount+1,
		)

	case OutcomeRetry:
		if job.RetryCount < job.MaxRetries {
			job.RetryCount++
			job.Status = models.StatusQueued
			job.ErrorMessage = out.Reason
			if e.cfg.RetryDelay > 0 {
				next := now.Add(e.cfg.RetryDelay)
				job.NextAttemptAt = &next
			}
			e.enqueueLocked(id, job.Priority)
			slog.Info("job requeued for retry",
				"job_id", id,
				"kind", job.Payload.Kind,
				"retry_count", job.RetryCount,
				"max_retries", job.MaxRetries,
				"reason", out.Reason,
			)
			return
		}
		job.ErrorMessage = fmt.Sprintf("max retries exceeded: %s", out.Reason)
		e.foldProcessingTime(duration)
		e.finishTerminalLocked(job, models.StatusFailed, now)
		slog.Warn("job failed, retry budget exhausted",
			"job_id", id,
			"kind", job.Payload.Kind,
			"retry_count", job.RetryCount,
			"reason", out.Reason,
		)

	case OutcomeCancel:
		if out.Reason != "" {
			job.ErrorMessage = out.Reason
		}
		e.finishTerminalLocked(job, models.StatusCancelled, now)
		slog.Info("job cancelled by handler", "job_id", id, "kind", job.Payload.Kind)

	default: // OutcomeFailure and anything unrecognized
		reason := out.Reason
		if reason == "" {
			reason = "handler reported failure"
		}
		job.ErrorMessage = reason
		e.foldProcessingTime(duration)
		e.finishTerminalLocked(job, models.StatusFailed, now)
		slog.Warn("job failed",
			"job_id", id,
			"kind", job.Payload.Kind,
			"duration", duration,
			"attempt", job.RetryCount+1,
			"reason", reason,
		)
	}
}
