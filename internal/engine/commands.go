package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ZoOtMcNoOt/gaitqueue/pkg/models"
)

// defaultMaxRetries is the retry budget a submission gets unless overridden.
// A job is attempted at most MaxRetries+1 times.
const defaultMaxRetries = 3

// SubmitOption adjusts a job at submission time.
type SubmitOption func(*models.Job)

// WithMaxRetries overrides the retry budget. n is the number of re-attempts
// after the first, so 0 disables retries entirely.
func WithMaxRetries(n int) SubmitOption {
	return func(j *models.Job) {
		if n >= 0 {
			j.MaxRetries = n
		}
	}
}

// WithTimeout overrides the per-attempt execution deadline.
func WithTimeout(d time.Duration) SubmitOption {
	return func(j *models.Job) {
		if secs := int(d / time.Second); secs > 0 {
			j.TimeoutSeconds = secs
		}
	}
}

// WithDependencies gates dispatch until every listed job has completed.
// Dependencies on failed or cancelled jobs never become satisfied.
func WithDependencies(ids ...string) SubmitOption {
	return func(j *models.Job) {
		j.Dependencies = append(j.Dependencies, ids...)
	}
}

// WithMetadata attaches one metadata key to the job.
func WithMetadata(key, value string) SubmitOption {
	return func(j *models.Job) {
		if j.Metadata == nil {
			j.Metadata = make(map[string]string)
		}
		j.Metadata[key] = value
	}
}

// Submit validates the payload, admits the job and enqueues it. It returns
// the generated job id. Admission fails with ErrQueueFull when the tracked
// job count has reached MaxQueueSize, and with ErrNoHandler when nothing is
// registered for the payload kind.
func (e *Engine) Submit(payload models.JobPayload, priority models.Priority, opts ...SubmitOption) (string, error) {
	if err := payload.Validate(); err != nil {
		return "", fmt.Errorf("invalid payload: %w", err)
	}
	if !priority.Valid() {
		return "", fmt.Errorf("invalid priority %d", int(priority))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return "", ErrClosed
	}
	if _, ok := e.handlers[payload.Kind]; !ok {
		return "", fmt.Errorf("%w: %s", ErrNoHandler, payload.Kind)
	}
	if len(e.jobs) >= e.cfg.MaxQueueSize {
		return "", ErrQueueFull
	}

	job := &models.Job{
		ID:             uuid.NewString(),
		Payload:        payload,
		Priority:       priority,
		Status:         models.StatusQueued,
		Progress:       models.NewProgress(),
		CreatedAt:      time.Now(),
		MaxRetries:     defaultMaxRetries,
		TimeoutSeconds: int(e.cfg.JobTimeout / time.Second),
	}
	for _, opt := range opts {
		opt(job)
	}

	e.jobs[job.ID] = job
	e.enqueueLocked(job.ID, job.Priority)

	slog.Info("job submitted",
		"job_id", job.ID,
		"kind", job.Payload.Kind,
		"priority", job.Priority.String(),
		"queue_length", e.queue.len(),
	)
	return job.ID, nil
}

// enqueueLocked places a job id into the queue, by priority or FIFO depending
// on configuration. Callers hold e.mu.
func (e *Engine) enqueueLocked(id string, prio models.Priority) {
	if !e.cfg.PriorityScheduling {
		e.queue.push(id)
		return
	}
	e.queue.insert(id, prio, func(other string) models.Priority {
		if j, ok := e.jobs[other]; ok {
			return j.Priority
		}
		return models.PriorityCritical
	})
}

// GetJob returns a snapshot of the job with the given id.
func (e *Engine) GetJob(id string) (*models.Job, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	job, ok := e.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return job.Clone(), nil
}

// ListJobs returns snapshots of tracked jobs, oldest submission first. A
// non-nil filter restricts the result to one status.
func (e *Engine) ListJobs(filter *models.Status) []*models.Job {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*models.Job, 0, len(e.jobs))
	for _, job := range e.jobs {
		if filter != nil && job.Status != *filter {
			continue
		}
		out = append(out, job.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Cancel stops a job. Queued jobs are pulled out of the queue; running jobs
// get their context cancelled and are marked cancelled immediately, without
// waiting for the handler to notice. Any other state returns ErrInvalidState.
func (e *Engine) Cancel(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	job, ok := e.jobs[id]
	if !ok {
		return ErrNotFound
	}

	switch job.Status {
	case models.StatusQueued:
		e.queue.remove(id)
		e.finishTerminalLocked(job, models.StatusCancelled, time.Now())
		slog.Info("job cancelled", "job_id", id, "was", "queued")
		return nil
	case models.StatusRunning:
		exec := e.running[id]
		delete(e.running, id)
		e.finishTerminalLocked(job, models.StatusCancelled, time.Now())
		if exec != nil {
			exec.cancel()
		}
		slog.Info("job cancelled", "job_id", id, "was", "running")
		return nil
	default:
		return fmt.Errorf("%w: job is %s", ErrInvalidState, job.Status)
	}
}

// finishTerminalLocked moves a job into a terminal state exactly once.
// Callers hold e.mu and must have verified the job is not terminal yet.
func (e *Engine) finishTerminalLocked(job *models.Job, status models.Status, at time.Time) {
	job.Status = status
	if job.CompletedAt == nil {
		ts := at
		job.CompletedAt = &ts
	}
	job.NextAttemptAt = nil
	e.finished++
}

// CleanupCompleted evicts terminal jobs whose completion time is older than
// the retention window and returns how many were removed. The sweeper calls
// this on a schedule; callers can also trigger it directly.
func (e *Engine) CleanupCompleted() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := time.Now().Add(-e.cfg.CleanupAfter)
	removed := 0
	for id, job := range e.jobs {
		if !job.Status.IsTerminal() {
			continue
		}
		if job.CompletedAt == nil || !job.CompletedAt.Before(cutoff) {
			continue
		}
		delete(e.jobs, id)
		removed++
	}
	if removed > 0 {
		slog.Info("terminal jobs evicted", "removed", removed, "tracked", len(e.jobs))
	}
	return removed
}
