package engine

import (
	"context"

	"github.com/ZoOtMcNoOt/gaitqueue/pkg/models"
)

// HandlerFunc executes one attempt of a job. The context is cancelled when
// the job is cancelled, times out, or the engine shuts down; handlers should
// poll it between units of work and return promptly once it is done. The
// returned Outcome decides the job's next transition.
type HandlerFunc func(ctx context.Context, run *Run) Outcome

// OutcomeKind classifies what a handler reported back.
type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeFailure OutcomeKind = "failure"
	OutcomeRetry   OutcomeKind = "retry"
	OutcomeCancel  OutcomeKind = "cancel"
)

// Outcome is a handler's verdict on one execution attempt.
type Outcome struct {
	Kind OutcomeKind
	// ResultData carries the success payload, free-form.
	ResultData string
	// Reason explains a failure or retry, and lands in the job's
	// error_message field.
	Reason string
}

// Success marks the attempt done and stores result as the job's result data.
func Success(result string) Outcome {
	return Outcome{Kind: OutcomeSuccess, ResultData: result}
}

// Failure marks the job permanently failed, bypassing any remaining retries.
func Failure(reason string) Outcome {
	return Outcome{Kind: OutcomeFailure, Reason: reason}
}

// Retry asks for another attempt. The engine requeues the job while retry
// budget remains and fails it otherwise.
func Retry(reason string) Outcome {
	return Outcome{Kind: OutcomeRetry, Reason: reason}
}

// Cancelled reports that the handler stopped in response to cancellation.
func Cancelled() Outcome {
	return Outcome{Kind: OutcomeCancel}
}

// Run is the handler's view of the attempt it is executing: read-only job
// facts plus progress reporting that feeds status polling.
type Run struct {
	jobID   string
	payload models.JobPayload
	meta    map[string]string
	attempt int
	eng     *Engine
}

// JobID returns the id of the job being executed.
func (r *Run) JobID() string { return r.jobID }

// Payload returns the work description for this job.
func (r *Run) Payload() models.JobPayload { return r.payload }

// Metadata returns the submission metadata. The map is a copy.
func (r *Run) Metadata() map[string]string { return r.meta }

// Attempt returns which attempt this is, starting at 1.
func (r *Run) Attempt() int { return r.attempt }

// UpdateProgress records that processed of total items are done. It is a
// no-op once the job has left the running state, so late reports from a
// cancelled handler cannot dirty a terminal job.
func (r *Run) UpdateProgress(processed, total int, currentItem string) {
	r.eng.updateProgress(r.jobID, processed, total, currentItem)
}

// SetStep records the coarse phase of a multi-step handler.
func (r *Run) SetStep(current, total int) {
	r.eng.setStep(r.jobID, current, total)
}

func (e *Engine) updateProgress(id string, processed, total int, currentItem string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	job, ok := e.jobs[id]
	if !ok || job.Status != models.StatusRunning {
		return
	}
	exec, ok := e.running[id]
	if !ok {
		return
	}
	job.Progress.Update(processed, total, currentItem, exec.startedAt)
}

func (e *Engine) setStep(id string, current, total int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	job, ok := e.jobs[id]
	if !ok || job.Status != models.StatusRunning {
		return
	}
	job.Progress.SetStep(current, total)
}
