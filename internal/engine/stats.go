package engine

import (
	"time"

	"github.com/ZoOtMcNoOt/gaitqueue/pkg/models"
)

// Stats derives a snapshot of the engine from the job table. Counters are
// recomputed on every call; only the processing-time mean and the finished
// count are carried state, so eviction of old jobs cannot skew them.
func (e *Engine) Stats() models.QueueStats {
	now := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	s := models.QueueStats{
		TotalJobs:                    len(e.jobs),
		QueueLength:                  e.queue.len(),
		AverageProcessingTimeSeconds: e.avgSeconds,
	}

	for _, job := range e.jobs {
		switch job.Status {
		case models.StatusQueued:
			s.QueuedJobs++
		case models.StatusRunning:
			s.RunningJobs++
		case models.StatusCompleted:
			s.CompletedJobs++
		case models.StatusFailed:
			s.FailedJobs++
		case models.StatusCancelled:
			s.CancelledJobs++
		}
	}

	if head, ok := e.queue.head(); ok {
		if job, ok := e.jobs[head]; ok {
			s.OldestQueuedJobAgeSeconds = int64(now.Sub(job.CreatedAt) / time.Second)
		}
	}

	if e.cfg.MaxConcurrentJobs > 0 {
		s.WorkerUtilization = float64(s.RunningJobs) / float64(e.cfg.MaxConcurrentJobs) * 100
	}
	if uptime := now.Sub(e.startedAt).Minutes(); uptime > 0 {
		s.ThroughputJobsPerMinute = float64(e.finished) / uptime
	}
	return s
}
