package models

// QueueStats is a point-in-time snapshot of the engine, derived from tracked
// jobs at read time rather than maintained as live counters.
type QueueStats struct {
	TotalJobs                    int     `json:"total_jobs"`
	QueuedJobs                   int     `json:"queued_jobs"`
	RunningJobs                  int     `json:"running_jobs"`
	CompletedJobs                int     `json:"completed_jobs"`
	FailedJobs                   int     `json:"failed_jobs"`
	CancelledJobs                int     `json:"cancelled_jobs"`
	QueueLength                  int     `json:"queue_length"`
	OldestQueuedJobAgeSeconds    int64   `json:"oldest_queued_job_age_seconds"`
	AverageProcessingTimeSeconds float64 `json:"average_processing_time_seconds"`
	ThroughputJobsPerMinute      float64 `json:"throughput_jobs_per_minute"`
	WorkerUtilization            float64 `json:"worker_utilization"`
}
