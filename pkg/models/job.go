package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the lifecycle state of a job. Completed, Failed and Cancelled
// are terminal: once a job reaches one of them it never transitions again.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether s is a final state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusQueued, StatusRunning, StatusPaused, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// ParseStatus converts a string such as "queued" into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// Priority orders jobs in the queue. Higher values dispatch first;
// jobs of equal priority dispatch in submission order.
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

var priorityNames = map[Priority]string{
	PriorityLow:      "low",
	PriorityNormal:   "normal",
	PriorityHigh:     "high",
	PriorityCritical: "critical",
}

// Valid reports whether p is one of the four defined levels.
func (p Priority) Valid() bool {
	_, ok := priorityNames[p]
	return ok
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

// ParsePriority converts a string such as "high" into a Priority.
func ParsePriority(s string) (Priority, error) {
	for p, name := range priorityNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown priority %q", s)
}

// MarshalJSON renders the priority as its lowercase name.
func (p Priority) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid priority %d", int(p))
	}
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts the lowercase name form ("low" .. "critical").
func (p *Priority) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePriority(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Progress is the live progress report of a running job. Handlers update it
// through the engine; callers read it back when polling job status.
type Progress struct {
	CurrentStep               int       `json:"current_step"`
	TotalSteps                int       `json:"total_steps"`
	CurrentItem               string    `json:"current_item,omitempty"`
	ItemsProcessed            int       `json:"items_processed"`
	TotalItems                int       `json:"total_items"`
	Percentage                float64   `json:"percentage"`
	EstimatedRemainingSeconds int64     `json:"estimated_remaining_seconds"`
	ThroughputItemsPerSecond  float64   `json:"throughput_items_per_second"`
	LastUpdate                time.Time `json:"last_update"`
}

// NewProgress returns a zeroed report with a single step, so percentage math
// is well defined before the handler announces its real step count.
func NewProgress() Progress {
	return Progress{TotalSteps: 1, LastUpdate: time.Now()}
}

// Update records that processed of total items are done and recomputes the
// derived fields. Throughput and the remaining-time estimate are measured
// against since, the start of the current execution attempt.
func (pr *Progress) Update(processed, total int, currentItem string, since time.Time) {
	now := time.Now()
	pr.ItemsProcessed = processed
	pr.TotalItems = total
	pr.CurrentItem = currentItem
	if total > 0 {
		pr.Percentage = float64(processed) / float64(total) * 100
	}
	elapsed := now.Sub(since).Seconds()
	if elapsed > 0 && processed > 0 {
		pr.ThroughputItemsPerSecond = float64(processed) / elapsed
		remaining := total - processed
		if remaining > 0 {
			pr.EstimatedRemainingSeconds = int64(float64(remaining) / pr.ThroughputItemsPerSecond)
		} else {
			pr.EstimatedRemainingSeconds = 0
		}
	}
	pr.LastUpdate = now
}

// SetStep records the coarse step position of a multi-phase handler.
func (pr *Progress) SetStep(current, total int) {
	pr.CurrentStep = current
	if total > 0 {
		pr.TotalSteps = total
	}
	pr.LastUpdate = time.Now()
}

// Job is one unit of queued work. The API returns the job id on submission;
// the client polls job status until it reaches a terminal state.
type Job struct {
	ID             string            `json:"id"`
	Payload        JobPayload        `json:"payload"`
	Priority       Priority          `json:"priority"`
	Status         Status            `json:"status"`
	Progress       Progress          `json:"progress"`
	CreatedAt      time.Time         `json:"created_at"`
	StartedAt      *time.Time        `json:"started_at,omitempty"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
	NextAttemptAt  *time.Time        `json:"next_attempt_at,omitempty"`
	RetryCount     int               `json:"retry_count"`
	MaxRetries     int               `json:"max_retries"`
	TimeoutSeconds int               `json:"timeout_seconds"`
	Dependencies   []string          `json:"dependencies,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	ErrorMessage   string            `json:"error_message,omitempty"`
	ResultData     string            `json:"result_data,omitempty"`
}

// Timeout returns the per-attempt execution deadline as a duration.
func (j *Job) Timeout() time.Duration {
	return time.Duration(j.TimeoutSeconds) * time.Second
}

// Clone returns a deep copy, so callers can hold a snapshot without racing
// the engine's own mutations.
func (j *Job) Clone() *Job {
	out := *j
	if j.StartedAt != nil {
		t := *j.StartedAt
		out.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		out.CompletedAt = &t
	}
	if j.NextAttemptAt != nil {
		t := *j.NextAttemptAt
		out.NextAttemptAt = &t
	}
	if j.Dependencies != nil {
		out.Dependencies = append([]string(nil), j.Dependencies...)
	}
	if j.Metadata != nil {
		out.Metadata = make(map[string]string, len(j.Metadata))
		for k, v := range j.Metadata {
			out.Metadata[k] = v
		}
	}
	out.Payload = j.Payload.clone()
	return &out
}
