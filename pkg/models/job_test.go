package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityJSON(t *testing.T) {
	job := Job{ID: "j1", Priority: PriorityCritical, Status: StatusQueued}
	raw, err := json.Marshal(job)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"priority":"critical"`)

	var back Job
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, PriorityCritical, back.Priority)

	var bad Job
	err = json.Unmarshal([]byte(`{"priority":"urgent"}`), &bad)
	assert.Error(t, err)
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{"low", PriorityLow, false},
		{"normal", PriorityNormal, false},
		{"high", PriorityHigh, false},
		{"critical", PriorityCritical, false},
		{"Critical", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePriority(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePriority(%q): expected error, got %v", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePriority(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParsePriority(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	terminal := []Status{StatusCompleted, StatusFailed, StatusCancelled}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	live := []Status{StatusQueued, StatusRunning, StatusPaused}
	for _, s := range live {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}

	if _, err := ParseStatus("sleeping"); err == nil {
		t.Error("ParseStatus should reject unknown states")
	}
}

func TestProgressUpdate(t *testing.T) {
	pr := NewProgress()
	require.Equal(t, 1, pr.TotalSteps)

	start := time.Now().Add(-10 * time.Second)
	pr.Update(25, 100, "session-025", start)

	assert.Equal(t, 25, pr.ItemsProcessed)
	assert.Equal(t, 100, pr.TotalItems)
	assert.Equal(t, "session-025", pr.CurrentItem)
	assert.InDelta(t, 25.0, pr.Percentage, 0.001)
	// 25 items over ~10s is ~2.5/s, leaving ~30s for the remaining 75.
	assert.InDelta(t, 2.5, pr.ThroughputItemsPerSecond, 0.5)
	assert.InDelta(t, 30, float64(pr.EstimatedRemainingSeconds), 7)

	pr.Update(100, 100, "session-100", start)
	assert.InDelta(t, 100.0, pr.Percentage, 0.001)
	assert.Zero(t, pr.EstimatedRemainingSeconds)
}

func TestProgressUpdateZeroTotal(t *testing.T) {
	pr := NewProgress()
	pr.Update(0, 0, "", time.Now())
	assert.Zero(t, pr.Percentage)
	assert.Zero(t, pr.ThroughputItemsPerSecond)
}

func TestJobClone(t *testing.T) {
	started := time.Now()
	job := &Job{
		ID: "j1",
		Payload: JobPayload{
			Kind:       KindDataExport,
			DataExport: &DataExportParams{SessionIDs: []string{"s1"}, Format: "csv", OutputPath: "/tmp/out"},
		},
		Priority:     PriorityHigh,
		Status:       StatusRunning,
		StartedAt:    &started,
		Dependencies: []string{"j0"},
		Metadata:     map[string]string{"origin": "test"},
	}

	cp := job.Clone()
	cp.Status = StatusCompleted
	cp.Dependencies[0] = "changed"
	cp.Metadata["origin"] = "changed"
	cp.Payload.DataExport.SessionIDs[0] = "changed"
	*cp.StartedAt = started.Add(time.Hour)

	assert.Equal(t, StatusRunning, job.Status)
	assert.Equal(t, "j0", job.Dependencies[0])
	assert.Equal(t, "test", job.Metadata["origin"])
	assert.Equal(t, "s1", job.Payload.DataExport.SessionIDs[0])
	assert.True(t, job.StartedAt.Equal(started))
}
