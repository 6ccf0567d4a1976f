package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ZoOtMcNoOt/gaitqueue/pkg/models"
)

// runCommand executes the command tree against the given server and returns
// the captured stdout.
func runCommand(t *testing.T, serverURL string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(append(args, "--addr", serverURL, "--api-key", "gq_test_key_12345678"))
	err := root.Execute()
	return buf.String(), err
}

// --- submit tests ---

func TestSubmitCmd_PrintsJobID(t *testing.T) {
	var capturedBody []byte
	ts := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/jobs" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		capturedBody, _ = io.ReadAll(r.Body)
		writeData(w, http.StatusAccepted, map[string]string{"job_id": "job-42", "status": "queued"})
	})
	defer ts.Close()

	payload := `{"kind":"data_cleanup","data_cleanup":{"older_than_days":30,"preserve_important":true}}`
	out, err := runCommand(t, ts.URL, "submit", payload,
		"--priority", "high",
		"--max-retries", "2",
		"--timeout-seconds", "600",
		"--depends-on", "dep-1,dep-2",
		"--meta", "requested_by=ops",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Job job-42 queued.") {
		t.Errorf("unexpected output: %q", out)
	}

	var sent map[string]any
	if err := json.Unmarshal(capturedBody, &sent); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	if sent["priority"] != "high" {
		t.Errorf("expected priority high, got %v", sent["priority"])
	}
	if sent["max_retries"] != float64(2) {
		t.Errorf("expected max_retries 2, got %v", sent["max_retries"])
	}
	if sent["timeout_seconds"] != float64(600) {
		t.Errorf("expected timeout_seconds 600, got %v", sent["timeout_seconds"])
	}
	deps, _ := sent["dependencies"].([]any)
	if len(deps) != 2 || deps[0] != "dep-1" {
		t.Errorf("expected dependencies [dep-1 dep-2], got %v", sent["dependencies"])
	}
	meta, _ := sent["metadata"].(map[string]any)
	if meta["requested_by"] != "ops" {
		t.Errorf("expected metadata requested_by=ops, got %v", sent["metadata"])
	}
}

func TestSubmitCmd_OmitsUnsetOptionals(t *testing.T) {
	var capturedBody []byte
	ts := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		capturedBody, _ = io.ReadAll(r.Body)
		writeData(w, http.StatusAccepted, map[string]string{"job_id": "job-1", "status": "queued"})
	})
	defer ts.Close()

	payload := `{"kind":"data_cleanup","data_cleanup":{"older_than_days":7}}`
	if _, err := runCommand(t, ts.URL, "submit", payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sent map[string]any
	if err := json.Unmarshal(capturedBody, &sent); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	for _, key := range []string{"max_retries", "timeout_seconds", "priority", "dependencies", "metadata"} {
		if _, ok := sent[key]; ok {
			t.Errorf("expected %s to be omitted, got %v", key, sent[key])
		}
	}
}

func TestSubmitCmd_InvalidJSON(t *testing.T) {
	ts := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called for invalid payload JSON")
	})
	defer ts.Close()

	_, err := runCommand(t, ts.URL, "submit", "{not json")
	if err == nil {
		t.Fatal("expected error for invalid payload JSON")
	}
	if !strings.Contains(err.Error(), "invalid payload JSON") {
		t.Errorf("unexpected error: %v", err)
	}
}

// --- status tests ---

func TestStatusCmd_PrintsJob(t *testing.T) {
	started := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	ts := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/jobs/job-7" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		writeData(w, http.StatusOK, models.Job{
			ID:         "job-7",
			Payload:    cleanupPayload(),
			Priority:   models.PriorityHigh,
			Status:     models.StatusCompleted,
			Progress:   models.Progress{Percentage: 100},
			CreatedAt:  started.Add(-time.Minute),
			StartedAt:  &started,
			MaxRetries: 3,
			ResultData: "Cleaned up data older than 30 days",
		})
	})
	defer ts.Close()

	out, err := runCommand(t, ts.URL, "status", "job-7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"Job:       job-7",
		"Kind:      data_cleanup",
		"Status:    completed",
		"Priority:  high",
		"Progress:  100.0%",
		"Attempts:  1 of 4",
		"Result:    Cleaned up data older than 30 days",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestStatusCmd_NotFound(t *testing.T) {
	ts := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found")
	})
	defer ts.Close()

	_, err := runCommand(t, ts.URL, "status", "missing")
	if err == nil {
		t.Fatal("expected error for missing job")
	}
	if !strings.Contains(err.Error(), "Job not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

// --- list tests ---

func TestListCmd_Table(t *testing.T) {
	var capturedStatus string
	ts := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		capturedStatus = r.URL.Query().Get("status")
		writeData(w, http.StatusOK, []models.Job{
			{ID: "job-a", Payload: cleanupPayload(), Priority: models.PriorityNormal, Status: models.StatusRunning},
			{ID: "job-b", Payload: cleanupPayload(), Priority: models.PriorityLow, Status: models.StatusQueued},
		})
	})
	defer ts.Close()

	out, err := runCommand(t, ts.URL, "list", "--status", "running")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if capturedStatus != "running" {
		t.Errorf("expected status param 'running', got %q", capturedStatus)
	}
	if !strings.Contains(out, "ID") || !strings.Contains(out, "KIND") {
		t.Errorf("output missing table header:\n%s", out)
	}
	if !strings.Contains(out, "job-a") || !strings.Contains(out, "job-b") {
		t.Errorf("output missing job rows:\n%s", out)
	}
}

func TestListCmd_Empty(t *testing.T) {
	ts := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, []models.Job{})
	})
	defer ts.Close()

	out, err := runCommand(t, ts.URL, "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No jobs found.") {
		t.Errorf("unexpected output: %q", out)
	}
}

// --- cancel tests ---

func TestCancelCmd_Output(t *testing.T) {
	ts := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		writeData(w, http.StatusOK, map[string]string{"job_id": "job-3", "status": "cancelled"})
	})
	defer ts.Close()

	out, err := runCommand(t, ts.URL, "cancel", "job-3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Job job-3 cancelled.") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestCancelCmd_Conflict(t *testing.T) {
	ts := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusConflict, "INVALID_STATE", "Job cannot be cancelled in current state")
	})
	defer ts.Close()

	_, err := runCommand(t, ts.URL, "cancel", "done-job")
	if err == nil {
		t.Fatal("expected error for terminal job")
	}
	if !strings.Contains(err.Error(), "INVALID_STATE") {
		t.Errorf("unexpected error: %v", err)
	}
}

// --- stats, cleanup and health tests ---

func TestStatsCmd_Output(t *testing.T) {
	ts := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, models.QueueStats{
			TotalJobs:               12,
			QueuedJobs:              3,
			RunningJobs:             2,
			CompletedJobs:           6,
			FailedJobs:              1,
			QueueLength:             3,
			ThroughputJobsPerMinute: 8.5,
			WorkerUtilization:       50,
		})
	})
	defer ts.Close()

	out, err := runCommand(t, ts.URL, "stats")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"Total jobs:      12",
		"queued:        3",
		"running:       2",
		"Throughput:      8.5 jobs/min",
		"Workers busy:    50%",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCleanupCmd_Output(t *testing.T) {
	ts := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, map[string]int{"removed": 4})
	})
	defer ts.Close()

	out, err := runCommand(t, ts.URL, "cleanup")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Removed 4 jobs.") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestHealthCmd_Output(t *testing.T) {
	ts := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, map[string]any{
			"status":       "ok",
			"queued_jobs":  2,
			"running_jobs": 1,
		})
	})
	defer ts.Close()

	out, err := runCommand(t, ts.URL, "health")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Status: ok (queued 2, running 1)") {
		t.Errorf("unexpected output: %q", out)
	}
}

// --- flag plumbing tests ---

func TestRootCmd_AddrFromEnv(t *testing.T) {
	ts := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	defer ts.Close()

	t.Setenv("GAITQUEUE_ADDR", ts.URL)
	root := NewRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"health"})
	if err := root.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "Status: ok") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestRootCmd_APIKeySent(t *testing.T) {
	var capturedAuth string
	ts := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		capturedAuth = r.Header.Get("Authorization")
		writeData(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	defer ts.Close()

	if _, err := runCommand(t, ts.URL, "health"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if capturedAuth != "Bearer gq_test_key_12345678" {
		t.Errorf("expected bearer header, got %q", capturedAuth)
	}
}
