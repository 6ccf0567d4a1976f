package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ZoOtMcNoOt/gaitqueue/internal/api/response"
	"github.com/ZoOtMcNoOt/gaitqueue/internal/engine"
	"github.com/ZoOtMcNoOt/gaitqueue/pkg/models"
)

// JobService defines the engine surface the handlers depend on.
type JobService interface {
	Submit(payload models.JobPayload, priority models.Priority, opts ...engine.SubmitOption) (string, error)
	GetJob(id string) (*models.Job, error)
	ListJobs(filter *models.Status) []*models.Job
	Cancel(id string) error
	Stats() models.QueueStats
	CleanupCompleted() int
}

type submitJobRequest struct {
	Payload        models.JobPayload `json:"payload"`
	Priority       string            `json:"priority"`
	MaxRetries     *int              `json:"max_retries"`
	TimeoutSeconds *int              `json:"timeout_seconds"`
	Dependencies   []string          `json:"dependencies"`
	Metadata       map[string]string `json:"metadata"`
}

type submitJobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// NewSubmitJobHandler returns an http.HandlerFunc for POST /api/v1/jobs.
// The job is accepted for asynchronous execution; poll GET /api/v1/jobs/{id}
// to follow it.
func NewSubmitJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitJobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if err := req.Payload.Validate(); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}

		if req.Priority == "" {
			req.Priority = "normal"
		}
		priority, err := models.ParsePriority(req.Priority)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"priority must be one of low, normal, high, critical", nil)
			return
		}

		var opts []engine.SubmitOption
		if req.MaxRetries != nil {
			if *req.MaxRetries < 0 {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"max_retries must not be negative", nil)
				return
			}
			opts = append(opts, engine.WithMaxRetries(*req.MaxRetries))
		}
		if req.TimeoutSeconds != nil {
			if *req.TimeoutSeconds < 1 {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"timeout_seconds must be at least 1", nil)
				return
			}
			opts = append(opts, engine.WithTimeout(time.Duration(*req.TimeoutSeconds)*time.Second))
		}
		if len(req.Dependencies) > 0 {
			opts = append(opts, engine.WithDependencies(req.Dependencies...))
		}
		for k, v := range req.Metadata {
			opts = append(opts, engine.WithMetadata(k, v))
		}

		jobID, err := svc.Submit(req.Payload, priority, opts...)
		if err != nil {
			switch {
			case errors.Is(err, engine.ErrQueueFull):
				w.Header().Set("Retry-After", "30")
				response.Error(w, http.StatusServiceUnavailable, "QUEUE_FULL",
					"Job queue is full", nil)
			case errors.Is(err, engine.ErrNoHandler):
				response.Error(w, http.StatusBadRequest, "UNSUPPORTED_KIND",
					"No handler is registered for this job kind", nil)
			case errors.Is(err, engine.ErrClosed):
				response.Error(w, http.StatusServiceUnavailable, "SHUTTING_DOWN",
					"The engine is shutting down", nil)
			default:
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			}
			return
		}

		response.Accepted(w, submitJobResponse{
			JobID:  jobID,
			Status: string(models.StatusQueued),
		})
	}
}

// NewGetJobHandler returns an http.HandlerFunc for GET /api/v1/jobs/{jobID}.
func NewGetJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobID")

		job, err := svc.GetJob(jobID)
		if err != nil {
			if errors.Is(err, engine.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.JSON(w, job)
	}
}

// NewListJobsHandler returns an http.HandlerFunc for GET /api/v1/jobs.
// An optional ?status= query restricts the listing to one lifecycle state.
func NewListJobsHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter *models.Status
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := models.ParseStatus(raw)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"status must be one of queued, running, paused, completed, failed, cancelled", nil)
				return
			}
			filter = &status
		}

		jobs := svc.ListJobs(filter)
		response.List(w, jobs, response.ListMeta{Count: len(jobs)})
	}
}

type cancelJobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// NewCancelJobHandler returns an http.HandlerFunc for DELETE /api/v1/jobs/{jobID}.
func NewCancelJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobID")

		if err := svc.Cancel(jobID); err != nil {
			switch {
			case errors.Is(err, engine.ErrNotFound):
				response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found", nil)
			case errors.Is(err, engine.ErrInvalidState):
				response.Error(w, http.StatusConflict, "INVALID_STATE",
					"Job cannot be cancelled in current state", nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"An unexpected error occurred", nil)
			}
			return
		}

		response.JSON(w, cancelJobResponse{
			JobID:  jobID,
			Status: string(models.StatusCancelled),
		})
	}
}
