package handler

import (
	"net/http"

	"github.com/ZoOtMcNoOt/gaitqueue/internal/api/response"
)

// NewStatsHandler returns an http.HandlerFunc for GET /api/v1/stats.
func NewStatsHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, svc.Stats())
	}
}

type cleanupResponse struct {
	Removed int `json:"removed"`
}

// NewCleanupHandler returns an http.HandlerFunc for POST /api/v1/jobs/cleanup.
// It runs the retention sweep immediately instead of waiting for the timer.
func NewCleanupHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, cleanupResponse{Removed: svc.CleanupCompleted()})
	}
}
