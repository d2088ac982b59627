// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/rewindlab/riftrewind/internal/models"
	"github.com/rewindlab/riftrewind/internal/pipeline"
	"github.com/rewindlab/riftrewind/internal/registry"
	"github.com/rewindlab/riftrewind/internal/store"
)

// maxSubmitBodySize bounds the journey submission body.
const maxSubmitBodySize = 64 * 1024

// defaultJobListLimit caps GET /api/v1/jobs when no limit is given.
const defaultJobListLimit = 50

// Handler serves the journey API. Submissions go through the
// orchestrator; everything else reads the registry and document store
// directly.
type Handler struct {
	orch     *pipeline.Orchestrator
	registry *registry.Registry
	store    *store.Store
	version  string
}

// NewHandler wires the API handler.
func NewHandler(orch *pipeline.Orchestrator, reg *registry.Registry, st *store.Store, version string) *Handler {
	return &Handler{orch: orch, registry: reg, store: st, version: version}
}

// SubmitJourney handles POST /api/v1/journey.
func (h *Handler) SubmitJourney(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.SubmitJourneyRequest
	body := io.LimitReader(r.Body, maxSubmitBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed request body", err)
		return
	}

	res, err := h.orch.Submit(r.Context(), &pipeline.SubmitRequest{
		Platform:    req.Platform,
		RiotID:      req.RiotID,
		Archetype:   req.Archetype,
		BypassCache: req.BypassCache,
	})
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), err)
		return
	}

	status := http.StatusAccepted
	if res.Cached {
		status = http.StatusOK
	}
	respondSuccess(w, status, &models.SubmitJourneyResponse{
		JobID:  res.Job.ID,
		Queued: !res.Cached,
		Cached: res.Cached,
	}, start, res.Cached)
}

// JobStatus handles GET /api/v1/journey/{jobID}/status.
func (h *Handler) JobStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	jobID := chi.URLParam(r, "jobID")

	job, err := h.registry.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, registry.ErrJobNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "SERVICE_ERROR", "Failed to load job", err)
		return
	}

	respondSuccess(w, http.StatusOK, &models.JobStatusResponse{
		JobID:     job.ID,
		Status:    job.Status,
		Quarters:  job.Quarters,
		CreatedAt: job.CreatedAt,
	}, start, false)
}

// QuarterArtifact handles GET /api/v1/journey/{jobID}/quarters/{quarter}.
func (h *Handler) QuarterArtifact(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	jobID := chi.URLParam(r, "jobID")
	quarter := chi.URLParam(r, "quarter")

	if models.QuarterIndex(quarter) == 0 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown quarter label", nil)
		return
	}

	artifact, err := h.store.GetArtifact(r.Context(), jobID, quarter)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Quarter artifact not ready", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "SERVICE_ERROR", "Failed to load artifact", err)
		return
	}

	respondSuccess(w, http.StatusOK, artifact, start, false)
}

// Finale handles GET /api/v1/journey/{jobID}/finale.
func (h *Handler) Finale(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	jobID := chi.URLParam(r, "jobID")

	summary, err := h.store.GetSummary(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Season summary not ready", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "SERVICE_ERROR", "Failed to load summary", err)
		return
	}

	respondSuccess(w, http.StatusOK, summary, start, false)
}

// ListJobs handles GET /api/v1/jobs.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	limit := getIntParam(r, "limit", defaultJobListLimit)

	jobs, err := h.registry.ListJobs(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "SERVICE_ERROR", "Failed to list jobs", err)
		return
	}

	respondSuccess(w, http.StatusOK, jobs, start, false)
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": h.version,
	}, time.Now(), false)
}

// HealthLive handles GET /api/v1/health/live. Liveness only proves the
// process is serving requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]string{"status": "alive"}, time.Now(), false)
}

// HealthReady handles GET /api/v1/health/ready. Readiness proves the
// job registry is reachable.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if _, err := h.registry.ListJobs(r.Context(), 1); err != nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "Storage not ready", err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"status": "ready"}, time.Now(), false)
}
