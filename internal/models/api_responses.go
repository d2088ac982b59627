// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

package models

import "time"

// APIResponse is the standardized wrapper used by all HTTP endpoints.
//
// Status field values:
//   - "success": request completed, see Data
//   - "error": request failed, see Error
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError is the structured error body of a failed request.
//
// Common codes: VALIDATION_ERROR, NOT_FOUND, SERVICE_ERROR.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SubmitJourneyRequest is the body of POST /api/v1/journey.
type SubmitJourneyRequest struct {
	Platform  string `json:"platform"`
	RiotID    string `json:"riot_id"`
	Archetype string `json:"archetype"`

	// BypassCache forces a fresh job even when a completed one with the
	// same fingerprint exists. Needed after logic changes make cached
	// artifacts stale.
	BypassCache bool `json:"bypass_cache"`
}

// SubmitJourneyResponse reports the job created or reused for a
// submission.
type SubmitJourneyResponse struct {
	JobID  string `json:"job_id"`
	Queued bool   `json:"queued"`
	Cached bool   `json:"cached"`
}

// JobStatusResponse is the body of GET /api/v1/journey/{jobID}/status.
type JobStatusResponse struct {
	JobID     string                   `json:"job_id"`
	Status    JobStatus                `json:"status"`
	Quarters  map[string]QuarterStatus `json:"quarters"`
	CreatedAt time.Time                `json:"created_at"`
}
