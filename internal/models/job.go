// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

package models

import (
	"fmt"
	"strings"
	"time"
)

// QuarterStatus is the per-quarter state of a job. Statuses only move
// forward through the fixed order pending < fetching < fetched <
// processing < ready; StatusQuarterError is reachable from any
// non-terminal state and is terminal for that quarter.
type QuarterStatus string

const (
	StatusPending    QuarterStatus = "pending"
	StatusFetching   QuarterStatus = "fetching"
	StatusFetched    QuarterStatus = "fetched"
	StatusProcessing QuarterStatus = "processing"
	StatusReady      QuarterStatus = "ready"
	// StatusQuarterError marks a quarter that exhausted retries or hit an
	// unrecoverable condition. It blocks the job's completed status but
	// not sibling quarters.
	StatusQuarterError QuarterStatus = "error"
)

// Rank returns the position of the status in the forward order.
// StatusQuarterError and unknown statuses return -1; they do not
// participate in the ordering.
func (s QuarterStatus) Rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusFetching:
		return 1
	case StatusFetched:
		return 2
	case StatusProcessing:
		return 3
	case StatusReady:
		return 4
	default:
		return -1
	}
}

// Terminal reports whether the status admits no further transitions.
func (s QuarterStatus) Terminal() bool {
	return s == StatusReady || s == StatusQuarterError
}

// CanTransitionTo reports whether moving from s to next is a legal
// forward step. Any non-terminal status may move to error.
func (s QuarterStatus) CanTransitionTo(next QuarterStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusQuarterError {
		return true
	}
	return next.Rank() == s.Rank()+1
}

// JobStatus is the overall status of a job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobError     JobStatus = "error"
)

// Quarters lists the quarter labels in processing order.
var Quarters = []string{"Q1", "Q2", "Q3", "Q4"}

// QuarterIndex returns the 1-based index of a quarter label, or 0 if
// the label is unknown.
func QuarterIndex(label string) int {
	for i, q := range Quarters {
		if q == label {
			return i + 1
		}
	}
	return 0
}

// FinaleKey addresses the season summary document alongside quarter
// artifacts in the document store.
const FinaleKey = "finale"

// Job is one end-to-end request to build a four-quarter journey package
// for one player. Owned by the registry; the quarter status map is the
// only field mutated after creation (PUUID is cached on first
// resolution).
type Job struct {
	ID        string                   `json:"job_id"`
	Platform  string                   `json:"platform"`
	RiotID    string                   `json:"riot_id"`
	PUUID     string                   `json:"puuid,omitempty"`
	Archetype string                   `json:"archetype"`
	CreatedAt time.Time                `json:"created_at"`
	Status    JobStatus                `json:"status"`
	Quarters  map[string]QuarterStatus `json:"quarters"`
}

// Fingerprint is the cache key for duplicate-request detection:
// requester identity plus variant, case-insensitive.
func (j *Job) Fingerprint() string {
	return Fingerprint(j.Platform, j.RiotID, j.Archetype)
}

// Fingerprint derives the cache key from its raw components.
func Fingerprint(platform, riotID, archetype string) string {
	return strings.ToLower(platform) + "|" + strings.ToLower(riotID) + "|" + strings.ToLower(archetype)
}

// OverallStatus derives the job-level status from the quarter map:
// completed iff all four quarters are ready; error once every quarter
// is terminal and at least one failed; running if any quarter has
// started; queued otherwise.
func (j *Job) OverallStatus() JobStatus {
	allReady := true
	allTerminal := true
	anyError := false
	anyStarted := false

	for _, label := range Quarters {
		st := j.Quarters[label]
		if st != StatusReady {
			allReady = false
		}
		if !st.Terminal() {
			allTerminal = false
		}
		if st == StatusQuarterError {
			anyError = true
		}
		if st != StatusPending {
			anyStarted = true
		}
	}

	switch {
	case allReady:
		return JobCompleted
	case allTerminal && anyError:
		return JobError
	case anyStarted:
		return JobRunning
	default:
		return JobQueued
	}
}

// Validate checks the request-derived fields of a job.
func (j *Job) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("job id required")
	}
	if j.Platform == "" {
		return fmt.Errorf("platform required")
	}
	if !strings.Contains(j.RiotID, "#") {
		return fmt.Errorf("riot id must be in Game#Tag form")
	}
	if len(j.Quarters) != len(Quarters) {
		return fmt.Errorf("job must track exactly %d quarters", len(Quarters))
	}
	return nil
}

// QuarterWindow is a quarter's UTC time window, half-open [Start, End).
type QuarterWindow struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// QuarterWindows returns the calendar-quarter windows of now's year in
// UTC. Q4's end is capped at now so an in-progress quarter only covers
// elapsed time.
func QuarterWindows(now time.Time) []QuarterWindow {
	now = now.UTC()
	y := now.Year()
	dt := func(m time.Month) time.Time {
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	}
	q4End := time.Date(y+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	if now.Before(q4End) {
		q4End = now
	}
	return []QuarterWindow{
		{Label: "Q1", Start: dt(time.January), End: dt(time.April)},
		{Label: "Q2", Start: dt(time.April), End: dt(time.July)},
		{Label: "Q3", Start: dt(time.July), End: dt(time.October)},
		{Label: "Q4", Start: dt(time.October), End: q4End},
	}
}

// WindowFor returns the window for a single quarter label.
func WindowFor(now time.Time, label string) (QuarterWindow, error) {
	for _, w := range QuarterWindows(now) {
		if w.Label == label {
			return w, nil
		}
	}
	return QuarterWindow{}, fmt.Errorf("unknown quarter %q", label)
}
