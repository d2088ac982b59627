// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/rewindlab/riftrewind/internal/logging"
	"github.com/rewindlab/riftrewind/internal/metrics"
	"github.com/rewindlab/riftrewind/internal/models"
	"github.com/rewindlab/riftrewind/internal/registry"
	"github.com/rewindlab/riftrewind/internal/riot"
)

// DefaultArchetype is the narrative variant used when a request does
// not pick one.
const DefaultArchetype = "sage"

// SubmitRequest is a validated journey submission.
type SubmitRequest struct {
	Platform    string
	RiotID      string
	Archetype   string
	BypassCache bool
}

// SubmitResult is the submission outcome. Cached marks a reused
// completed job instead of a fresh one.
type SubmitResult struct {
	Job    *models.Job
	Cached bool
}

// Orchestrator accepts journey submissions and starts the quarter
// chain. Reads go straight to the registry and store; only the write
// path runs through here.
type Orchestrator struct {
	registry  *registry.Registry
	publisher message.Publisher
	ser       *Serializer
	now       func() time.Time
}

// NewOrchestrator creates the submission front end.
func NewOrchestrator(reg *registry.Registry, pub message.Publisher) *Orchestrator {
	return &Orchestrator{
		registry:  reg,
		publisher: pub,
		ser:       NewSerializer(),
		now:       time.Now,
	}
}

// Submit validates the request, reuses a completed job with the same
// fingerprint unless the cache is bypassed, and otherwise creates a
// fresh job and enqueues Q1's fetch.
func (o *Orchestrator) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResult, error) {
	if !riot.ValidPlatform(req.Platform) {
		return nil, fmt.Errorf("unknown platform %q", req.Platform)
	}
	if !strings.Contains(req.RiotID, "#") {
		return nil, fmt.Errorf("riot id must be in Game#Tag form")
	}
	archetype := req.Archetype
	if archetype == "" {
		archetype = DefaultArchetype
	}

	fingerprint := models.Fingerprint(req.Platform, req.RiotID, archetype)
	if req.BypassCache {
		metrics.CacheBypasses.Inc()
	} else {
		reusable, err := o.registry.FindReusable(ctx, fingerprint)
		if err != nil && !errors.Is(err, registry.ErrJobNotFound) {
			return nil, err
		}
		if reusable != nil {
			metrics.CacheHits.Inc()
			logging.Info().
				Str("job_id", reusable.ID).
				Str("fingerprint", fingerprint).
				Msg("reusing completed job")
			return &SubmitResult{Job: reusable, Cached: true}, nil
		}
		metrics.CacheMisses.Inc()
	}

	quarters := make(map[string]models.QuarterStatus, len(models.Quarters))
	for _, label := range models.Quarters {
		quarters[label] = models.StatusPending
	}
	job := &models.Job{
		ID:        uuid.NewString(),
		Platform:  req.Platform,
		RiotID:    req.RiotID,
		Archetype: archetype,
		CreatedAt: o.now().UTC(),
		Status:    models.JobQueued,
		Quarters:  quarters,
	}
	if err := o.registry.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	cmd := &StageCommand{JobID: job.ID, Quarter: models.Quarters[0]}
	msg, err := o.ser.Marshal(cmd)
	if err != nil {
		return nil, err
	}
	if err := o.publisher.Publish(TopicFetch, msg); err != nil {
		return nil, fmt.Errorf("enqueue first quarter: %w", err)
	}

	metrics.JobsSubmitted.Inc()
	logging.Info().
		Str("job_id", job.ID).
		Str("platform", job.Platform).
		Str("archetype", job.Archetype).
		Msg("journey submitted")
	return &SubmitResult{Job: job}, nil
}
