// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/rewindlab/riftrewind/internal/config"
	"github.com/rewindlab/riftrewind/internal/metrics"
	"github.com/rewindlab/riftrewind/internal/models"
	"github.com/rewindlab/riftrewind/internal/narrative"
	"github.com/rewindlab/riftrewind/internal/registry"
	"github.com/rewindlab/riftrewind/internal/riot"
	"github.com/rewindlab/riftrewind/internal/store"
)

// Handlers holds the stage handlers' shared dependencies. One instance
// serves all four topics.
type Handlers struct {
	registry  *registry.Registry
	store     *store.Store
	riot      riot.Client
	narrative *narrative.Generator
	publisher message.Publisher
	ser       *Serializer
	cfg       config.PipelineConfig

	// now is the clock used for quarter windows, injectable in tests.
	now func() time.Time
}

// NewHandlers wires the stage handlers.
func NewHandlers(reg *registry.Registry, st *store.Store, rc riot.Client, gen *narrative.Generator, pub message.Publisher, cfg config.PipelineConfig) *Handlers {
	return &Handlers{
		registry:  reg,
		store:     st,
		riot:      rc,
		narrative: gen,
		publisher: pub,
		ser:       NewSerializer(),
		cfg:       cfg,
		now:       time.Now,
	}
}

// publish validates and enqueues one stage command.
func (h *Handlers) publish(topic string, cmd *StageCommand) error {
	if err := cmd.Validate(topic); err != nil {
		return err
	}
	msg, err := h.ser.Marshal(cmd)
	if err != nil {
		return err
	}
	if err := h.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// publishNext enqueues the stage after a completed quarter: the next
// quarter's fetch, or the finale once Q4 is done.
func (h *Handlers) publishNext(jobID, quarter string) error {
	idx := models.QuarterIndex(quarter)
	if idx == 0 {
		return fmt.Errorf("unknown quarter %q", quarter)
	}
	if idx < len(models.Quarters) {
		return h.publish(TopicFetch, &StageCommand{JobID: jobID, Quarter: models.Quarters[idx]})
	}
	return h.publish(TopicFinale, &StageCommand{JobID: jobID})
}

// transition performs the CAS status move and records its metric. A
// miss can mean two things under at-least-once delivery: the quarter is
// already at or past to because another delivery did this step (forward
// the chain so a crash between persist and enqueue cannot strand it),
// or the quarter has not yet reached from because this duplicate
// arrived early (drop it; the in-flight delivery will drive the chain).
// forward distinguishes the two on a miss.
func (h *Handlers) transition(ctx context.Context, jobID, quarter string, from, to models.QuarterStatus) (applied, forward bool, err error) {
	applied, err = h.registry.TransitionQuarter(ctx, jobID, quarter, from, to)
	if err != nil {
		return false, false, err
	}
	metrics.RecordTransition(string(to), applied)
	if applied {
		return true, true, nil
	}

	job, err := h.registry.GetJob(ctx, jobID)
	if err != nil {
		return false, false, err
	}
	current := job.Quarters[quarter]
	return false, current.Rank() >= to.Rank(), nil
}
