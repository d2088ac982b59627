// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

package pipeline

import (
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/rewindlab/riftrewind/internal/logging"
	"github.com/rewindlab/riftrewind/internal/models"
	"github.com/rewindlab/riftrewind/internal/registry"
)

// Poison handles journey.poison: a stage command that exhausted its
// retries. The quarter is marked errored and the chain continues, so
// one bad quarter degrades the season instead of halting it.
func (h *Handlers) Poison(msg *message.Message) error {
	ctx := msg.Context()

	cmd, err := h.ser.Unmarshal(msg)
	if err != nil {
		// The poisoned payload itself is unreadable; there is nothing to
		// recover, only log.
		logging.Err(err).Str("message_uuid", msg.UUID).Msg("undecodable poisoned message")
		return nil
	}

	originTopic := msg.Metadata.Get(middleware.PoisonedTopicKey)
	reason := msg.Metadata.Get(middleware.ReasonForPoisonedKey)

	log := logging.With().
		Str("job_id", cmd.JobID).
		Str("quarter", cmd.Quarter).
		Str("origin_topic", originTopic).
		Str("reason", reason).
		Logger()
	log.Error().Msg("stage command poisoned")

	if originTopic == TopicFinale || cmd.Quarter == "" {
		// A failed finale has no quarter to mark and no next stage.
		return nil
	}

	job, err := h.registry.GetJob(ctx, cmd.JobID)
	if err != nil {
		if errors.Is(err, registry.ErrJobNotFound) {
			return nil
		}
		return err
	}

	current := job.Quarters[cmd.Quarter]
	if !current.Terminal() {
		if _, _, err := h.transition(ctx, cmd.JobID, cmd.Quarter, current, models.StatusQuarterError); err != nil {
			return err
		}
	}

	return h.publishNext(cmd.JobID, cmd.Quarter)
}
