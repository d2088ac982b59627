// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/rewindlab/riftrewind/internal/logging"
	"github.com/rewindlab/riftrewind/internal/metrics"
	"github.com/rewindlab/riftrewind/internal/models"
	"github.com/rewindlab/riftrewind/internal/narrative"
	"github.com/rewindlab/riftrewind/internal/season"
	"github.com/rewindlab/riftrewind/internal/store"
)

// Finale handles journey.finale: assembles the season summary from
// whatever quarters completed and persists it. The summary is written
// at most once; narrative text is not deterministic, so a redelivery
// after the write must not regenerate it.
func (h *Handlers) Finale(msg *message.Message) error {
	start := time.Now()
	ctx := msg.Context()

	cmd, err := h.ser.Unmarshal(msg)
	if err != nil {
		return err
	}
	if err := cmd.Validate(TopicFinale); err != nil {
		return err
	}

	log := logging.With().Str("job_id", cmd.JobID).Logger()

	if _, err := h.store.GetSummary(ctx, cmd.JobID); err == nil {
		log.Debug().Msg("season summary already exists, skipping")
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	job, err := h.registry.GetJob(ctx, cmd.JobID)
	if err != nil {
		return err
	}

	artifacts, err := h.store.ListArtifacts(ctx, cmd.JobID)
	if err != nil {
		return fmt.Errorf("list artifacts: %w", err)
	}
	datasets, err := h.store.ListDatasets(ctx, cmd.JobID)
	if err != nil {
		return fmt.Errorf("list datasets: %w", err)
	}

	var incomplete []string
	for _, label := range models.Quarters {
		if job.Quarters[label] != models.StatusReady {
			incomplete = append(incomplete, label)
		}
	}

	sum := season.Build(season.Input{
		JobID:      cmd.JobID,
		Artifacts:  artifacts,
		Datasets:   datasets,
		Incomplete: incomplete,
	})

	out := h.narrative.Finale(ctx, &narrative.FinaleRequest{
		PlayerName: job.RiotID,
		TotalGames: sum.Totals.TotalGames,
		Chapters:   chapters(artifacts),
	})
	sum.Lore = out.Lore
	sum.Reflections = out.Reflections
	sum.NarrativeDegraded = out.Degraded

	if err := h.store.PutSummary(ctx, &sum); err != nil {
		return err
	}

	log.Info().
		Int("quarters", len(artifacts)).
		Strs("incomplete", incomplete).
		Int("total_games", sum.Totals.TotalGames).
		Dur("elapsed", time.Since(start)).
		Msg("season summary written")
	metrics.RecordStage("finale", start)

	return nil
}

func chapters(artifacts []models.QuarterArtifact) []narrative.Chapter {
	out := make([]narrative.Chapter, 0, len(artifacts))
	for i := range artifacts {
		a := &artifacts[i]
		top := make([]string, 0, len(a.Profile.Top))
		for _, v := range a.Profile.Top {
			top = append(top, v.Name)
		}
		out = append(out, narrative.Chapter{
			Quarter:   a.Quarter,
			Region:    a.Region,
			Lore:      a.Lore,
			TopValues: top,
			Stats:     a.Stats,
		})
	}
	return out
}
