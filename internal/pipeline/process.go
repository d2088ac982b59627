// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

package pipeline

import (
	"context"
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
	"github.com/rewindlab/riftrewind/internal/themes"
	"github.com/rewindlab/riftrewind/internal/values"
)

// Process handles journey.process: derives the quarter's value profile,
// stats, theme and narrative from its dataset, persists the artifact,
// and enqueues the next quarter's fetch (or the finale after Q4).
func (h *Handlers) Process(msg *message.Message) error {
	start := time.Now()
	ctx := msg.Context()

	cmd, err := h.ser.Unmarshal(msg)
	if err != nil {
		return err
	}
	if err := cmd.Validate(TopicProcess); err != nil {
		return err
	}

	log := logging.With().Str("job_id", cmd.JobID).Str("quarter", cmd.Quarter).Logger()

	applied, forward, err := h.transition(ctx, cmd.JobID, cmd.Quarter, models.StatusFetched, models.StatusProcessing)
	if err != nil {
		return err
	}
	if !applied {
		if !forward {
			log.Debug().Msg("duplicate process for a quarter not yet fetched, dropping")
			return nil
		}
		log.Debug().Msg("quarter already past fetched, forwarding")
		return h.publishNext(cmd.JobID, cmd.Quarter)
	}

	ds, err := h.store.GetDataset(ctx, cmd.JobID, cmd.Quarter)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	profile := values.Compute(ds)
	stats := season.BuildQuarterStats(ds.Records)

	idx := models.QuarterIndex(cmd.Quarter)
	prevProfile, prevLore := h.priorChapter(ctx, cmd.JobID, idx)
	_, region := themes.Select(idx, profile, prevProfile)

	out := h.narrative.Quarter(ctx, &narrative.QuarterRequest{
		Quarter:      cmd.Quarter,
		Region:       region,
		TopValues:    profile.Top,
		Stats:        stats,
		PreviousLore: prevLore,
	})

	artifact := &models.QuarterArtifact{
		JobID:             cmd.JobID,
		Quarter:           cmd.Quarter,
		DateRange:         formatDateRange(ds.Window),
		Stats:             stats,
		Profile:           profile,
		Region:            region,
		Lore:              out.Lore,
		Reflection:        out.Reflection,
		NarrativeDegraded: out.Degraded,
		ChampionGames:     championGames(ds.Records),
	}
	if err := h.store.PutArtifact(ctx, artifact); err != nil {
		return err
	}

	if _, _, err := h.transition(ctx, cmd.JobID, cmd.Quarter, models.StatusProcessing, models.StatusReady); err != nil {
		return err
	}

	log.Info().
		Str("region", region).
		Int("games", profile.Games).
		Bool("narrative_degraded", out.Degraded).
		Dur("elapsed", time.Since(start)).
		Msg("quarter processed")
	metrics.RecordStage("process", start)

	return h.publishNext(cmd.JobID, cmd.Quarter)
}

// priorChapter loads the previous quarter's artifact for theme deltas
// and lore continuity. A missing artifact (first quarter, or a failed
// predecessor) yields nil continuity rather than an error.
func (h *Handlers) priorChapter(ctx context.Context, jobID string, idx int) (*models.ValueProfile, string) {
	if idx <= 1 {
		return nil, ""
	}
	prev, err := h.store.GetArtifact(ctx, jobID, models.Quarters[idx-2])
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logging.Err(err).Str("job_id", jobID).Msg("prior artifact lookup failed")
		}
		return nil, ""
	}
	return &prev.Profile, prev.Lore
}

func championGames(records []models.MatchRecord) map[string]int {
	games := make(map[string]int)
	for i := range records {
		games[records[i].Champion]++
	}
	return games
}

func formatDateRange(w models.QuarterWindow) string {
	last := w.End.AddDate(0, 0, -1)
	return w.Start.Format("2006-01-02") + " to " + last.Format("2006-01-02")
}
