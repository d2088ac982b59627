// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"golang.org/x/sync/errgroup"

	"github.com/rewindlab/riftrewind/internal/logging"
	"github.com/rewindlab/riftrewind/internal/metrics"
	"github.com/rewindlab/riftrewind/internal/models"
	"github.com/rewindlab/riftrewind/internal/registry"
)

// Fetch handles journey.fetch: pulls the quarter's match history from
// the upstream API, normalizes it into a dataset, and enqueues the
// process stage.
func (h *Handlers) Fetch(msg *message.Message) error {
	start := time.Now()
	ctx := msg.Context()

	cmd, err := h.ser.Unmarshal(msg)
	if err != nil {
		return err
	}
	if err := cmd.Validate(TopicFetch); err != nil {
		return err
	}

	log := logging.With().Str("job_id", cmd.JobID).Str("quarter", cmd.Quarter).Logger()

	job, err := h.registry.GetJob(ctx, cmd.JobID)
	if err != nil {
		if errors.Is(err, registry.ErrJobNotFound) {
			log.Warn().Msg("fetch command for unknown job, dropping")
			return nil
		}
		return err
	}

	applied, forward, err := h.transition(ctx, cmd.JobID, cmd.Quarter, models.StatusPending, models.StatusFetching)
	if err != nil {
		return err
	}
	if !applied {
		if !forward {
			log.Debug().Msg("duplicate fetch for a quarter not yet started, dropping")
			return nil
		}
		// A previous delivery already fetched this quarter. Forward so a
		// crash between the dataset write and the enqueue cannot strand
		// the chain.
		log.Debug().Msg("quarter already past pending, forwarding to process")
		return h.publish(TopicProcess, cmd)
	}

	puuid := job.PUUID
	if puuid == "" {
		gameName, tagLine, ok := strings.Cut(job.RiotID, "#")
		if !ok {
			return fmt.Errorf("malformed riot id %q", job.RiotID)
		}
		puuid, err = h.riot.ResolvePUUID(ctx, job.Platform, gameName, tagLine)
		if err != nil {
			return fmt.Errorf("resolve puuid: %w", err)
		}
		if err := h.registry.SetPUUID(ctx, job.ID, puuid); err != nil {
			return err
		}
	}

	window, err := models.WindowFor(h.now(), cmd.Quarter)
	if err != nil {
		return err
	}

	ids, err := h.riot.ListMatchIDs(ctx, job.Platform, puuid, window, h.cfg.MaxMatchesPerQuarter)
	if err != nil {
		return fmt.Errorf("list match ids: %w", err)
	}

	records, err := h.fetchMatches(ctx, ids, puuid)
	if err != nil {
		return err
	}

	ds := &models.QuarterDataset{
		JobID:   cmd.JobID,
		Quarter: cmd.Quarter,
		Window:  window,
		Records: records,
	}
	if err := h.store.PutDataset(ctx, ds); err != nil {
		return err
	}

	if _, _, err := h.transition(ctx, cmd.JobID, cmd.Quarter, models.StatusFetching, models.StatusFetched); err != nil {
		return err
	}

	log.Info().
		Int("matches", len(ids)).
		Int("records", len(records)).
		Dur("elapsed", time.Since(start)).
		Msg("quarter fetched")
	metrics.RecordStage("fetch", start)

	return h.publish(TopicProcess, cmd)
}

// fetchMatches downloads matches concurrently and returns the surviving
// records sorted by game start time so the dataset bytes are
// deterministic across redeliveries.
func (h *Handlers) fetchMatches(ctx context.Context, ids []string, puuid string) ([]models.MatchRecord, error) {
	var mu sync.Mutex
	records := make([]models.MatchRecord, 0, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.cfg.FetchConcurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			rec, err := h.riot.FetchMatch(gctx, id, puuid)
			if err != nil {
				return fmt.Errorf("fetch match %s: %w", id, err)
			}
			if rec == nil {
				return nil // Filtered queue
			}
			mu.Lock()
			records = append(records, *rec)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].GameStart.Equal(records[j].GameStart) {
			return records[i].GameStart.Before(records[j].GameStart)
		}
		return records[i].MatchID < records[j].MatchID
	})
	return records, nil
}
