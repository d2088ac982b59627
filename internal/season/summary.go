// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

package season

import (
	"github.com/rewindlab/riftrewind/internal/models"
)

// Input carries everything the finale computation needs. Artifacts and
// Datasets hold only the quarters that reached ready, in quarter order;
// Incomplete lists the rest.
type Input struct {
	JobID      string
	Artifacts  []models.QuarterArtifact
	Datasets   []models.QuarterDataset
	Incomplete []string
}

// Build assembles the season summary from the available quarters. The
// narrative fields are left empty for the caller to fill. Building from
// zero quarters still yields a valid, mostly-empty summary.
func Build(in Input) models.SeasonSummary {
	trends := Trends(in.Artifacts)
	pool := BuildPool(in.Datasets)
	comebacks := BuildComebacks(in.Datasets)
	totals := buildTotals(in, trends, pool)

	incomplete := in.Incomplete
	if incomplete == nil {
		incomplete = []string{}
	}

	return models.SeasonSummary{
		JobID:              in.JobID,
		Trends:             trends,
		Highlights:         BuildHighlights(in.Datasets),
		Pool:               pool,
		Comebacks:          comebacks,
		Insights:           BuildInsights(totals, trends, pool, comebacks, primaryRole(in.Datasets)),
		Totals:             totals,
		Reflections:        []string{},
		IncompleteQuarters: incomplete,
	}
}

func buildTotals(in Input, trends map[string]models.MetricTrend, pool models.ChampionPool) models.YearTotals {
	totals := models.YearTotals{OverallTrend: overallTrend(trends)}

	var kdaSum, csSum, visionSum float64
	for _, qr := range flatten(in.Datasets) {
		totals.TotalGames++
		kdaSum += gameKDA(qr.rec)
		csSum += qr.rec.CSPerMin()
		visionSum += qr.rec.VisionScorePerMinute
	}
	if totals.TotalGames > 0 {
		n := float64(totals.TotalGames)
		totals.AvgKDA = kdaSum / n
		totals.AvgCSPerMin = csSum / n
		totals.AvgVisionPerMin = visionSum / n
	}

	if len(pool.MostPlayed) > 0 {
		totals.MostPlayedChampion = pool.MostPlayed[0].Name
	}

	// Best quarter by the aggregate KDA proxy.
	for i := range in.Artifacts {
		a := &in.Artifacts[i]
		if totals.BestQuarter == "" || a.Stats.KDAProxy > bestQuarterKDA(in.Artifacts, totals.BestQuarter) {
			totals.BestQuarter = a.Quarter
		}
	}
	return totals
}

func bestQuarterKDA(artifacts []models.QuarterArtifact, quarter string) float64 {
	for i := range artifacts {
		if artifacts[i].Quarter == quarter {
			return artifacts[i].Stats.KDAProxy
		}
	}
	return 0
}

// primaryRole is the most frequent position across the whole season,
// ties broken alphabetically.
func primaryRole(datasets []models.QuarterDataset) string {
	counts := make(map[string]int)
	for _, qr := range flatten(datasets) {
		if qr.rec.Role != "" {
			counts[qr.rec.Role]++
		}
	}
	best := ""
	for role, n := range counts {
		if best == "" || n > counts[best] || (n == counts[best] && role < best) {
			best = role
		}
	}
	return best
}
