// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

// Package season assembles the finale analytics from the available
// quarter artifacts and datasets. Everything here is pure computation;
// the finale pipeline handler adds narrative text and persistence.
package season

import (
	"math"

	"github.com/rewindlab/riftrewind/internal/models"
)

// minChangePct is the minimum percentage change for a metric to count
// as improving or declining; smaller movements are classified stable to
// avoid noise-driven flapping.
const minChangePct = 5.0

// metricExtractor reads one tracked metric from a quarter's stats.
type metricExtractor struct {
	name string
	get  func(*models.QuarterStats) float64
}

var trackedMetrics = []metricExtractor{
	{"kda", func(s *models.QuarterStats) float64 { return s.KDAProxy }},
	{"cs_per_min", func(s *models.QuarterStats) float64 { return s.CSPerMin }},
	{"gold_per_min", func(s *models.QuarterStats) float64 { return s.GoldPerMin }},
	{"vision_per_min", func(s *models.QuarterStats) float64 { return s.VisionScorePerMin }},
	{"kill_participation", func(s *models.QuarterStats) float64 { return s.KillParticipation }},
}

// Trends compares each tracked metric's first versus last available
// quarter. Fewer than two quarters yields no trends.
func Trends(artifacts []models.QuarterArtifact) map[string]models.MetricTrend {
	trends := make(map[string]models.MetricTrend)
	if len(artifacts) < 2 {
		return trends
	}

	for _, m := range trackedMetrics {
		vals := make([]float64, len(artifacts))
		bestIdx := 0
		for i := range artifacts {
			vals[i] = m.get(&artifacts[i].Stats)
			if vals[i] > vals[bestIdx] {
				bestIdx = i
			}
		}

		first, last := vals[0], vals[len(vals)-1]
		var changePct float64
		if first != 0 {
			changePct = (last - first) / math.Abs(first) * 100
		}

		direction := models.TrendStable
		if math.Abs(changePct) >= minChangePct {
			if last > first {
				direction = models.TrendImproving
			} else {
				direction = models.TrendDeclining
			}
		}

		trends[m.name] = models.MetricTrend{
			Values:      vals,
			Direction:   direction,
			ChangePct:   changePct,
			BestQuarter: artifacts[bestIdx].Quarter,
		}
	}
	return trends
}

// overallTrend summarizes the season: improving if more metrics improve
// than decline, declining for the reverse, stable otherwise.
func overallTrend(trends map[string]models.MetricTrend) string {
	var up, down int
	for _, t := range trends {
		switch t.Direction {
		case models.TrendImproving:
			up++
		case models.TrendDeclining:
			down++
		}
	}
	switch {
	case up > down:
		return string(models.TrendImproving)
	case down > up:
		return string(models.TrendDeclining)
	default:
		return string(models.TrendStable)
	}
}
