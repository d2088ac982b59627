// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

// Package values derives a quarter's behavioral value profile from its
// match records. The engine is pure: the same dataset always produces
// the same profile, and an empty dataset produces an all-zero profile
// flagged as insufficient data instead of an error.
package values

import (
	"math"
	"sort"

	"github.com/rewindlab/riftrewind/internal/models"
)

// zClip bounds each per-game z-score before aggregation so a single
// outlier game cannot dominate a quarter's aggregate. The aggregate of
// any value is therefore always within [-zClip, zClip].
const zClip = 2.0

// Compute derives the ValueProfile of one quarter dataset.
//
// Per game, a fixed weighting table maps raw behavioral features to ten
// named value scores. Each value is then z-score normalized across the
// quarter's games (a zero standard deviation yields z = 0 for every
// game), clipped to [-zClip, zClip], and averaged. Universalism
// additionally carries the quarter-level diversity bonus, since variety
// of choice is a property of the quarter rather than of a single game.
func Compute(ds *models.QuarterDataset) models.ValueProfile {
	profile := models.ValueProfile{
		Scores: make(map[string]float64, len(models.ValueNames)),
	}
	for _, name := range models.ValueNames {
		profile.Scores[name] = 0
	}

	if ds == nil || len(ds.Records) == 0 {
		profile.InsufficientData = true
		return profile
	}

	n := len(ds.Records)
	profile.Games = n

	raw := make(map[string][]float64, len(models.ValueNames))
	for _, name := range models.ValueNames {
		raw[name] = make([]float64, n)
	}
	for i := range ds.Records {
		for name, score := range rawScores(&ds.Records[i]) {
			raw[name][i] = score
		}
	}

	for _, name := range models.ValueNames {
		profile.Scores[name] = aggregateZ(raw[name])
	}
	profile.Scores[models.ValueUniversalism] += diversityBonus(ds.Records)

	profile.Top = topN(Rank(profile.Scores), 3)
	return profile
}

// Rank orders all values descending by score, breaking ties by value
// name in lexicographic order so the result is reproducible.
func Rank(scores map[string]float64) []models.RankedValue {
	ranked := make([]models.RankedValue, 0, len(scores))
	for name, score := range scores {
		ranked = append(ranked, models.RankedValue{Name: name, Score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Name < ranked[j].Name
	})
	return ranked
}

func topN(ranked []models.RankedValue, n int) []models.RankedValue {
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	out := make([]models.RankedValue, len(ranked))
	copy(out, ranked)
	return out
}

// aggregateZ z-scores one value's per-game raw scores across the
// quarter, clips each z to the outlier bound, and averages.
func aggregateZ(xs []float64) float64 {
	n := float64(len(xs))
	if n == 0 {
		return 0
	}

	var mu float64
	for _, x := range xs {
		mu += x
	}
	mu /= n

	var variance float64
	for _, x := range xs {
		variance += (x - mu) * (x - mu)
	}
	variance /= n
	sd := math.Sqrt(variance)
	if sd == 0 {
		return 0
	}

	var sum float64
	for _, x := range xs {
		z := (x - mu) / sd
		if z > zClip {
			z = zClip
		} else if z < -zClip {
			z = -zClip
		}
		sum += z
	}
	return sum / n
}

// diversityBonus rewards variety of choice across the quarter:
// half champion diversity, half lane diversity.
func diversityBonus(records []models.MatchRecord) float64 {
	n := len(records)
	if n == 0 {
		return 0
	}
	champs := make(map[int]struct{}, n)
	lanes := make(map[string]struct{}, 4)
	for i := range records {
		champs[records[i].ChampionID] = struct{}{}
		lanes[records[i].Lane] = struct{}{}
	}
	cd := float64(len(champs)) / float64(n)
	ld := float64(len(lanes)) / float64(n)
	return 0.5*cd + 0.5*ld
}
