// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

package season

import (
	"math"
	"sort"

	"github.com/rewindlab/riftrewind/internal/models"
)

// oneTrickShare is the minimum fraction of season games on a single
// champion for the player to count as one-tricking it.
const oneTrickShare = 0.30

// mostPlayedLimit caps the most-played list in the pool summary.
const mostPlayedLimit = 5

// BuildPool analyzes champion variety across the season.
func BuildPool(datasets []models.QuarterDataset) models.ChampionPool {
	counts := make(map[string]int)
	total := 0
	for i := range datasets {
		for j := range datasets[i].Records {
			counts[datasets[i].Records[j].Champion]++
			total++
		}
	}

	pool := models.ChampionPool{
		UniqueChampions: len(counts),
		MostPlayed:      []models.ChampionUsage{},
		OneTricks:       []models.ChampionUsage{},
	}
	if total == 0 {
		return pool
	}

	usage := make([]models.ChampionUsage, 0, len(counts))
	for name, games := range counts {
		usage = append(usage, models.ChampionUsage{Name: name, Games: games})
	}
	sort.Slice(usage, func(i, j int) bool {
		if usage[i].Games != usage[j].Games {
			return usage[i].Games > usage[j].Games
		}
		return usage[i].Name < usage[j].Name
	})

	for i, u := range usage {
		if i < mostPlayedLimit {
			pool.MostPlayed = append(pool.MostPlayed, u)
		}
		if float64(u.Games) >= oneTrickShare*float64(total) {
			pool.OneTricks = append(pool.OneTricks, u)
		}
	}

	pool.DiversityScore = diversityScore(usage, total)
	return pool
}

// diversityScore is the Shannon entropy of the champion frequency
// distribution normalized by the maximum entropy log(N). A single
// champion scores 0; a uniform spread scores 1.
func diversityScore(usage []models.ChampionUsage, total int) float64 {
	if len(usage) < 2 {
		return 0
	}
	var entropy float64
	for _, u := range usage {
		p := float64(u.Games) / float64(total)
		entropy -= p * math.Log(p)
	}
	return entropy / math.Log(float64(len(usage)))
}
