// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

package season

import (
	"github.com/rewindlab/riftrewind/internal/models"
)

// quarterRecord is one match record tagged with the quarter it came
// from, so highlight scans can attribute the best game to a quarter.
type quarterRecord struct {
	quarter string
	rec     *models.MatchRecord
}

func flatten(datasets []models.QuarterDataset) []quarterRecord {
	var out []quarterRecord
	for i := range datasets {
		for j := range datasets[i].Records {
			out = append(out, quarterRecord{datasets[i].Quarter, &datasets[i].Records[j]})
		}
	}
	return out
}

// gameKDA prefers the upstream challenge KDA and falls back to the
// deaths-clamped proxy when the challenge field is absent.
func gameKDA(r *models.MatchRecord) float64 {
	if r.KDA > 0 {
		return r.KDA
	}
	deaths := r.Deaths
	if deaths < 1 {
		deaths = 1
	}
	return float64(r.Kills+r.Assists) / float64(deaths)
}

// BuildHighlights scans every record of the season for the single best
// game per metric plus season-wide moment counters.
func BuildHighlights(datasets []models.QuarterDataset) models.Highlights {
	h := models.Highlights{PerfectGames: []string{}}

	bestBy := func(metric func(*models.MatchRecord) float64) *models.BestGame {
		var best *models.BestGame
		for _, qr := range flatten(datasets) {
			v := metric(qr.rec)
			if best == nil || v > best.Value {
				best = &models.BestGame{
					MatchID:  qr.rec.MatchID,
					Quarter:  qr.quarter,
					Champion: qr.rec.Champion,
					Value:    v,
				}
			}
		}
		return best
	}

	h.BestKDAGame = bestBy(gameKDA)
	h.MostKillsGame = bestBy(func(r *models.MatchRecord) float64 { return float64(r.Kills) })
	h.MostDamageGame = bestBy(func(r *models.MatchRecord) float64 { return r.TotalDamageToChampions })
	h.HighestCSGame = bestBy(func(r *models.MatchRecord) float64 { return r.TotalCS })

	for _, qr := range flatten(datasets) {
		if qr.rec.PerfectGame {
			h.PerfectGames = append(h.PerfectGames, qr.rec.MatchID)
		}
		if qr.rec.FirstBloodKill {
			h.FirstBloods++
		}
		h.EpicSteals += int(qr.rec.EpicMonsterSteals)
		h.FountainKills += int(qr.rec.TakedownsInEnemyFountain)
	}
	return h
}
