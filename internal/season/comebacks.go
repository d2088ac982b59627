// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

package season

import (
	"github.com/rewindlab/riftrewind/internal/models"
)

// comebackDeficit is the early gold+XP disadvantage threshold below
// which a won game counts as a comeback.
const comebackDeficit = -500.0

// BuildComebacks finds games won from a substantial early deficit.
func BuildComebacks(datasets []models.QuarterDataset) models.Comebacks {
	cb := models.Comebacks{Games: []models.ComebackGame{}}
	total := 0
	for _, qr := range flatten(datasets) {
		total++
		if !qr.rec.Win || qr.rec.EarlyGoldExpAdvantage >= comebackDeficit {
			continue
		}
		cb.Games = append(cb.Games, models.ComebackGame{
			MatchID:      qr.rec.MatchID,
			Quarter:      qr.quarter,
			Champion:     qr.rec.Champion,
			EarlyDeficit: qr.rec.EarlyGoldExpAdvantage,
		})
	}
	cb.Count = len(cb.Games)
	if total > 0 {
		cb.ResilienceScore = float64(cb.Count) / float64(total) * 100
	}
	return cb
}
