// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

package season

import (
	"github.com/rewindlab/riftrewind/internal/models"
)

// BuildQuarterStats aggregates one quarter's records into the stats
// block of its artifact. Empty input yields the zero value.
func BuildQuarterStats(records []models.MatchRecord) models.QuarterStats {
	var s models.QuarterStats
	if len(records) == 0 {
		return s
	}

	roles := make(map[string]int)
	var kda, cs, gold, vision, kp, objPerMin, controlWards float64
	for i := range records {
		r := &records[i]
		kda += gameKDA(r)
		cs += r.CSPerMin()
		gold += r.GoldPerMin()
		vision += r.VisionScorePerMinute
		kp += r.KillParticipation
		objPerMin += r.DamageToObjectives / r.Minutes()
		controlWards += r.ControlWardsPlaced
		if r.Win {
			s.Wins++
		}
		if r.Role != "" {
			roles[r.Role]++
		}
	}

	n := float64(len(records))
	s.Games = len(records)
	s.KDAProxy = kda / n
	s.CSPerMin = cs / n
	s.GoldPerMin = gold / n
	s.VisionScorePerMin = vision / n
	s.KillParticipation = kp / n
	s.ObjDamagePerMin = objPerMin / n
	s.ControlWardsPerGame = controlWards / n

	for role, count := range roles {
		if s.PrimaryRole == "" || count > roles[s.PrimaryRole] ||
			(count == roles[s.PrimaryRole] && role < s.PrimaryRole) {
			s.PrimaryRole = role
		}
	}
	return s
}
