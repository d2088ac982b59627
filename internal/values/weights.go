// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

package values

import "github.com/rewindlab/riftrewind/internal/models"

// feature extracts one raw behavioral signal from a match record.
type feature func(*models.MatchRecord) float64

// weighted pairs a feature with its contribution to a value score.
type weighted struct {
	f feature
	w float64
}

func b(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

// weights is the fixed mapping from raw features to the ten value
// scores. Universalism has no per-game features; its score is the
// quarter-level diversity bonus.
var weights = map[string][]weighted{
	models.ValuePower: {
		{func(r *models.MatchRecord) float64 { return r.GoldPerMin() }, 1.0},
		{func(r *models.MatchRecord) float64 { return r.MagicDamageToChampions }, 0.5},
		{func(r *models.MatchRecord) float64 { return r.PhysicalDamageToChampions }, 0.5},
		{func(r *models.MatchRecord) float64 { return r.DamageSelfMitigated }, 0.2},
	},
	models.ValueAchievement: {
		{func(r *models.MatchRecord) float64 { return b(r.FirstBloodKill) }, 0.8},
		{func(r *models.MatchRecord) float64 { return r.KillingSprees }, 0.6},
		{func(r *models.MatchRecord) float64 { return r.TeamDamageShare }, 0.8},
		{func(r *models.MatchRecord) float64 { return b(r.KDA > 15) }, 0.6},
	},
	models.ValueHedonism: {
		{func(r *models.MatchRecord) float64 { return r.TakedownsInEnemyFountain }, 1.0},
		{func(r *models.MatchRecord) float64 { return r.TwentyMinionsIn3Seconds }, 0.5},
		{func(r *models.MatchRecord) float64 { return r.BlastConeOpposite }, 0.3},
	},
	models.ValueStimulation: {
		{func(r *models.MatchRecord) float64 { return r.BountyGold }, 0.6},
		{func(r *models.MatchRecord) float64 { return r.EpicMonsterSteals }, 0.8},
		{func(r *models.MatchRecord) float64 { return r.KillsNearEnemyTurret }, 0.5},
		{func(r *models.MatchRecord) float64 { return float64(r.Deaths) }, 0.2},
	},
	models.ValueSelfDirection: {
		{func(r *models.MatchRecord) float64 { return float64(r.SoloKills) }, 0.8},
		{func(r *models.MatchRecord) float64 { return r.KnockIntoTeamAndKill }, 0.5},
		{func(r *models.MatchRecord) float64 { return r.GoldSpentPerMin() }, 0.3},
	},
	models.ValueBenevolence: {
		{func(r *models.MatchRecord) float64 { return r.KillParticipation }, 1.0},
		{func(r *models.MatchRecord) float64 { return r.VisionScorePerMinute }, 0.8},
		{func(r *models.MatchRecord) float64 { return r.WardTakedowns }, 0.5},
		{func(r *models.MatchRecord) float64 { return r.ControlWardsPlaced }, 0.5},
		{func(r *models.MatchRecord) float64 { return r.ImmobilizeAndKillWithAlly }, 0.5},
	},
	models.ValueTradition: {
		{func(r *models.MatchRecord) float64 { return r.CSPerMin() }, 0.8},
		{func(r *models.MatchRecord) float64 { return r.CSPerMinPre10() }, 0.8},
		{func(r *models.MatchRecord) float64 { return r.LongestTimeSpentLiving }, 0.2},
	},
	models.ValueConformity: {
		{func(r *models.MatchRecord) float64 { return r.StealthWardsPlaced }, 0.3},
		{func(r *models.MatchRecord) float64 { return r.WardsGuarded }, 0.3},
		{func(r *models.MatchRecord) float64 { return float64(r.Deaths) }, -0.6},
	},
	models.ValueSecurity: {
		{func(r *models.MatchRecord) float64 { return r.VisionScorePerMinute }, 0.8},
		{func(r *models.MatchRecord) float64 { return r.WardTakedowns }, 0.5},
		{func(r *models.MatchRecord) float64 { return r.DamageSelfMitigated }, 0.4},
		{func(r *models.MatchRecord) float64 { return r.KillsUnderOwnTurret }, 0.3},
	},
	models.ValueUniversalism: {},
}

// rawScores computes the ten weighted raw value scores of one game.
func rawScores(r *models.MatchRecord) map[string]float64 {
	out := make(map[string]float64, len(weights))
	for name, feats := range weights {
		var s float64
		for _, wf := range feats {
			s += wf.w * wf.f(r)
		}
		out[name] = s
	}
	return out
}
